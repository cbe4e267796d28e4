// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

import (
	"context"
	"fmt"
)

// activationHandler returns the listener attached to an activatable
// node. It runs on whatever goroutine the renderer uses and hops onto
// the loop.
func (c *Client) activationHandler(id ItemID) func(timestamp uint32) {
	return func(timestamp uint32) {
		c.post(func() { c.activate(id, timestamp) })
	}
}

// activate sends the "clicked" event for id. The call is fire and
// forget: the result is ignored and failures are only logged.
func (c *Client) activate(id ItemID, timestamp uint32) {
	entry, built := c.items[id]
	if !built || entry.activate == nil {
		// Destroyed or disabled after the renderer fired the listener.
		return
	}
	if timestamp == 0 {
		timestamp = uint32(c.clock.Now().UnixMilli())
	}
	c.call(func(ctx context.Context) func() {
		err := c.remote.Event(ctx, id, EventClicked, "", timestamp)
		if err == nil {
			return nil
		}
		return func() {
			c.logger.Warn("activation event failed",
				"id", id,
				"error", fmt.Errorf("%w: Event: %w", ErrRemoteCall, err),
			)
			c.metrics.remoteFailed("Event")
		}
	})
}

// openingHandler returns the listener attached to a submenu container.
// The renderer keeps the container non-interactive until done runs.
func (c *Client) openingHandler(id ItemID) func(done func()) {
	return func(done func()) {
		if !c.post(func() { c.aboutToShow(id, false, done) }) {
			done()
		}
	}
}

// aboutToShow performs the "about to show" round-trip for id. When the
// remote side asks for a refresh, or force is set, a layout read of id
// is issued before done is called. A failed call still calls done so
// the container does not stay locked.
func (c *Client) aboutToShow(id ItemID, force bool, done func()) {
	c.call(func(ctx context.Context) func() {
		needUpdate, err := c.remote.AboutToShow(ctx, id)
		return func() {
			if err != nil {
				c.logger.Warn("about-to-show failed",
					"id", id,
					"error", fmt.Errorf("%w: AboutToShow: %w", ErrRemoteCall, err),
				)
				c.metrics.remoteFailed("AboutToShow")
			}
			if needUpdate || force {
				c.requestLayout(id)
			}
			if done != nil {
				done()
			}
		}
	})
}
