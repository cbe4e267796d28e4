// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

import (
	"context"
	"fmt"
)

// layoutProjection is the property name list sent with every layout
// request. Properties are fetched separately and lazily, so the layout
// only carries structure.
var layoutProjection = []string{PropertyID}

// requestLayout issues an asynchronous layout read for subtree. The
// response is applied on the loop by applyLayout. Failures are logged
// and not retried: the next LayoutUpdated signal or rediscovery tries
// again.
func (c *Client) requestLayout(subtree ItemID) {
	c.metrics.layoutRequested()
	c.call(func(ctx context.Context) func() {
		revision, layout, err := c.remote.GetLayout(ctx, subtree, -1, layoutProjection)
		return func() { c.applyLayout(subtree, revision, layout, err) }
	})
}

// applyLayout ingests one layout response. A response whose revision
// is not newer than the store's is discarded without touching
// anything, which makes re-delivery and out-of-order arrival harmless.
func (c *Client) applyLayout(subtree ItemID, revision uint32, layout Layout, err error) {
	if err != nil {
		c.logger.Warn("layout request failed",
			"subtree", subtree,
			"error", fmt.Errorf("%w: GetLayout: %w", ErrRemoteCall, err),
		)
		c.metrics.remoteFailed("GetLayout")
		return
	}
	if revision <= c.store.Revision() {
		c.logger.Debug("discarding stale layout",
			"subtree", subtree,
			"revision", revision,
			"current", c.store.Revision(),
		)
		c.metrics.layoutDiscarded()
		return
	}
	if layout.ID != subtree {
		c.logger.Warn("discarding layout for the wrong subtree",
			"error", ErrMalformedResult,
			"requested", subtree,
			"received", layout.ID,
		)
		return
	}

	walk := layoutWalk{
		client:  c,
		visited: map[ItemID]struct{}{layout.ID: {}},
	}
	walk.element(layout, 0)

	c.store.setRevision(revision)
	c.metrics.layoutApplied(revision)
	c.logger.Debug("applied layout",
		"subtree", subtree,
		"revision", revision,
		"discovered", len(walk.discovered),
	)

	c.fetch(walk.discovered, false)
	if err := c.rebuild(subtree); err != nil {
		c.logger.Debug("abandoned subtree rebuild", "subtree", subtree, "error", err)
	}
	c.collect()
}

// layoutWalk is the state of one recursive layout ingestion. visited
// holds every element id seen so far in this response; a remote peer
// that repeats an id (a cycle, or the same item listed under two
// parents) gets the first occurrence only.
type layoutWalk struct {
	client     *Client
	visited    map[ItemID]struct{}
	discovered []ItemID
}

func (walk *layoutWalk) element(element Layout, depth int) {
	store := walk.client.store
	children := make([]ItemID, 0, len(element.Children))
	descend := make([]Layout, 0, len(element.Children))
	for _, child := range element.Children {
		if child.ID == RootID {
			walk.client.logger.Warn("layout lists the root as a child",
				"error", ErrMalformedResult,
				"parent", element.ID,
			)
			continue
		}
		if _, seen := walk.visited[child.ID]; seen {
			walk.client.logger.Warn("layout repeats an item",
				"error", ErrMalformedResult,
				"parent", element.ID,
				"id", child.ID,
			)
			continue
		}
		walk.visited[child.ID] = struct{}{}
		children = append(children, child.ID)
		descend = append(descend, child)
		store.setParent(child.ID, element.ID)
		if !store.HasProperties(child.ID) {
			walk.discovered = append(walk.discovered, child.ID)
		}
	}
	store.setChildren(element.ID, children)

	if depth+1 >= walk.client.maxDepth {
		if len(descend) > 0 {
			walk.client.logger.Warn("layout exceeds the depth limit",
				"parent", element.ID,
				"max_depth", walk.client.maxDepth,
			)
		}
		return
	}
	for _, child := range descend {
		walk.element(child, depth+1)
	}
}
