// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

import (
	"context"
	"fmt"
)

// fetch requests property bags for ids. Unless force is set, ids that
// already have a fetch in flight are skipped, so an item discovered
// twice before its first fetch resolves is requested once. The
// remaining ids are coalesced into GetGroupProperties calls of at most
// batchSize ids each.
func (c *Client) fetch(ids []ItemID, force bool) {
	pending := make([]ItemID, 0, len(ids))
	for _, id := range ids {
		if _, inflight := c.fetching[id]; inflight && !force {
			continue
		}
		c.fetching[id] = struct{}{}
		pending = append(pending, id)
	}
	for start := 0; start < len(pending); start += c.batchSize {
		end := min(start+c.batchSize, len(pending))
		c.fetchGroup(pending[start:end:end])
	}
}

func (c *Client) fetchGroup(ids []ItemID) {
	c.call(func(ctx context.Context) func() {
		// An empty name list asks for every property.
		result, err := c.remote.GetGroupProperties(ctx, ids, nil)
		return func() { c.applyProperties(ids, result, err) }
	})
}

// applyProperties commits a GetGroupProperties response. Every id in
// the request leaves the in-flight set whatever the outcome; an id the
// response does not cover stays structurally present and unrendered
// until a later fetch or update.
func (c *Client) applyProperties(ids []ItemID, result []ItemProperties, err error) {
	for _, id := range ids {
		delete(c.fetching, id)
	}
	if err != nil {
		c.logger.Warn("property fetch failed",
			"ids", ids,
			"error", fmt.Errorf("%w: GetGroupProperties: %w", ErrRemoteCall, err),
		)
		c.metrics.remoteFailed("GetGroupProperties")
		c.metrics.propertiesFetched(fetchFailed, len(ids))
		return
	}

	received := make(map[ItemID]Properties, len(result))
	for _, entry := range result {
		received[entry.ID] = entry.Properties
	}

	var committed []ItemID
	for _, id := range ids {
		properties := received[id]
		if len(properties) == 0 {
			c.logger.Warn("property fetch returned no properties",
				"error", ErrMalformedResult,
				"id", id,
			)
			c.metrics.propertiesFetched(fetchEmpty, 1)
			continue
		}
		if !c.store.Known(id) {
			// Collected while the call was in flight.
			c.metrics.propertiesFetched(fetchDiscarded, 1)
			continue
		}
		c.store.setProperties(id, properties.Clone())
		committed = append(committed, id)
	}
	c.metrics.propertiesFetched(fetchCommitted, len(committed))

	for _, id := range committed {
		if id == RootID {
			c.updateRoot()
			continue
		}
		if err := c.replace(id, true); err != nil {
			c.logger.Debug("deferred item placement", "id", id, "error", err)
		}
	}
}
