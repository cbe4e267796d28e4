// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

// collect is the mark-and-sweep pass run after every applied layout.
// Every rendered item starts out collectible; a depth-first traversal
// from the root's children clears the mark on each rendered item it
// reaches. Items still marked are destroyed and their store entries
// removed. Structural entries that are unreachable but were never
// rendered (an item whose fetch failed and that the remote side has
// since dropped) are swept as well.
func (c *Client) collect() {
	collectible := make(map[ItemID]*item, len(c.items))
	for id, entry := range c.items {
		collectible[id] = entry
	}

	reachable := map[ItemID]struct{}{RootID: {}}
	stack := append([]ItemID(nil), c.store.children[RootID]...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := reachable[id]; seen {
			continue
		}
		reachable[id] = struct{}{}
		delete(collectible, id)
		stack = append(stack, c.store.children[id]...)
	}

	removed := 0
	for id, entry := range collectible {
		c.destroyItem(entry)
		c.store.remove(id)
		removed++
	}
	for _, id := range c.store.IDs() {
		if _, live := reachable[id]; !live {
			c.store.remove(id)
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug("collected unreachable items", "count", removed)
		c.metrics.itemsCollected(removed)
	}
}
