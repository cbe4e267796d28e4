// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

import (
	"context"
	"slices"
)

// Snapshot is a deep copy of a client's mirrored tree at one point in
// the run loop's history. It is a diagnostic export: nothing reads it
// back into a Client.
type Snapshot struct {
	Revision uint32         `json:"revision"       yaml:"revision"`
	Root     *RootSummary   `json:"root,omitempty" yaml:"root,omitempty"`
	Items    []SnapshotItem `json:"items"          yaml:"items"`
}

// SnapshotItem is one structurally known id. Items are listed in tree
// order (depth first from the root), followed by detached entries in
// ascending id order.
type SnapshotItem struct {
	ID         ItemID     `json:"id"                   yaml:"id"`
	Parent     ItemID     `json:"parent"               yaml:"parent"`
	Depth      int        `json:"depth"                yaml:"depth"`
	Children   []ItemID   `json:"children,omitempty"   yaml:"children,omitempty"`
	Properties Properties `json:"properties,omitempty" yaml:"properties,omitempty"`
	Kind       string     `json:"kind,omitempty"       yaml:"kind,omitempty"`
	Rendered   bool       `json:"rendered"             yaml:"rendered"`
}

// Snapshot copies the mirrored tree. It waits for the run loop, so it
// observes a consistent state between two continuations.
func (c *Client) Snapshot(ctx context.Context) (Snapshot, error) {
	result := make(chan Snapshot, 1)
	if !c.post(func() { result <- c.snapshot() }) {
		return Snapshot{}, ErrClosed
	}
	select {
	case snapshot := <-result:
		return snapshot, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-c.done:
		return Snapshot{}, ErrClosed
	}
}

func (c *Client) snapshot() Snapshot {
	snapshot := Snapshot{Revision: c.store.Revision()}
	if summary := c.root.Load(); summary != nil {
		root := *summary
		snapshot.Root = &root
	}

	listed := make(map[ItemID]struct{}, c.store.Len())
	var visit func(id ItemID, depth int)
	visit = func(id ItemID, depth int) {
		if _, seen := listed[id]; seen || depth > c.maxDepth {
			return
		}
		listed[id] = struct{}{}
		snapshot.Items = append(snapshot.Items, c.snapshotItem(id, depth))
		for _, child := range c.store.children[id] {
			visit(child, depth+1)
		}
	}
	visit(RootID, 0)

	for _, id := range c.store.IDs() {
		if _, seen := listed[id]; !seen {
			snapshot.Items = append(snapshot.Items, c.snapshotItem(id, -1))
		}
	}
	return snapshot
}

func (c *Client) snapshotItem(id ItemID, depth int) SnapshotItem {
	parent, _ := c.store.Parent(id)
	entry := SnapshotItem{
		ID:       id,
		Parent:   parent,
		Depth:    depth,
		Children: slices.Clone(c.store.children[id]),
	}
	if properties, fetched := c.store.Properties(id); fetched {
		entry.Properties = properties
		if id != RootID {
			entry.Kind = Classify(properties).String()
		}
	}
	_, entry.Rendered = c.items[id]
	return entry
}
