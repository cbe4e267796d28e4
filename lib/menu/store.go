// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

import (
	"maps"
	"slices"
)

// Store holds the mirrored tree: children by id, parent by id, and
// property bag by id, plus the revision of the last applied layout.
//
// A Store is owned by one Client and mutated only from its run loop.
// It is not safe for concurrent use. Accessors return copies so no
// caller can alias the internal maps; code outside the loop reads the
// tree through Client.Snapshot.
//
// An id with parent and children entries but no properties entry is
// structurally known but not yet fetched.
type Store struct {
	children   map[ItemID][]ItemID
	parent     map[ItemID]ItemID
	properties map[ItemID]Properties
	revision   uint32
}

// NewStore returns a store containing only the root.
func NewStore() *Store {
	return &Store{
		children:   map[ItemID][]ItemID{RootID: nil},
		parent:     map[ItemID]ItemID{RootID: NoParent},
		properties: make(map[ItemID]Properties),
	}
}

// Revision returns the revision of the last applied layout.
func (store *Store) Revision() uint32 {
	return store.revision
}

// Known reports whether id is structurally present.
func (store *Store) Known(id ItemID) bool {
	_, exists := store.parent[id]
	return exists
}

// Children returns a copy of id's child list in display order.
func (store *Store) Children(id ItemID) []ItemID {
	return slices.Clone(store.children[id])
}

// Parent returns id's parent. The root reports NoParent.
func (store *Store) Parent(id ItemID) (ItemID, bool) {
	parent, exists := store.parent[id]
	return parent, exists
}

// HasProperties reports whether id's property bag has been fetched.
func (store *Store) HasProperties(id ItemID) bool {
	_, exists := store.properties[id]
	return exists
}

// Properties returns a copy of id's property bag.
func (store *Store) Properties(id ItemID) (Properties, bool) {
	properties, exists := store.properties[id]
	if !exists {
		return nil, false
	}
	return properties.Clone(), true
}

// IDs returns every structurally known id in ascending order.
func (store *Store) IDs() []ItemID {
	return slices.Sorted(maps.Keys(store.parent))
}

// Len returns the number of structurally known ids, including the root.
func (store *Store) Len() int {
	return len(store.parent)
}

// setRevision records a newly applied layout revision. Revisions never
// decrease; an older value is ignored and false is returned.
func (store *Store) setRevision(revision uint32) bool {
	if revision < store.revision {
		return false
	}
	store.revision = revision
	return true
}

func (store *Store) setChildren(id ItemID, children []ItemID) {
	store.children[id] = children
	if _, exists := store.parent[id]; !exists {
		// An element seen only as a layout root (a partial layout for
		// an id not yet attached anywhere) still needs a parent entry
		// to count as known; it stays detached until a later walk
		// attaches it.
		store.parent[id] = NoParent
	}
}

func (store *Store) setParent(id, parent ItemID) {
	store.parent[id] = parent
	if _, exists := store.children[id]; !exists {
		store.children[id] = nil
	}
}

func (store *Store) setProperties(id ItemID, properties Properties) {
	store.properties[id] = properties
}

// setProperty updates one property of a fetched item. Returns false if
// the item has no property bag.
func (store *Store) setProperty(id ItemID, name string, value any) bool {
	properties, exists := store.properties[id]
	if !exists {
		return false
	}
	properties[name] = value
	return true
}

// removeProperty deletes one property of a fetched item. Returns false
// if the item has no property bag.
func (store *Store) removeProperty(id ItemID, name string) bool {
	properties, exists := store.properties[id]
	if !exists {
		return false
	}
	delete(properties, name)
	return true
}

// remove deletes every entry for id. The root cannot be removed.
func (store *Store) remove(id ItemID) {
	if id == RootID {
		return
	}
	delete(store.children, id)
	delete(store.parent, id)
	delete(store.properties, id)
}
