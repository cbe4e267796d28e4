// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

import (
	"maps"
	"slices"
)

// ItemID identifies a menu item. Ids are assigned by the remote side;
// RootID always exists.
type ItemID int32

const (
	// RootID is the reserved id of the menu root.
	RootID ItemID = 0

	// NoParent is the parent recorded for the root.
	NoParent ItemID = -1
)

// Properties is an item's property bag. Values are plain Go values
// (string, bool, integer types, []byte, []string, [][]string) after the
// transport has unwrapped its variant encoding.
type Properties map[string]any

// Clone returns a shallow copy of the bag. Byte and string slices,
// and the inner slices of shortcut lists, are copied so the clone
// shares no backing arrays with the original.
func (properties Properties) Clone() Properties {
	if properties == nil {
		return nil
	}
	clone := make(Properties, len(properties))
	for name, value := range properties {
		switch typed := value.(type) {
		case []byte:
			clone[name] = slices.Clone(typed)
		case []string:
			clone[name] = slices.Clone(typed)
		case [][]string:
			nested := make([][]string, len(typed))
			for i, inner := range typed {
				nested[i] = slices.Clone(inner)
			}
			clone[name] = nested
		default:
			clone[name] = value
		}
	}
	return clone
}

// Names returns the property names in sorted order.
func (properties Properties) Names() []string {
	return slices.Sorted(maps.Keys(properties))
}

// Layout is one element of a layout snapshot: an item id, the
// properties the caller asked for, and the element's children in
// display order.
type Layout struct {
	ID         ItemID
	Properties Properties
	Children   []Layout
}

// ItemProperties pairs an id with its property bag. It is the element
// type of GetGroupProperties results and of the updated half of a
// PropertiesUpdated signal.
type ItemProperties struct {
	ID         ItemID
	Properties Properties
}

// RemovedProperties lists the property names removed from one item.
type RemovedProperties struct {
	ID    ItemID
	Names []string
}
