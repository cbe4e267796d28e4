// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menusocket

import (
	"fmt"

	"github.com/bureau-foundation/menumirror/lib/menu"
)

// Action names.
const (
	ActionGetLayout          = "get-layout"
	ActionGetGroupProperties = "get-group-properties"
	ActionEvent              = "event"
	ActionAboutToShow        = "about-to-show"
	ActionSubscribe          = "subscribe"
)

// Signal frame types written on the subscribe stream.
const (
	frameProperties = "properties-updated"
	frameLayout     = "layout-updated"
	frameItem       = "item-updated"
	frameActivation = "activation-requested"
)

type layoutRequest struct {
	Parent int32    `cbor:"parent"`
	Depth  int32    `cbor:"depth"`
	Names  []string `cbor:"names,omitempty"`
}

type layoutNode struct {
	ID         int32          `cbor:"id"`
	Properties map[string]any `cbor:"properties,omitempty"`
	Children   []layoutNode   `cbor:"children,omitempty"`
}

type layoutResponse struct {
	Revision uint32     `cbor:"revision"`
	Layout   layoutNode `cbor:"layout"`
}

type groupRequest struct {
	IDs   []int32  `cbor:"ids"`
	Names []string `cbor:"names,omitempty"`
}

type itemProperties struct {
	ID         int32          `cbor:"id"`
	Properties map[string]any `cbor:"properties"`
}

type removedProperties struct {
	ID    int32    `cbor:"id"`
	Names []string `cbor:"names"`
}

type eventRequest struct {
	ID        int32  `cbor:"id"`
	EventID   string `cbor:"event_id"`
	Data      any    `cbor:"data,omitempty"`
	Timestamp uint32 `cbor:"timestamp"`
}

type aboutToShowRequest struct {
	ID int32 `cbor:"id"`
}

type aboutToShowResponse struct {
	NeedUpdate bool `cbor:"need_update"`
}

// signalFrame is one subscribe stream frame. Type selects which of the
// remaining fields are meaningful.
type signalFrame struct {
	Type      string              `cbor:"type"`
	Revision  uint32              `cbor:"revision,omitempty"`
	Parent    int32               `cbor:"parent,omitempty"`
	ID        int32               `cbor:"id,omitempty"`
	Timestamp uint32              `cbor:"timestamp,omitempty"`
	Updated   []itemProperties    `cbor:"updated,omitempty"`
	Removed   []removedProperties `cbor:"removed,omitempty"`
}

func encodeLayout(layout menu.Layout) layoutNode {
	node := layoutNode{
		ID:         int32(layout.ID),
		Properties: layout.Properties,
	}
	if len(layout.Children) > 0 {
		node.Children = make([]layoutNode, len(layout.Children))
		for i, child := range layout.Children {
			node.Children[i] = encodeLayout(child)
		}
	}
	return node
}

func decodeLayout(node layoutNode) menu.Layout {
	layout := menu.Layout{
		ID:         menu.ItemID(node.ID),
		Properties: NormalizeProperties(node.Properties),
	}
	if len(node.Children) > 0 {
		layout.Children = make([]menu.Layout, len(node.Children))
		for i, child := range node.Children {
			layout.Children[i] = decodeLayout(child)
		}
	}
	return layout
}

func encodeIDs(ids []menu.ItemID) []int32 {
	encoded := make([]int32, len(ids))
	for i, id := range ids {
		encoded[i] = int32(id)
	}
	return encoded
}

func decodeIDs(ids []int32) []menu.ItemID {
	decoded := make([]menu.ItemID, len(ids))
	for i, id := range ids {
		decoded[i] = menu.ItemID(id)
	}
	return decoded
}

func encodeItems(items []menu.ItemProperties) []itemProperties {
	encoded := make([]itemProperties, len(items))
	for i, item := range items {
		encoded[i] = itemProperties{ID: int32(item.ID), Properties: item.Properties}
	}
	return encoded
}

func decodeItems(items []itemProperties) []menu.ItemProperties {
	decoded := make([]menu.ItemProperties, len(items))
	for i, item := range items {
		decoded[i] = menu.ItemProperties{
			ID:         menu.ItemID(item.ID),
			Properties: NormalizeProperties(item.Properties),
		}
	}
	return decoded
}

// encodeSignal converts an engine signal into a stream frame.
func encodeSignal(signal menu.Signal) (signalFrame, error) {
	switch typed := signal.(type) {
	case menu.PropertiesUpdated:
		frame := signalFrame{Type: frameProperties, Updated: encodeItems(typed.Updated)}
		for _, removed := range typed.Removed {
			frame.Removed = append(frame.Removed, removedProperties{ID: int32(removed.ID), Names: removed.Names})
		}
		return frame, nil
	case menu.LayoutUpdated:
		return signalFrame{Type: frameLayout, Revision: typed.Revision, Parent: int32(typed.Parent)}, nil
	case menu.ItemUpdated:
		return signalFrame{Type: frameItem, ID: int32(typed.ID)}, nil
	case menu.ActivationRequested:
		return signalFrame{Type: frameActivation, ID: int32(typed.ID), Timestamp: typed.Timestamp}, nil
	}
	return signalFrame{}, fmt.Errorf("unsupported signal %T", signal)
}

// decodeSignal converts a stream frame into an engine signal.
func decodeSignal(frame signalFrame) (menu.Signal, error) {
	switch frame.Type {
	case frameProperties:
		signal := menu.PropertiesUpdated{Updated: decodeItems(frame.Updated)}
		for _, removed := range frame.Removed {
			signal.Removed = append(signal.Removed, menu.RemovedProperties{ID: menu.ItemID(removed.ID), Names: removed.Names})
		}
		return signal, nil
	case frameLayout:
		return menu.LayoutUpdated{Revision: frame.Revision, Parent: menu.ItemID(frame.Parent)}, nil
	case frameItem:
		return menu.ItemUpdated{ID: menu.ItemID(frame.ID)}, nil
	case frameActivation:
		return menu.ActivationRequested{ID: menu.ItemID(frame.ID), Timestamp: frame.Timestamp}, nil
	}
	return nil, fmt.Errorf("unknown frame type %q: %w", frame.Type, menu.ErrMalformedResult)
}
