// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dbusmenu

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/bureau-foundation/menumirror/lib/menu"
)

// maxLayoutDepth bounds layout decoding. The engine applies its own
// depth limit; this one only guards the decoder's recursion.
const maxLayoutDepth = 256

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", menu.ErrMalformedResult, fmt.Sprintf(format, args...))
}

// decodeLayoutReply decodes the GetLayout reply body u(ia{sv}av).
func decodeLayoutReply(body []interface{}) (uint32, menu.Layout, error) {
	if len(body) != 2 {
		return 0, menu.Layout{}, malformed("GetLayout reply has %d values", len(body))
	}
	revision, ok := body[0].(uint32)
	if !ok {
		return 0, menu.Layout{}, malformed("GetLayout revision is %T", body[0])
	}
	layout, err := decodeLayout(body[1], 0)
	if err != nil {
		return 0, menu.Layout{}, err
	}
	return revision, layout, nil
}

// decodeLayout decodes one (ia{sv}av) element.
func decodeLayout(value any, depth int) (menu.Layout, error) {
	if depth > maxLayoutDepth {
		return menu.Layout{}, malformed("layout deeper than %d", maxLayoutDepth)
	}
	fields, ok := structFields(value)
	if !ok || len(fields) != 3 {
		return menu.Layout{}, malformed("layout element is %T", value)
	}
	id, ok := fields[0].(int32)
	if !ok {
		return menu.Layout{}, malformed("layout id is %T", fields[0])
	}
	properties, err := decodeProperties(fields[1])
	if err != nil {
		return menu.Layout{}, err
	}
	layout := menu.Layout{ID: menu.ItemID(id), Properties: properties}

	children, ok := fields[2].([]dbus.Variant)
	if !ok {
		return menu.Layout{}, malformed("layout children are %T", fields[2])
	}
	for _, child := range children {
		decoded, err := decodeLayout(child.Value(), depth+1)
		if err != nil {
			return menu.Layout{}, err
		}
		layout.Children = append(layout.Children, decoded)
	}
	return layout, nil
}

// decodeItemProperties decodes a(ia{sv}), the GetGroupProperties reply
// and the updated half of ItemsPropertiesUpdated.
func decodeItemProperties(value any) ([]menu.ItemProperties, error) {
	elements, ok := structArray(value)
	if !ok {
		return nil, malformed("property group is %T", value)
	}
	result := make([]menu.ItemProperties, 0, len(elements))
	for _, element := range elements {
		if len(element) != 2 {
			return nil, malformed("property group element has %d fields", len(element))
		}
		id, ok := element[0].(int32)
		if !ok {
			return nil, malformed("property group id is %T", element[0])
		}
		properties, err := decodeProperties(element[1])
		if err != nil {
			return nil, err
		}
		result = append(result, menu.ItemProperties{ID: menu.ItemID(id), Properties: properties})
	}
	return result, nil
}

// decodeRemovedProperties decodes a(ias), the removed half of
// ItemsPropertiesUpdated.
func decodeRemovedProperties(value any) ([]menu.RemovedProperties, error) {
	elements, ok := structArray(value)
	if !ok {
		return nil, malformed("removed properties are %T", value)
	}
	result := make([]menu.RemovedProperties, 0, len(elements))
	for _, element := range elements {
		if len(element) != 2 {
			return nil, malformed("removed properties element has %d fields", len(element))
		}
		id, ok := element[0].(int32)
		if !ok {
			return nil, malformed("removed properties id is %T", element[0])
		}
		names, ok := element[1].([]string)
		if !ok {
			return nil, malformed("removed property names are %T", element[1])
		}
		result = append(result, menu.RemovedProperties{ID: menu.ItemID(id), Names: names})
	}
	return result, nil
}

// decodeProperties unwraps an a{sv} property map.
func decodeProperties(value any) (menu.Properties, error) {
	variants, ok := value.(map[string]dbus.Variant)
	if !ok {
		return nil, malformed("property map is %T", value)
	}
	properties := make(menu.Properties, len(variants))
	for name, variant := range variants {
		properties[name] = unwrapVariant(variant.Value())
	}
	return properties, nil
}

// unwrapVariant strips nested variants. Some exporters wrap values
// twice.
func unwrapVariant(value any) any {
	for {
		variant, ok := value.(dbus.Variant)
		if !ok {
			return value
		}
		value = variant.Value()
	}
}

// decodeSignal converts a com.canonical.dbusmenu signal. Unknown
// member names return (nil, nil).
func decodeSignal(member string, body []interface{}) (menu.Signal, error) {
	switch member {
	case "ItemsPropertiesUpdated":
		if len(body) != 2 {
			return nil, malformed("ItemsPropertiesUpdated has %d values", len(body))
		}
		updated, err := decodeItemProperties(body[0])
		if err != nil {
			return nil, err
		}
		removed, err := decodeRemovedProperties(body[1])
		if err != nil {
			return nil, err
		}
		return menu.PropertiesUpdated{Updated: updated, Removed: removed}, nil
	case "LayoutUpdated":
		if len(body) != 2 {
			return nil, malformed("LayoutUpdated has %d values", len(body))
		}
		revision, revisionOK := body[0].(uint32)
		parent, parentOK := body[1].(int32)
		if !revisionOK || !parentOK {
			return nil, malformed("LayoutUpdated carries (%T, %T)", body[0], body[1])
		}
		return menu.LayoutUpdated{Revision: revision, Parent: menu.ItemID(parent)}, nil
	case "ItemUpdated":
		if len(body) < 1 {
			return nil, malformed("ItemUpdated has no id")
		}
		id, ok := body[0].(int32)
		if !ok {
			return nil, malformed("ItemUpdated id is %T", body[0])
		}
		return menu.ItemUpdated{ID: menu.ItemID(id)}, nil
	case "ItemActivationRequested":
		if len(body) != 2 {
			return nil, malformed("ItemActivationRequested has %d values", len(body))
		}
		id, idOK := body[0].(int32)
		timestamp, timestampOK := body[1].(uint32)
		if !idOK || !timestampOK {
			return nil, malformed("ItemActivationRequested carries (%T, %T)", body[0], body[1])
		}
		return menu.ActivationRequested{ID: menu.ItemID(id), Timestamp: timestamp}, nil
	}
	return nil, nil
}

// structFields returns the fields of a decoded D-Bus struct.
func structFields(value any) ([]interface{}, bool) {
	fields, ok := value.([]interface{})
	return fields, ok
}

// structArray returns the elements of a decoded array of structs.
// godbus produces [][]interface{}; a []interface{} of structs is
// accepted as well.
func structArray(value any) ([][]interface{}, bool) {
	switch typed := value.(type) {
	case [][]interface{}:
		return typed, true
	case []interface{}:
		elements := make([][]interface{}, len(typed))
		for i, element := range typed {
			fields, ok := structFields(element)
			if !ok {
				return nil, false
			}
			elements[i] = fields
		}
		return elements, true
	}
	return nil, false
}
