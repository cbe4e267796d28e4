// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

// Property names defined by com.canonical.dbusmenu that the engine
// interprets. Other properties are stored and reported but only
// trigger a rebuild of the owning subtree when they change.
const (
	PropertyID              = "id"
	PropertyType            = "type"
	PropertyLabel           = "label"
	PropertyEnabled         = "enabled"
	PropertyVisible         = "visible"
	PropertySensitive       = "sensitive"
	PropertyIconName        = "icon-name"
	PropertyIconData        = "icon-data"
	PropertyToggleType      = "toggle-type"
	PropertyToggleState     = "toggle-state"
	PropertyChildrenDisplay = "children-display"
	PropertyShortcut        = "shortcut"
)

// Well-known property values.
const (
	TypeSeparator          = "separator"
	ChildrenDisplaySubmenu = "submenu"
	ToggleTypeCheckmark    = "checkmark"
	ToggleTypeRadio        = "radio"
)

// EventClicked is the event id sent when a rendered item is activated.
const EventClicked = "clicked"

// String returns the named property as a string, or "" when it is
// absent or not a string.
func (properties Properties) String(name string) string {
	value, _ := properties[name].(string)
	return value
}

// Bool returns the named property as a boolean. Integer values are
// true when non-zero. Absent or unrecognized values yield fallback.
func (properties Properties) Bool(name string, fallback bool) bool {
	value, exists := properties[name]
	if !exists {
		return fallback
	}
	if number, ok := integerValue(value); ok {
		return number != 0
	}
	if typed, ok := value.(bool); ok {
		return typed
	}
	return fallback
}

// Bytes returns the named property as a byte slice, or nil.
func (properties Properties) Bytes(name string) []byte {
	value, _ := properties[name].([]byte)
	return value
}

// ToggleOn reports whether the toggle-state property is on. The
// protocol encodes the state as an integer (1 on, 0 off, -1
// indeterminate); booleans are accepted as well.
func (properties Properties) ToggleOn() bool {
	value, exists := properties[PropertyToggleState]
	if !exists {
		return false
	}
	if number, ok := integerValue(value); ok {
		return number == 1
	}
	typed, _ := value.(bool)
	return typed
}

// Icon returns the item's icon decoration.
func (properties Properties) Icon() Icon {
	return Icon{
		Name: properties.String(PropertyIconName),
		Data: properties.Bytes(PropertyIconData),
	}
}

func integerValue(value any) (int64, bool) {
	switch typed := value.(type) {
	case int:
		return int64(typed), true
	case int8:
		return int64(typed), true
	case int16:
		return int64(typed), true
	case int32:
		return int64(typed), true
	case int64:
		return typed, true
	case uint8:
		return int64(typed), true
	case uint16:
		return int64(typed), true
	case uint32:
		return int64(typed), true
	case uint64:
		return int64(typed), true
	default:
		return 0, false
	}
}
