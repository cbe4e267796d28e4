// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

// Kind is the closed set of item shapes a renderer is asked to build.
type Kind int

const (
	// KindPlain is a label-only activatable item.
	KindPlain Kind = iota

	// KindSeparator is a non-interactive divider. It ignores label,
	// enabled, children, icon, and toggle properties.
	KindSeparator

	// KindSubmenu hosts a child container. Opening it performs an
	// "about to show" round-trip. It ignores icon and toggle properties.
	KindSubmenu

	// KindToggleCheck is a checkmark item reflecting a boolean state.
	// It ignores the icon.
	KindToggleCheck

	// KindToggleRadio is a single-select item reflecting a boolean
	// state through a non-text indicator. It ignores the icon.
	KindToggleRadio

	// KindIconic is an activatable item decorated with an icon, either
	// named or inline image data.
	KindIconic
)

// Classify computes an item's kind from its properties. Rules are
// evaluated in priority order; the first match wins.
func Classify(properties Properties) Kind {
	if properties.String(PropertyType) == TypeSeparator {
		return KindSeparator
	}
	if properties.String(PropertyChildrenDisplay) == ChildrenDisplaySubmenu {
		return KindSubmenu
	}
	switch properties.String(PropertyToggleType) {
	case ToggleTypeCheckmark:
		return KindToggleCheck
	case ToggleTypeRadio:
		return KindToggleRadio
	}
	if !properties.Icon().IsZero() {
		return KindIconic
	}
	return KindPlain
}

// Activatable reports whether items of this kind carry an activation
// listener. Separators are inert; submenus open instead of activating.
func (kind Kind) Activatable() bool {
	return kind != KindSeparator && kind != KindSubmenu
}

// Toggle reports whether items of this kind display a toggle state.
func (kind Kind) Toggle() bool {
	return kind == KindToggleCheck || kind == KindToggleRadio
}

// String returns the kind's lowercase name.
func (kind Kind) String() string {
	switch kind {
	case KindPlain:
		return "plain"
	case KindSeparator:
		return "separator"
	case KindSubmenu:
		return "submenu"
	case KindToggleCheck:
		return "checkmark"
	case KindToggleRadio:
		return "radio"
	case KindIconic:
		return "icon"
	default:
		return "unknown"
	}
}
