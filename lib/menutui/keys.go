// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menutui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the menu viewer.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Collapse key.Binding // Close the submenu, or jump to the parent item.
	Expand   key.Binding // Open the submenu under the cursor.
	Home     key.Binding
	End      key.Binding

	// Activate clicks the item under the cursor, or toggles a submenu.
	Activate key.Binding

	// Refresh re-reads the whole layout from the remote side.
	Refresh key.Binding

	FilterActivate key.Binding
	FilterClear    key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set: vim-style navigation
// alongside the arrow keys.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Collapse: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "collapse"),
	),
	Expand: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "expand"),
	),
	Home: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	Activate: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter", "activate"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r", "ctrl+r"),
		key.WithHelp("r", "refresh"),
	),
	FilterActivate: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	FilterClear: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "clear"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (keys KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{keys.Up, keys.Down, keys.Expand, keys.Activate, keys.FilterActivate, keys.Quit}
}

// FullHelp implements help.KeyMap.
func (keys KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{keys.Up, keys.Down, keys.Home, keys.End},
		{keys.Collapse, keys.Expand, keys.Activate, keys.Refresh},
		{keys.FilterActivate, keys.FilterClear, keys.Quit},
	}
}
