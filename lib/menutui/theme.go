// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menutui

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette of the menu viewer. All colors use
// lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Item decorations: toggle markers, submenu arrows, icon names.
	ToggleOn   lipgloss.Color
	ToggleOff  lipgloss.Color
	Submenu    lipgloss.Color
	IconAccent lipgloss.Color
	Shortcut   lipgloss.Color

	// Items that cannot be activated right now.
	InactiveText lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Status bar colors for routed log records.
	WarnText  lipgloss.Color
	ErrorText lipgloss.Color

	// Filter match highlighting.
	FilterHighlightBackground lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	ToggleOn:   lipgloss.Color("114"), // green
	ToggleOff:  lipgloss.Color("240"), // dim gray
	Submenu:    lipgloss.Color("75"),  // blue
	IconAccent: lipgloss.Color("141"), // light purple
	Shortcut:   lipgloss.Color("241"),

	InactiveText: lipgloss.Color("240"),

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	WarnText:  lipgloss.Color("220"), // amber
	ErrorText: lipgloss.Color("196"), // red

	FilterHighlightBackground: lipgloss.Color("58"), // dark amber
}
