// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package menutui is a terminal renderer for mirrored menus.
//
// [Tree] implements menu.Renderer: the engine builds, places, updates,
// and destroys widgets in it from its run loop. [Model] is a bubbletea
// model that displays the tree and turns key presses into activations
// and submenu openings. [Tree.Text] renders the same tree as a plain
// outline for non-interactive output.
//
// The viewer follows the usual key layout: j/k or the arrow keys move,
// l/h expand and collapse submenus, enter activates, / filters items
// with fzf's fuzzy matcher, and q quits. Log records can be routed
// into the status bar with [TUILogHandler].
package menutui
