// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menutui

import (
	"slices"
	"strings"

	"github.com/bureau-foundation/menumirror/lib/menu"
)

// Row is one item of the flattened tree, copied out under the lock so
// the caller can render it without further synchronization.
type Row struct {
	ID       menu.ItemID
	Depth    int
	Kind     menu.Kind
	Label    string
	ToggleOn bool
	Icon     menu.Icon
	Shortcut [][]string

	Visible     bool
	Interactive bool

	// Enabled is true while the engine has an activation listener
	// attached.
	Enabled bool

	// Submenu state.
	Expanded bool
	Loading  bool
	Children int

	// Path holds the labels of the enclosing submenus, outermost first.
	Path []string
}

// Activatable reports whether activating the row would reach the
// remote side.
func (row Row) Activatable() bool {
	return row.Kind.Activatable() && row.Enabled && row.Interactive
}

// Rows flattens the tree depth first. With all unset, hidden items are
// skipped along with their subtrees and only expanded submenus are
// descended into, which is what the viewer shows. With all set, every
// placed item is listed.
func (tree *Tree) Rows(all bool) []Row {
	tree.mu.Lock()
	defer tree.mu.Unlock()

	var rows []Row
	var path []string
	var visit func(list *container, depth int)
	visit = func(list *container, depth int) {
		for _, node := range list.nodes {
			if !all && !node.visible {
				continue
			}
			rows = append(rows, node.row(depth, path))
			if node.child == nil || (!all && !node.child.expanded) {
				continue
			}
			path = append(path, node.label)
			visit(node.child, depth+1)
			path = path[:len(path)-1]
		}
	}
	visit(tree.root, 0)
	return rows
}

// row copies the node's state. Caller holds tree.mu.
func (node *widget) row(depth int, path []string) Row {
	row := Row{
		ID:          node.id,
		Depth:       depth,
		Kind:        node.kind,
		Label:       node.label,
		ToggleOn:    node.toggleOn,
		Icon:        node.icon,
		Shortcut:    node.shortcut,
		Visible:     node.visible,
		Interactive: node.interactive,
		Enabled:     node.activate != nil,
		Path:        slices.Clone(path),
	}
	if node.child != nil {
		row.Expanded = node.child.expanded
		row.Loading = node.child.loading
		row.Children = len(node.child.nodes)
	}
	return row
}

// FormatShortcut renders a shortcut property: keys of one chord joined
// with "+", chords joined with ", ".
func FormatShortcut(shortcut [][]string) string {
	chords := make([]string, 0, len(shortcut))
	for _, chord := range shortcut {
		if len(chord) > 0 {
			chords = append(chords, strings.Join(chord, "+"))
		}
	}
	return strings.Join(chords, ", ")
}

// Text renders the whole tree as an indented plain-text outline, one
// item per line, for non-interactive output. Hidden items are listed
// with a marker rather than omitted.
func (tree *Tree) Text() string {
	summary := tree.Summary()
	var builder strings.Builder
	title := summary.Title
	if title == "" {
		title = "(untitled)"
	}
	builder.WriteString(title)
	if !summary.Active {
		builder.WriteString(" (inactive)")
	}
	builder.WriteByte('\n')
	for _, row := range tree.Rows(true) {
		builder.WriteString(strings.Repeat("  ", row.Depth+1))
		builder.WriteString(plainRow(row))
		builder.WriteByte('\n')
	}
	return builder.String()
}

// plainRow is the undecorated one-line form of row.
func plainRow(row Row) string {
	if row.Kind == menu.KindSeparator {
		line := "--------"
		if !row.Visible {
			line += " (hidden)"
		}
		return line
	}
	var builder strings.Builder
	builder.WriteString(toggleMarker(row))
	builder.WriteString(row.Label)
	switch row.Kind {
	case menu.KindSubmenu:
		builder.WriteString(" >")
	case menu.KindIconic:
		switch {
		case row.Icon.Name != "":
			builder.WriteString(" <" + row.Icon.Name + ">")
		case len(row.Icon.Data) > 0:
			builder.WriteString(" <image>")
		}
	}
	if shortcut := FormatShortcut(row.Shortcut); shortcut != "" {
		builder.WriteString("  [" + shortcut + "]")
	}
	if !row.Visible {
		builder.WriteString(" (hidden)")
	}
	if !row.Interactive {
		builder.WriteString(" (insensitive)")
	}
	if row.Kind.Activatable() && !row.Enabled {
		builder.WriteString(" (disabled)")
	}
	return builder.String()
}

// toggleMarker returns the checkbox or radio prefix for toggle rows.
func toggleMarker(row Row) string {
	switch row.Kind {
	case menu.KindToggleCheck:
		if row.ToggleOn {
			return "[x] "
		}
		return "[ ] "
	case menu.KindToggleRadio:
		if row.ToggleOn {
			return "(*) "
		}
		return "( ) "
	}
	return ""
}
