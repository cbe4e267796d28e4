// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menutui

import (
	"errors"
	"log/slog"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/menumirror/lib/menu"
)

// send runs one message through Update and returns the new model and
// command.
func send(t *testing.T, model Model, message tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := model.Update(message)
	next, ok := updated.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", updated)
	}
	return next, cmd
}

// press feeds the key sequence: single characters as runes, or a named
// key such as "enter", "esc", "backspace", "up", "down".
func press(t *testing.T, model Model, keys ...string) Model {
	t.Helper()
	for _, name := range keys {
		var message tea.KeyMsg
		switch name {
		case "enter":
			message = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			message = tea.KeyMsg{Type: tea.KeyEsc}
		case "backspace":
			message = tea.KeyMsg{Type: tea.KeyBackspace}
		case "up":
			message = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			message = tea.KeyMsg{Type: tea.KeyDown}
		default:
			message = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(name)}
		}
		model, _ = send(t, model, message)
	}
	return model
}

// loadedModel is a model over the editor tree after its first read.
func loadedModel(t *testing.T) (Model, *Tree, map[menu.ItemID]menu.Node) {
	t.Helper()
	tree, nodes := editorTree(t)
	model := NewModel(tree)
	cmd := model.Init()
	if cmd == nil {
		t.Fatal("Init returned no command")
	}
	model, _ = send(t, model, cmd())
	return model, tree, nodes
}

func TestModelNavigation(t *testing.T) {
	model, _, _ := loadedModel(t)
	if got := rowIDs(model.rows); !slices.Equal(got, []menu.ItemID{1, 5, 90}) {
		t.Fatalf("rows = %v", got)
	}

	model = press(t, model, "j", "j", "j")
	if model.selected != 90 {
		t.Errorf("selected = %d after moving past the end, want 90", model.selected)
	}
	model = press(t, model, "k")
	if model.selected != 5 {
		t.Errorf("selected = %d, want 5", model.selected)
	}
	model = press(t, model, "G", "g")
	if model.selected != 1 {
		t.Errorf("selected = %d after home, want 1", model.selected)
	}
}

func TestModelExpandCollapse(t *testing.T) {
	model, _, _ := loadedModel(t)

	model = press(t, model, "l")
	if got := rowIDs(model.rows); !slices.Equal(got, []menu.ItemID{1, 2, 3, 4, 5, 90}) {
		t.Fatalf("rows after expand = %v", got)
	}

	// From a child, collapse jumps to the parent first.
	model = press(t, model, "j", "j", "j", "h")
	if model.selected != 1 {
		t.Errorf("selected = %d, want the File submenu", model.selected)
	}
	model = press(t, model, "h")
	if got := rowIDs(model.rows); !slices.Equal(got, []menu.ItemID{1, 5, 90}) {
		t.Errorf("rows after collapse = %v", got)
	}

	// Enter toggles a submenu as well.
	model = press(t, model, "enter")
	if len(model.rows) != 6 {
		t.Errorf("enter did not open the submenu: %v", rowIDs(model.rows))
	}
}

func TestModelActivate(t *testing.T) {
	model, _, nodes := loadedModel(t)
	var activated []menu.ItemID
	nodes[2].OnActivate(func(uint32) { activated = append(activated, 2) })
	nodes[90].OnActivate(func(uint32) { activated = append(activated, 90) })

	model = press(t, model, "l", "j", "enter")
	// The separator is not activatable.
	model = press(t, model, "j", "enter")
	model = press(t, model, "G", "enter")
	if !slices.Equal(activated, []menu.ItemID{2, 90}) {
		t.Errorf("activated = %v, want [2 90]", activated)
	}
}

func TestModelFollowsSelectionAcrossChanges(t *testing.T) {
	model, tree, nodes := loadedModel(t)
	model = press(t, model, "G")

	// An item inserted above the cursor must not move the selection.
	extra := build(t, tree, menu.ItemView{ID: 7, Kind: menu.KindPlain, Label: "New"})
	tree.Root().InsertAt(extra, 0)
	model, _ = send(t, model, treeChangedMsg{})
	if model.selected != 90 || model.rows[model.cursor].ID != 90 {
		t.Errorf("selection moved to %d", model.selected)
	}

	// Removing the selected item clamps the cursor.
	nodes[90].Destroy()
	model, _ = send(t, model, treeChangedMsg{})
	if model.cursor != len(model.rows)-1 {
		t.Errorf("cursor = %d with %d rows", model.cursor, len(model.rows))
	}
}

func TestModelFilter(t *testing.T) {
	model, _, nodes := loadedModel(t)
	var activated []menu.ItemID
	nodes[4].OnActivate(func(uint32) { activated = append(activated, 4) })

	model = press(t, model, "/", "s", "a", "v")
	if got := rowIDs(model.rows); !slices.Equal(got, []menu.ItemID{4}) {
		t.Fatalf("filtered rows = %v, want only Auto save", got)
	}
	if len(model.matches[4]) != 3 {
		t.Errorf("match positions = %v", model.matches[4])
	}
	if view := model.View(); !strings.Contains(view, "/sav") {
		t.Errorf("view does not show the filter:\n%s", view)
	}

	model = press(t, model, "enter")
	if !slices.Equal(activated, []menu.ItemID{4}) {
		t.Errorf("activated = %v", activated)
	}

	// "q" is text while filtering.
	model = press(t, model, "backspace", "backspace", "backspace", "q")
	if !model.filtering || string(model.filter) != "q" {
		t.Fatalf("filter = %q, filtering = %v", string(model.filter), model.filtering)
	}

	model = press(t, model, "esc")
	if !model.filtering || len(model.filter) != 0 {
		t.Errorf("first esc should clear the text only")
	}
	model = press(t, model, "esc")
	if model.filtering {
		t.Error("second esc should leave filter mode")
	}
	if got := rowIDs(model.rows); !slices.Equal(got, []menu.ItemID{1, 5, 90}) {
		t.Errorf("rows after filter = %v", got)
	}
}

func TestModelFilterNarrowsRows(t *testing.T) {
	model, _, _ := loadedModel(t)

	// Filtering searches collapsed submenus too and skips separators.
	model = press(t, model, "/", "e")
	if got, want := rowIDs(model.rows), []menu.ItemID{1, 2, 4, 5}; !slices.Equal(got, want) {
		t.Fatalf("rows for %q = %v, want %v", string(model.filter), got, want)
	}
	model = press(t, model, "n")
	if got, want := rowIDs(model.rows), []menu.ItemID{2}; !slices.Equal(got, want) {
		t.Fatalf("rows for %q = %v, want %v", string(model.filter), got, want)
	}
	if model.selected != 2 {
		t.Errorf("selected = %d, want Open", model.selected)
	}
	model = press(t, model, "x")
	if len(model.rows) != 0 {
		t.Errorf("rows for %q = %v, want none", string(model.filter), rowIDs(model.rows))
	}
	model = press(t, model, "backspace", "backspace", "backspace", "q", "u")
	if got, want := rowIDs(model.rows), []menu.ItemID{90}; !slices.Equal(got, want) {
		t.Errorf("rows for %q = %v, want %v", string(model.filter), got, want)
	}
}

func TestModelFilterEnterOpensSubmenu(t *testing.T) {
	model, _, _ := loadedModel(t)
	model = press(t, model, "/", "v", "i", "e", "w", "enter")
	if model.filtering {
		t.Fatal("enter on a submenu should leave filter mode")
	}
	if model.selected != 5 {
		t.Errorf("selected = %d, want View", model.selected)
	}
	if row, _ := model.current(); !row.Expanded {
		t.Errorf("View row = %+v, want expanded", row)
	}
}

func TestModelQuit(t *testing.T) {
	model, _, _ := loadedModel(t)
	_, cmd := send(t, model, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestModelRefresh(t *testing.T) {
	model, _, _ := loadedModel(t)
	calls := 0
	model.SetRefresh(func() error {
		calls++
		return errors.New("client closed")
	})
	_, cmd := send(t, model, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil {
		t.Fatal("refresh returned no command")
	}
	message, ok := cmd().(logRecordMsg)
	if !ok || calls != 1 || message.Level != slog.LevelError {
		t.Errorf("refresh message = %+v, calls = %d", message, calls)
	}
}

func TestModelStatusFade(t *testing.T) {
	model, _, _ := loadedModel(t)
	model, cmd := send(t, model, logRecordMsg{Summary: "about-to-show failed (id=5)", Level: slog.LevelWarn})
	if cmd == nil {
		t.Fatal("log record scheduled no fade")
	}
	if view := model.View(); !strings.Contains(view, "about-to-show failed") {
		t.Errorf("status missing from view:\n%s", view)
	}

	first := model.statusSequence
	model, _ = send(t, model, logRecordMsg{Summary: "second", Level: slog.LevelError})
	model, _ = send(t, model, logRecordFadeMsg{sequence: first})
	if model.status != "second" {
		t.Errorf("stale fade cleared the newer record")
	}
	model, _ = send(t, model, logRecordFadeMsg{sequence: model.statusSequence})
	if model.status != "" {
		t.Errorf("status = %q after fade", model.status)
	}
}

func TestModelViewFitsWindow(t *testing.T) {
	model, _, _ := loadedModel(t)
	model, _ = send(t, model, tea.WindowSizeMsg{Width: 12, Height: 4})
	model = press(t, model, "l")

	lines := strings.Split(model.View(), "\n")
	if len(lines) != 4 {
		t.Errorf("view has %d lines, want 4", len(lines))
	}
	for _, line := range lines {
		if width := ansi.StringWidth(line); width > 12 {
			t.Errorf("line %q is %d cells wide", line, width)
		}
	}

	// Moving to the bottom scrolls the body.
	model = press(t, model, "G")
	if model.offset == 0 {
		t.Error("offset did not follow the cursor")
	}
}
