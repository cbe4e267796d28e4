// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menutui

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/junegunn/fzf/src/util"

	"github.com/bureau-foundation/menumirror/lib/menu"
)

// chromeHeight is the number of lines the header and status bar take.
const chromeHeight = 2

// Model is the bubbletea model of the menu viewer. It reads a Tree,
// which the engine keeps current, and drives it through Activate,
// Expand, and Collapse.
type Model struct {
	tree    *Tree
	keys    KeyMap
	theme   Theme
	help    help.Model
	refresh func() error

	rows     []Row
	matches  map[menu.ItemID][]int
	selected menu.ItemID
	cursor   int
	offset   int

	filtering bool
	filter    []rune
	slab      *util.Slab

	width  int
	height int

	status         string
	statusLevel    slog.Level
	statusSequence int
}

// NewModel creates a viewer over tree with the default key map and
// theme.
func NewModel(tree *Tree) Model {
	return Model{
		tree:  tree,
		keys:  DefaultKeyMap,
		theme: DefaultTheme,
		help:  help.New(),
		slab:  util.MakeSlab(100*1024, 2048),
	}
}

// SetRefresh sets the function the refresh key calls, typically the
// engine client's Reset. Without one the key does nothing.
func (model *Model) SetRefresh(refresh func() error) {
	model.refresh = refresh
}

// Init implements tea.Model. The first tree read happens right away so
// a menu that was mirrored before the program started is shown.
func (model Model) Init() tea.Cmd {
	return func() tea.Msg { return treeChangedMsg{} }
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		if model.filtering {
			return model.handleFilterKeys(message)
		}
		return model.handleKeys(message)

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.help.Width = message.Width
		model.scroll()

	case treeChangedMsg:
		model.tree.acknowledge()
		model.reload()

	case logRecordMsg:
		model.statusSequence++
		model.status = message.Summary
		model.statusLevel = message.Level
		sequence := model.statusSequence
		return model, tea.Tick(logRecordFadeDelay, func(time.Time) tea.Msg {
			return logRecordFadeMsg{sequence: sequence}
		})

	case logRecordFadeMsg:
		if message.sequence == model.statusSequence {
			model.status = ""
		}
	}
	return model, nil
}

func (model Model) handleKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(message, model.keys.Up):
		model.move(-1)

	case key.Matches(message, model.keys.Down):
		model.move(1)

	case key.Matches(message, model.keys.Home):
		model.move(-len(model.rows))

	case key.Matches(message, model.keys.End):
		model.move(len(model.rows))

	case key.Matches(message, model.keys.Expand):
		if row, ok := model.current(); ok && row.Kind == menu.KindSubmenu {
			model.tree.Expand(row.ID)
			model.reload()
		}

	case key.Matches(message, model.keys.Collapse):
		row, ok := model.current()
		if !ok {
			break
		}
		if row.Kind == menu.KindSubmenu && row.Expanded {
			model.tree.Collapse(row.ID)
		} else if parent, known := model.tree.Parent(row.ID); known && parent != menu.RootID {
			model.selected = parent
			model.cursor = -1
		}
		model.reload()

	case key.Matches(message, model.keys.Activate):
		model.activate()

	case key.Matches(message, model.keys.Refresh):
		return model, model.refreshCommand()

	case key.Matches(message, model.keys.FilterActivate):
		model.filtering = true
		model.cursor = 0
		model.offset = 0
		model.reload()

	case key.Matches(message, model.keys.FilterClear):
		if len(model.filter) > 0 {
			model.filter = nil
			model.reload()
		}
	}
	return model, nil
}

func (model Model) handleFilterKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case message.Type == tea.KeyCtrlC:
		return model, tea.Quit

	case key.Matches(message, model.keys.FilterClear):
		if len(model.filter) > 0 {
			model.filter = nil
		} else {
			model.filtering = false
		}
		model.reload()

	case message.Type == tea.KeyEnter:
		row, ok := model.current()
		if !ok {
			break
		}
		if row.Kind == menu.KindSubmenu {
			// Leave the filter and land on the submenu, opened.
			model.tree.Reveal(row.ID)
			model.tree.Expand(row.ID)
			model.filtering = false
			model.filter = nil
			model.selected = row.ID
			model.cursor = -1
			model.reload()
			break
		}
		model.activate()

	case message.Type == tea.KeyUp:
		model.move(-1)

	case message.Type == tea.KeyDown:
		model.move(1)

	case message.Type == tea.KeyBackspace:
		if len(model.filter) > 0 {
			model.filter = model.filter[:len(model.filter)-1]
			model.reload()
		}

	case message.Type == tea.KeyRunes || message.Type == tea.KeySpace:
		if message.Type == tea.KeySpace {
			model.filter = append(model.filter, ' ')
		} else {
			model.filter = append(model.filter, message.Runes...)
		}
		model.cursor = 0
		model.offset = 0
		model.reload()
	}
	return model, nil
}

// activate clicks the current row, or toggles it if it is a submenu.
func (model *Model) activate() {
	row, ok := model.current()
	if !ok {
		return
	}
	if row.Kind == menu.KindSubmenu {
		if row.Expanded {
			model.tree.Collapse(row.ID)
		} else {
			model.tree.Expand(row.ID)
		}
		model.reload()
		return
	}
	if row.Activatable() {
		model.tree.Activate(row.ID, 0)
	}
}

func (model Model) refreshCommand() tea.Cmd {
	if model.refresh == nil {
		return nil
	}
	refresh := model.refresh
	return func() tea.Msg {
		if err := refresh(); err != nil {
			return logRecordMsg{Summary: "refresh failed: " + err.Error(), Level: slog.LevelError}
		}
		return nil
	}
}

// reload re-reads the tree, applies the filter, and keeps the cursor on
// the selected item when it is still listed. A negative cursor means
// "find the selected id".
func (model *Model) reload() {
	if model.filtering && len(model.filter) > 0 {
		model.rows = nil
		model.matches = make(map[menu.ItemID][]int)
		for _, row := range model.tree.Rows(true) {
			if !row.Visible || row.Kind == menu.KindSeparator {
				continue
			}
			result := FuzzyMatch(row.Label, model.filter, model.slab)
			if result.Score <= 0 {
				continue
			}
			model.rows = append(model.rows, row)
			model.matches[row.ID] = result.Positions
		}
	} else {
		model.rows = model.tree.Rows(false)
		model.matches = nil
	}

	if index := slices.IndexFunc(model.rows, func(row Row) bool { return row.ID == model.selected }); index >= 0 && !model.filtering {
		model.cursor = index
	}
	model.cursor = min(max(model.cursor, 0), max(len(model.rows)-1, 0))
	if len(model.rows) > 0 {
		model.selected = model.rows[model.cursor].ID
	}
	model.scroll()
}

func (model *Model) move(delta int) {
	if len(model.rows) == 0 {
		return
	}
	model.cursor = min(max(model.cursor+delta, 0), len(model.rows)-1)
	model.selected = model.rows[model.cursor].ID
	model.scroll()
}

// scroll keeps the cursor inside the visible window.
func (model *Model) scroll() {
	body := model.bodyHeight()
	if body <= 0 {
		model.offset = 0
		return
	}
	if model.cursor < model.offset {
		model.offset = model.cursor
	}
	if model.cursor >= model.offset+body {
		model.offset = model.cursor - body + 1
	}
	model.offset = max(0, min(model.offset, len(model.rows)-body))
}

// bodyHeight is the number of item rows that fit, or 0 before the
// first window size message (render everything).
func (model Model) bodyHeight() int {
	if model.height == 0 {
		return 0
	}
	return max(model.height-chromeHeight, 1)
}

func (model Model) current() (Row, bool) {
	if model.cursor < 0 || model.cursor >= len(model.rows) {
		return Row{}, false
	}
	return model.rows[model.cursor], true
}

// View implements tea.Model.
func (model Model) View() string {
	var lines []string
	lines = append(lines, model.renderHeader())

	visible := model.rows[model.offset:]
	if body := model.bodyHeight(); body > 0 && len(visible) > body {
		visible = visible[:body]
	}
	if len(model.rows) == 0 {
		empty := "(empty menu)"
		if model.filtering && len(model.filter) > 0 {
			empty = "(no matches)"
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(empty))
	}
	for index, row := range visible {
		lines = append(lines, model.renderRow(row, model.offset+index == model.cursor))
	}

	if body := model.bodyHeight(); body > 0 {
		for len(lines) < body+1 {
			lines = append(lines, "")
		}
	}
	lines = append(lines, model.renderStatus())

	if model.width > 0 {
		for index, line := range lines {
			lines[index] = ansi.Truncate(line, model.width, "…")
		}
	}
	return strings.Join(lines, "\n")
}

func (model Model) renderHeader() string {
	if model.filtering {
		prompt := lipgloss.NewStyle().Foreground(model.theme.Submenu).Render("/")
		return prompt + string(model.filter) + "▏"
	}
	summary := model.tree.Summary()
	title := summary.Title
	if title == "" {
		title = "menu"
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(model.theme.HeaderForeground).Render(title)
	if !summary.Active {
		header += lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(" (inactive)")
	}
	return header
}

func (model Model) renderStatus() string {
	if model.status != "" {
		color := model.theme.FaintText
		switch {
		case model.statusLevel >= slog.LevelError:
			color = model.theme.ErrorText
		case model.statusLevel >= slog.LevelWarn:
			color = model.theme.WarnText
		}
		return lipgloss.NewStyle().Foreground(color).Render(model.status)
	}
	return model.help.View(model.keys)
}

func (model Model) renderRow(row Row, selected bool) string {
	theme := model.theme
	var builder strings.Builder
	if model.filtering && len(model.filter) > 0 {
		if len(row.Path) > 0 {
			builder.WriteString(lipgloss.NewStyle().Foreground(theme.FaintText).Render(strings.Join(row.Path, " › ") + " › "))
		}
	} else {
		builder.WriteString(strings.Repeat("  ", row.Depth))
	}

	if row.Kind == menu.KindSeparator {
		builder.WriteString(lipgloss.NewStyle().Foreground(theme.BorderColor).Render(strings.Repeat("─", 16)))
		return builder.String()
	}

	switch row.Kind {
	case menu.KindSubmenu:
		arrow := "▸ "
		if row.Expanded {
			arrow = "▾ "
		}
		builder.WriteString(lipgloss.NewStyle().Foreground(theme.Submenu).Render(arrow))
	case menu.KindToggleCheck, menu.KindToggleRadio:
		marker := toggleMarker(row)
		if row.Kind == menu.KindToggleRadio {
			marker = "○ "
			if row.ToggleOn {
				marker = "◉ "
			}
		}
		color := theme.ToggleOff
		if row.ToggleOn {
			color = theme.ToggleOn
		}
		builder.WriteString(lipgloss.NewStyle().Foreground(color).Render(marker))
	default:
		builder.WriteString("  ")
	}

	labelStyle := lipgloss.NewStyle().Foreground(theme.NormalText)
	if !row.Interactive || (row.Kind.Activatable() && !row.Enabled) {
		labelStyle = labelStyle.Foreground(theme.InactiveText)
	}
	if selected {
		labelStyle = labelStyle.Background(theme.SelectedBackground).Foreground(theme.SelectedForeground)
	}
	builder.WriteString(model.renderLabel(row, labelStyle))

	if row.Kind == menu.KindIconic {
		icon := row.Icon.Name
		if icon == "" && len(row.Icon.Data) > 0 {
			icon = "image"
		}
		if icon != "" {
			builder.WriteString(lipgloss.NewStyle().Foreground(theme.IconAccent).Render(" ‹" + icon + "›"))
		}
	}
	if row.Loading {
		builder.WriteString(lipgloss.NewStyle().Foreground(theme.FaintText).Render(" …"))
	}
	if shortcut := FormatShortcut(row.Shortcut); shortcut != "" {
		builder.WriteString(lipgloss.NewStyle().Foreground(theme.Shortcut).Render("  " + shortcut))
	}
	return builder.String()
}

// renderLabel styles the label, highlighting filter match positions.
func (model Model) renderLabel(row Row, style lipgloss.Style) string {
	positions := model.matches[row.ID]
	if len(positions) == 0 {
		return style.Render(row.Label)
	}
	highlight := style.Background(model.theme.FilterHighlightBackground)
	var builder strings.Builder
	for index, r := range []rune(row.Label) {
		if _, matched := slices.BinarySearch(positions, index); matched {
			builder.WriteString(highlight.Render(string(r)))
		} else {
			builder.WriteString(style.Render(string(r)))
		}
	}
	return builder.String()
}
