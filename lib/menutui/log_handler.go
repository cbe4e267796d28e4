// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menutui

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg delivers a slog record to the model for display in the
// status bar.
type logRecordMsg struct {
	// Summary is the one-line "message (key=value, ...)" rendering.
	Summary string

	// Level selects the status bar styling.
	Level slog.Level
}

// logRecordFadeMsg clears the status bar message it names, unless a
// newer record has replaced it since.
type logRecordFadeMsg struct {
	sequence int
}

// logRecordFadeDelay is how long log messages stay visible in the
// status bar before fading back to the keyboard help line.
const logRecordFadeDelay = 5 * time.Second

// TUILogHandler is a slog.Handler that routes log records into a
// bubbletea program as status bar messages. Records below the
// configured level are dropped.
//
// Create the handler before the program, then call SetProgram once
// the tea.Program exists. Records arriving before that are dropped.
// Handlers derived via WithAttrs/WithGroup share the program pointer,
// so a single SetProgram call reaches all of them.
type TUILogHandler struct {
	level   slog.Leveler
	program *atomic.Pointer[tea.Program]
	attrs   []string
	groups  []string
}

// NewTUILogHandler creates a handler that delivers records at or above
// level to the bubbletea program.
func NewTUILogHandler(level slog.Leveler) *TUILogHandler {
	return &TUILogHandler{
		level:   level,
		program: &atomic.Pointer[tea.Program]{},
	}
}

// SetProgram sets the program that receives log messages. Safe to call
// from any goroutine.
func (handler *TUILogHandler) SetProgram(program *tea.Program) {
	handler.program.Store(program)
}

// Enabled reports whether the handler is interested in records at the
// given level.
func (handler *TUILogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level.Level()
}

// Handle formats the record and sends it to the program. Send runs on
// its own goroutine: a record logged from inside Update must not wait
// for the event loop that is running it.
func (handler *TUILogHandler) Handle(_ context.Context, record slog.Record) error {
	program := handler.program.Load()
	if program == nil {
		return nil
	}
	message := logRecordMsg{
		Summary: handler.summarize(record),
		Level:   record.Level,
	}
	go program.Send(message)
	return nil
}

// summarize renders "message (key=value, ...)": handler attributes
// first, then the record's own.
func (handler *TUILogHandler) summarize(record slog.Record) string {
	parts := slices.Clone(handler.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		parts = appendAttr(parts, handler.groups, attr)
		return true
	})
	if len(parts) == 0 {
		return record.Message
	}
	return record.Message + " (" + strings.Join(parts, ", ") + ")"
}

// WithAttrs returns a handler with the given attributes appended.
func (handler *TUILogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := *handler
	derived.attrs = slices.Clone(handler.attrs)
	for _, attr := range attrs {
		derived.attrs = appendAttr(derived.attrs, handler.groups, attr)
	}
	return &derived
}

// WithGroup returns a handler that qualifies later attribute keys with
// name.
func (handler *TUILogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return handler
	}
	derived := *handler
	derived.groups = append(slices.Clone(handler.groups), name)
	return &derived
}

// appendAttr renders attr as key=value, flattening group values and
// qualifying keys with the open groups.
func appendAttr(parts []string, groups []string, attr slog.Attr) []string {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return parts
	}
	if attr.Value.Kind() == slog.KindGroup {
		nested := groups
		if attr.Key != "" {
			nested = append(slices.Clone(groups), attr.Key)
		}
		for _, member := range attr.Value.Group() {
			parts = appendAttr(parts, nested, member)
		}
		return parts
	}
	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	return append(parts, key+"="+attr.Value.String())
}
