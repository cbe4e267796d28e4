// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestToolErrorWithHint(t *testing.T) {
	err := Validation("unknown transport %q", "carrier").
		WithHint("Use --transport dbus or --transport socket.")

	want := "unknown transport \"carrier\"\n\nUse --transport dbus or --transport socket."
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if err.ExitCode() != 2 {
		t.Errorf("validation exit code = %d, want 2", err.ExitCode())
	}
}

func TestToolErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	wrapped := fmt.Errorf("connecting: %w", Transient("menu-host unreachable: %w", inner))

	var toolErr *ToolError
	if !errors.As(wrapped, &toolErr) {
		t.Fatal("errors.As should find ToolError in wrapped chain")
	}
	if toolErr.Category != CategoryTransient || toolErr.ExitCode() != 1 {
		t.Errorf("tool error = %+v", toolErr)
	}
	if !errors.Is(wrapped, inner) {
		t.Error("inner error lost through ToolError")
	}
	if strings.Contains(Internal("bug").Error(), "\n\n") {
		t.Error("empty hint should not add a blank line")
	}
}

func TestNewHandlerFormats(t *testing.T) {
	var text, structured bytes.Buffer
	slog.New(newHandler(&text, true, slog.LevelInfo)).Info("loaded", "items", 6)
	slog.New(newHandler(&structured, false, slog.LevelInfo)).Info("loaded", "items", 6)

	if !strings.Contains(text.String(), "msg=loaded items=6") {
		t.Errorf("terminal output = %q", text.String())
	}
	var record map[string]any
	if err := json.Unmarshal(structured.Bytes(), &record); err != nil {
		t.Fatalf("piped output is not JSON: %v (%q)", err, structured.String())
	}
	if record["msg"] != "loaded" || record["items"] != float64(6) {
		t.Errorf("record = %v", record)
	}
}

func TestFanoutHandler(t *testing.T) {
	var warnings, everything bytes.Buffer
	handler := FanoutHandler{
		slog.NewJSONHandler(&warnings, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&everything, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}
	if !handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("fanout should be enabled when any handler is")
	}

	logger := slog.New(handler).With("remote", "socket")
	logger.Debug("fetching")
	logger.Warn("call failed")

	if strings.Contains(warnings.String(), "fetching") || !strings.Contains(warnings.String(), "call failed") {
		t.Errorf("warn handler got %q", warnings.String())
	}
	if strings.Count(everything.String(), `"remote":"socket"`) != 2 {
		t.Errorf("debug handler got %q", everything.String())
	}
}

func TestOpenFileLogHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menumirror.log")
	handler, closeFile, err := OpenFileLogHandler(path, slog.LevelDebug)
	if err != nil {
		t.Fatalf("OpenFileLogHandler: %v", err)
	}
	slog.New(handler).Debug("layout applied", "revision", 3)
	if err := closeFile(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"revision":3`) {
		t.Errorf("log file = %q", data)
	}
}
