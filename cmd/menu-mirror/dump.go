// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/menumirror/lib/codec"
	"github.com/bureau-foundation/menumirror/lib/menu"
	"github.com/bureau-foundation/menumirror/lib/menutui"
)

// writeDump prints the mirrored menu in format. The text format is the
// rendered outline; the others serialize the engine snapshot.
func writeDump(w io.Writer, format string, tree *menutui.Tree, snapshot menu.Snapshot) error {
	switch format {
	case formatText:
		_, err := io.WriteString(w, tree.Text())
		return err

	case formatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(snapshot)

	case formatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(snapshot); err != nil {
			return err
		}
		return encoder.Close()

	case formatCBORDiag:
		data, err := codec.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("encoding snapshot: %w", err)
		}
		diagnostic, err := codec.Diagnose(data)
		if err != nil {
			return fmt.Errorf("formatting snapshot: %w", err)
		}
		_, err = fmt.Fprintln(w, diagnostic)
		return err

	default:
		return fmt.Errorf("unknown dump format %q", format)
	}
}

// writeSnapshotFile writes snapshot to path as one CBOR item inside a
// zstd frame. The file is replaced atomically.
func writeSnapshotFile(path string, snapshot menu.Snapshot) error {
	temporary := path + ".tmp"
	file, err := os.Create(temporary)
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	if err := encodeSnapshot(file, snapshot); err != nil {
		file.Close()
		os.Remove(temporary)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(temporary)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(temporary, path); err != nil {
		os.Remove(temporary)
		return fmt.Errorf("installing snapshot: %w", err)
	}
	return nil
}

func encodeSnapshot(w io.Writer, snapshot menu.Snapshot) error {
	compressor, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	if err := codec.NewEncoder(compressor).Encode(snapshot); err != nil {
		compressor.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := compressor.Close(); err != nil {
		return fmt.Errorf("compressing snapshot: %w", err)
	}
	return nil
}
