// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the module's standard CBOR configuration.
//
// CBOR is the wire format of the menu socket protocol (lib/service,
// lib/menusocket) and of mirror snapshots written by menu-mirror
// --snapshot. JSON and YAML are used only for human-facing output and
// configuration. Every package encodes through this one configuration:
// Core Deterministic Encoding (RFC 8949 §4.2), so the same logical
// value always produces identical bytes.
//
// For buffers:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For streams:
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// # Struct tags
//
//   - `cbor` tag: the type only ever travels as CBOR (socket envelopes,
//     stream frames).
//   - `json` tag: the type is rendered as JSON too (snapshots, dump
//     output). fxamacker/cbor falls back to `json` tags when `cbor`
//     tags are absent, so one tag names the field in both formats.
//
// Never put both `cbor` and `json` tags on one field.
package codec
