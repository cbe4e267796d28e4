// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package menuhost serves a menu described by a definition file.
//
// A Host is the remote side of the mirror: it owns the authoritative
// tree, answers the com.canonical.dbusmenu operations (it implements
// menu.Remote), and emits change signals when the definition changes.
// cmd/menu-host exposes a Host on a Unix socket with
// menusocket.Register; tests mirror a Host in-process.
//
// Definitions are YAML, or JSON with comments for .json and .jsonc
// files. Reloads are diffed with BLAKE3 digests of each item's
// deterministic CBOR property encoding and of the tree structure, so
// an unchanged save produces no signals, a property edit produces a
// PropertiesUpdated carrying only the changed names, and a structural
// edit bumps the layout revision.
package menuhost
