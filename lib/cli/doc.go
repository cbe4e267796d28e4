// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli holds the pieces menu-mirror and menu-host share around
// their entrypoints: structured logger construction (text on a
// terminal, JSON otherwise, optionally fanned out to a log file) and
// categorized command errors with hints.
package cli
