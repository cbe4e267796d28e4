// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the binary entrypoint helper for the
// menumirror commands: fatal error reporting to stderr after run()
// returns, when the structured logger may not exist or may be bound to
// a terminal UI that has already shut down.
package process
