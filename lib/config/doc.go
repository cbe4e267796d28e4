// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for menu-mirror
// and menu-host.
//
// Configuration comes from a single file named by either the --config
// flag or the MENUMIRROR_CONFIG environment variable. There is no
// ~/.config discovery and no automatic file search; with neither set,
// [Resolve] returns the defaults. Command-line flags override file
// values, applied by the binaries after loading.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${XDG_RUNTIME_DIR}, and ${VAR:-default} patterns are
// expanded. No other environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Remote, Engine, Log, Metrics, Host
//   - [Default] -- returns a Config with the built-in defaults
//   - [Load], [LoadFile], and [Resolve] -- the entry points for loading
//
// This package depends on no other menumirror packages.
package config
