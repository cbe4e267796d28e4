// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/menumirror/lib/cli"
	"github.com/bureau-foundation/menumirror/lib/config"
)

type hostFlags struct {
	configPath    string
	definition    string
	socketPath    string
	watch         bool
	metricsListen string
	logLevel      string
	logOutput     string
	help          bool
}

func newFlagSet(flags *hostFlags) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("menu-host", pflag.ContinueOnError)
	flagSet.StringVar(&flags.configPath, "config", "", "path to menumirror.yaml (default: $"+config.EnvironmentVariable+", else built-in defaults)")
	flagSet.StringVar(&flags.definition, "definition", "", "menu definition file (YAML, or JSONC for .json/.jsonc)")
	flagSet.StringVar(&flags.socketPath, "socket", "", "unix socket to listen on (default: $XDG_RUNTIME_DIR/menumirror.sock)")
	flagSet.BoolVar(&flags.watch, "watch", true, "reload the definition when the file changes")
	flagSet.StringVar(&flags.metricsListen, "metrics-listen", "", "serve Prometheus metrics at this address")
	flagSet.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, or error")
	flagSet.StringVar(&flags.logOutput, "log-output", "", "also write JSON log records to this file")
	flagSet.BoolVarP(&flags.help, "help", "h", false, "show help")
	return flagSet
}

// apply overlays the flags that were given, and the positional
// DEFINITION, on cfg.
func (flags *hostFlags) apply(flagSet *pflag.FlagSet, cfg *config.Config) error {
	if flagSet.Changed("definition") {
		cfg.Host.Definition = flags.definition
	}
	if flagSet.Changed("socket") {
		cfg.Host.SocketPath = flags.socketPath
	}
	if flagSet.Changed("watch") {
		cfg.Host.Watch = flags.watch
	}
	if flagSet.Changed("metrics-listen") {
		cfg.Metrics.Listen = flags.metricsListen
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if flagSet.Changed("log-output") {
		cfg.Log.Output = flags.logOutput
	}

	args := flagSet.Args()
	switch {
	case len(args) > 1:
		return cli.Validation("unexpected argument: %s", args[1])
	case len(args) == 1 && flagSet.Changed("definition"):
		return cli.Validation("definition given twice: --definition %s and %s", flags.definition, args[0])
	case len(args) == 1:
		cfg.Host.Definition = args[0]
	}
	return nil
}
