// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"slices"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/menumirror/lib/cli"
	"github.com/bureau-foundation/menumirror/lib/config"
)

// Dump formats accepted by --dump.
const (
	formatText     = "text"
	formatJSON     = "json"
	formatYAML     = "yaml"
	formatCBORDiag = "cbor-diag"
)

var dumpFormats = []string{formatText, formatJSON, formatYAML, formatCBORDiag}

const defaultSettleTimeout = 10 * time.Second

// mirrorFlags holds the parsed command line. Fields that mirror a
// config value only take effect when the flag was given.
type mirrorFlags struct {
	configPath    string
	transport     string
	bus           string
	busName       string
	objectPath    string
	socketPath    string
	dump          string
	snapshotPath  string
	settleTimeout time.Duration
	metricsListen string
	logLevel      string
	logOutput     string
	maxDepth      int
	batchSize     int
	callTimeout   string
	help          bool
}

func newFlagSet(flags *mirrorFlags) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("menu-mirror", pflag.ContinueOnError)
	flagSet.StringVar(&flags.configPath, "config", "", "path to menumirror.yaml (default: $"+config.EnvironmentVariable+", else built-in defaults)")
	flagSet.StringVar(&flags.transport, "transport", "", "remote transport: dbus or socket")
	flagSet.StringVar(&flags.bus, "bus", "", "message bus for the dbus transport: session or system")
	flagSet.StringVar(&flags.busName, "bus-name", "", "bus name exporting the menu")
	flagSet.StringVar(&flags.objectPath, "object-path", "", "object path of the exported menu")
	flagSet.StringVar(&flags.socketPath, "socket", "", "menu-host socket for the socket transport (implies --transport socket)")
	flagSet.StringVar(&flags.dump, "dump", "", "print the mirrored menu once and exit: text, json, yaml, or cbor-diag")
	flagSet.StringVar(&flags.snapshotPath, "snapshot", "", "write a zstd-compressed CBOR snapshot of the mirrored menu to this file and exit")
	flagSet.DurationVar(&flags.settleTimeout, "settle-timeout", defaultSettleTimeout, "how long --dump and --snapshot wait for the mirror to settle")
	flagSet.StringVar(&flags.metricsListen, "metrics-listen", "", "serve Prometheus metrics at this address")
	flagSet.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, or error")
	flagSet.StringVar(&flags.logOutput, "log-output", "", "also write JSON log records to this file")
	flagSet.IntVar(&flags.maxDepth, "max-depth", 0, "bound on layout recursion and subtree rebuilds")
	flagSet.IntVar(&flags.batchSize, "fetch-batch-size", 0, "maximum ids per property fetch")
	flagSet.StringVar(&flags.callTimeout, "call-timeout", "", "timeout for each remote call, e.g. 5s (default: none)")
	flagSet.BoolVarP(&flags.help, "help", "h", false, "show help")
	return flagSet
}

// oneShot reports whether the command prints or saves the menu and
// exits rather than running the interactive viewer.
func (flags *mirrorFlags) oneShot() bool {
	return flags.dump != "" || flags.snapshotPath != ""
}

// apply overlays the flags that were given, and the positional
// BUS_NAME [OBJECT_PATH], on cfg.
func (flags *mirrorFlags) apply(flagSet *pflag.FlagSet, cfg *config.Config) error {
	if flagSet.Changed("transport") {
		cfg.Remote.Transport = flags.transport
	}
	if flagSet.Changed("bus") {
		cfg.Remote.Bus = flags.bus
	}
	if flagSet.Changed("bus-name") {
		cfg.Remote.BusName = flags.busName
	}
	if flagSet.Changed("object-path") {
		cfg.Remote.ObjectPath = flags.objectPath
	}
	if flagSet.Changed("socket") {
		cfg.Remote.SocketPath = flags.socketPath
		if !flagSet.Changed("transport") {
			cfg.Remote.Transport = config.TransportSocket
		}
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
	if flagSet.Changed("max-depth") {
		cfg.Engine.MaxDepth = flags.maxDepth
	}
	if flagSet.Changed("fetch-batch-size") {
		cfg.Engine.FetchBatchSize = flags.batchSize
	}
	if flagSet.Changed("call-timeout") {
		cfg.Engine.CallTimeout = flags.callTimeout
	}

	args := flagSet.Args()
	if len(args) > 2 {
		return cli.Validation("unexpected argument: %s", args[2])
	}
	if len(args) > 0 {
		cfg.Remote.BusName = args[0]
		if !flagSet.Changed("transport") {
			cfg.Remote.Transport = config.TransportDBus
		}
	}
	if len(args) > 1 {
		cfg.Remote.ObjectPath = args[1]
	}

	if flags.dump != "" && !slices.Contains(dumpFormats, flags.dump) {
		return cli.Validation("unknown dump format %q", flags.dump).
			WithHint("Use --dump text, json, yaml, or cbor-diag.")
	}
	if flags.settleTimeout <= 0 {
		return cli.Validation("--settle-timeout must be positive, got %s", flags.settleTimeout)
	}
	return nil
}
