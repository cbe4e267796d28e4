// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// menu-mirror mirrors a remote menu and shows it in the terminal.
//
// The remote menu is either exported on D-Bus with the
// com.canonical.dbusmenu interface (the default transport), or served
// on a unix socket by menu-host. menu-mirror keeps a live copy of the
// menu: layout and property changes appear as they happen, and
// activating an item sends the click back to the application.
//
// Two modes of operation:
//
// Interactive (default on a terminal): a full-screen viewer. Warnings
// and errors appear in the status bar; --log-output captures every
// record as JSON.
//
// One-shot (--dump, --snapshot, or stdout not a terminal): waits for
// the mirror to settle, prints or saves the menu, and exits.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/menumirror/lib/cli"
	"github.com/bureau-foundation/menumirror/lib/config"
	"github.com/bureau-foundation/menumirror/lib/menu"
	"github.com/bureau-foundation/menumirror/lib/menutui"
	"github.com/bureau-foundation/menumirror/lib/process"
	"github.com/bureau-foundation/menumirror/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var flags mirrorFlags
	flagSet := newFlagSet(&flags)

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("menu-mirror")
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return cli.Validation("%w", err)
	}
	if flags.help {
		printHelp(flagSet)
		return nil
	}

	cfg, err := config.Resolve(flags.configPath)
	if err != nil {
		return cli.Validation("loading config: %w", err)
	}
	if err := flags.apply(flagSet, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return cli.Validation("invalid configuration:\n%w", err).
			WithHint("Name the menu with BUS_NAME OBJECT_PATH, or use --socket for a menu-host.")
	}
	if !flags.oneShot() && !term.IsTerminal(int(os.Stdout.Fd())) {
		flags.dump = formatText
	}

	level, _ := cfg.LogLevel()
	callTimeout, _ := cfg.CallTimeoutDuration()

	// In the viewer, records go to the status bar; stderr belongs to
	// the alternate screen.
	var tuiHandler *menutui.TUILogHandler
	var handler slog.Handler
	if flags.oneShot() {
		handler = cli.NewStderrHandler(level)
	} else {
		tuiHandler = menutui.NewTUILogHandler(slog.LevelWarn)
		handler = tuiHandler
	}
	if cfg.Log.Output != "" {
		fileHandler, closeFile, err := cli.OpenFileLogHandler(cfg.Log.Output, level)
		if err != nil {
			return cli.Validation("cannot open log file %s: %w", cfg.Log.Output, err)
		}
		defer closeFile()
		handler = cli.FanoutHandler{handler, fileHandler}
	}
	logger := slog.New(handler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := menu.NewMetrics(registry)
	if err != nil {
		return cli.Internal("registering metrics: %w", err)
	}
	if cfg.Metrics.Listen != "" {
		if _, _, err := cli.ServeMetrics(ctx, cfg.Metrics.Listen, registry, logger); err != nil {
			return cli.Validation("%w", err)
		}
	}

	remote, err := openRemote(cfg, logger)
	if err != nil {
		return err
	}
	defer remote.close()

	tree := menutui.NewTree()
	client := menu.New(remote, tree, menu.Options{
		Logger:         logger,
		Metrics:        metrics,
		MaxDepth:       cfg.Engine.MaxDepth,
		FetchBatchSize: cfg.Engine.FetchBatchSize,
		CallTimeout:    callTimeout,
	})
	if err := client.Start(ctx); err != nil {
		return cli.Transient("subscribing to the menu: %w", err)
	}
	defer func() {
		client.Close()
		<-client.Done()
	}()
	remote.describe(ctx, logger)

	if flags.oneShot() {
		return runOnce(ctx, &flags, client, tree)
	}
	return runViewer(ctx, client, tree, tuiHandler, logger)
}

// runOnce waits for the mirror to settle and prints or saves it.
func runOnce(ctx context.Context, flags *mirrorFlags, client *menu.Client, tree *menutui.Tree) error {
	settleCtx, cancel := context.WithTimeout(ctx, flags.settleTimeout)
	defer cancel()
	if err := client.WaitIdle(settleCtx); err != nil {
		return cli.Transient("waiting for the menu to settle: %w", err).
			WithHint("A slow application may need a longer --settle-timeout.")
	}
	if summary, ok := client.Root(); ok {
		tree.SetRoot(summary)
	}
	snapshot, err := client.Snapshot(ctx)
	if err != nil {
		return cli.Internal("copying the mirrored menu: %w", err)
	}

	if flags.snapshotPath != "" {
		if err := writeSnapshotFile(flags.snapshotPath, snapshot); err != nil {
			return err
		}
	}
	if flags.dump != "" {
		return writeDump(os.Stdout, flags.dump, tree, snapshot)
	}
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `menu-mirror: show a live copy of an application's menu.

Mirrors a menu exported on D-Bus (com.canonical.dbusmenu) or served by
menu-host on a unix socket. On a terminal it opens an interactive
viewer; with --dump or --snapshot, or when stdout is not a terminal, it
prints or saves the settled menu and exits.

Configuration comes from --config, else $%s, else built-in
defaults. Flags override configuration values.

Usage:
  menu-mirror [flags] [BUS_NAME [OBJECT_PATH]]

Examples:
  # Browse an application's menu on the session bus
  menu-mirror org.example.Editor /MenuBar

  # Print a menu-host's menu as JSON
  menu-mirror --socket $XDG_RUNTIME_DIR/menumirror.sock --dump json

  # Save a compressed snapshot for a bug report
  menu-mirror --snapshot menu.cbor.zst org.example.Editor /MenuBar

Viewer keys:
  j/k, up/down    move        enter, space   activate or open
  h/l             collapse/expand             /  filter
  r               reload      q              quit

Flags:
`, config.EnvironmentVariable)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
