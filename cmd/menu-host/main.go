// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// menu-host serves a menu definition file on a unix socket for
// menu-mirror's socket transport.
//
// The definition is YAML (or JSONC for .json/.jsonc files) describing
// the menu items, their properties, and their submenus. menu-host keeps
// the menu in memory, answers layout and property requests, toggles
// checkmark and radio items when they are clicked, and broadcasts
// change signals to every connected mirror. With --watch (the default)
// it reloads the definition when the file changes; items keep their ids
// across reloads, so mirrors see a minimal set of updates.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/menumirror/lib/cli"
	"github.com/bureau-foundation/menumirror/lib/config"
	"github.com/bureau-foundation/menumirror/lib/menuhost"
	"github.com/bureau-foundation/menumirror/lib/menusocket"
	"github.com/bureau-foundation/menumirror/lib/process"
	"github.com/bureau-foundation/menumirror/lib/service"
	"github.com/bureau-foundation/menumirror/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var flags hostFlags
	flagSet := newFlagSet(&flags)

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("menu-host")
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
	if err := cfg.ValidateHost(); err != nil {
		return cli.Validation("invalid configuration:\n%w", err).
			WithHint("Pass the menu definition file as an argument: menu-host menu.yaml")
	}

	level, _ := cfg.LogLevel()
	handler := cli.NewStderrHandler(level)
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

	return serve(ctx, cfg, logger)
}

// serve loads the definition and serves it until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	registry := prometheus.NewRegistry()
	host, err := menuhost.New(menuhost.Options{
		Logger:     logger,
		Registerer: registry,
	})
	if err != nil {
		return cli.Internal("creating menu host: %w", err)
	}
	if err := host.LoadFile(cfg.Host.Definition); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cli.NotFound("%w", err)
		}
		return cli.Validation("%w", err)
	}

	if cfg.Metrics.Listen != "" {
		if _, _, err := cli.ServeMetrics(ctx, cfg.Metrics.Listen, registry, logger); err != nil {
			return cli.Validation("%w", err)
		}
	}

	server := service.NewSocketServer(cfg.Host.SocketPath, logger)
	menusocket.Register(server, host, logger)

	var wg sync.WaitGroup
	defer wg.Wait()
	if cfg.Host.Watch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := host.Watch(ctx, cfg.Host.Definition); err != nil && ctx.Err() == nil {
				logger.Error("watching definition failed; reloads disabled", "path", cfg.Host.Definition, "error", err)
			}
		}()
	}

	logger.Info("serving menu",
		"definition", cfg.Host.Definition,
		"socket", cfg.Host.SocketPath,
		"revision", host.Revision(),
		"watch", cfg.Host.Watch,
	)
	if err := server.Serve(ctx); err != nil {
		return cli.Transient("serving %s: %w", cfg.Host.SocketPath, err)
	}
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `menu-host: serve a menu definition on a unix socket.

menu-mirror connects with --socket. Clicking checkmark and radio items
toggles them; with --watch (the default) edits to the definition file
are pushed to connected mirrors as they are saved.

Configuration comes from --config, else $%s, else built-in
defaults. Flags override configuration values.

Usage:
  menu-host [flags] [DEFINITION]

Examples:
  # Serve a menu and mirror it
  menu-host menu.yaml &
  menu-mirror --socket $XDG_RUNTIME_DIR/menumirror.sock

  # Serve on a specific socket without reloading
  menu-host --socket /tmp/demo.sock --watch=false menu.jsonc

Flags:
`, config.EnvironmentVariable)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
