// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/godbus/dbus/v5"

	"github.com/bureau-foundation/menumirror/lib/cli"
	"github.com/bureau-foundation/menumirror/lib/config"
	"github.com/bureau-foundation/menumirror/lib/dbusmenu"
	"github.com/bureau-foundation/menumirror/lib/menu"
	"github.com/bureau-foundation/menumirror/lib/menusocket"
)

// openedRemote is the remote selected by the configuration, plus what
// the command must release when it exits.
type openedRemote struct {
	menu.Remote
	dbus  *dbusmenu.Remote
	close func()
}

// openRemote connects the transport named by cfg.Remote. The caller
// must call close on the result.
func openRemote(cfg *config.Config, logger *slog.Logger) (*openedRemote, error) {
	switch cfg.Remote.Transport {
	case config.TransportSocket:
		if _, err := os.Stat(cfg.Remote.SocketPath); err != nil {
			return nil, cli.NotFound("menu socket %s: %w", cfg.Remote.SocketPath, err).
				WithHint("Start a menu host first, e.g. menu-host --socket " + cfg.Remote.SocketPath + " menu.yaml")
		}
		remote := menusocket.NewRemote(cfg.Remote.SocketPath, logger.With("remote", "socket"))
		return &openedRemote{Remote: remote, close: func() {}}, nil

	default:
		conn, err := dbusmenu.Connect(cfg.Remote.Bus == config.BusSystem)
		if err != nil {
			return nil, cli.Transient("%w", err).
				WithHint("Check that DBUS_SESSION_BUS_ADDRESS is set, or use --bus system.")
		}
		remote := dbusmenu.NewRemote(conn, cfg.Remote.BusName, dbus.ObjectPath(cfg.Remote.ObjectPath),
			logger.With("remote", "dbus", "bus_name", cfg.Remote.BusName))
		return &openedRemote{
			Remote: remote,
			dbus:   remote,
			close: func() {
				if err := conn.Close(); err != nil {
					logger.Debug("closing bus connection failed", "error", err)
				}
			},
		}, nil
	}
}

// describe logs the exported menu's interface properties. Only the
// dbus transport carries them; failures are not fatal since the
// properties are informational.
func (remote *openedRemote) describe(ctx context.Context, logger *slog.Logger) {
	if remote.dbus == nil {
		return
	}
	info, err := remote.dbus.Info(ctx)
	if err != nil {
		logger.Warn("reading menu properties failed", "error", err)
		return
	}
	logger.Info("remote menu",
		"version", info.Version,
		"status", info.Status,
		"text_direction", info.TextDirection,
	)
}
