// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dbusmenu

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/bureau-foundation/menumirror/lib/menu"
)

// Interface is the D-Bus interface name.
const Interface = "com.canonical.dbusmenu"

// signalBuffer is the capacity of the channel returned by Subscribe.
const signalBuffer = 64

// Remote implements menu.Remote for one exported menu object.
type Remote struct {
	conn        *dbus.Conn
	destination string
	path        dbus.ObjectPath
	object      dbus.BusObject
	logger      *slog.Logger
}

var _ menu.Remote = (*Remote)(nil)

// NewRemote returns a Remote for the menu at path on the bus name
// destination. The caller owns conn.
func NewRemote(conn *dbus.Conn, destination string, path dbus.ObjectPath, logger *slog.Logger) *Remote {
	return &Remote{
		conn:        conn,
		destination: destination,
		path:        path,
		object:      conn.Object(destination, path),
		logger:      logger,
	}
}

// Connect opens the session bus, or the system bus when system is
// true.
func Connect(system bool) (*dbus.Conn, error) {
	if system {
		conn, err := dbus.ConnectSystemBus()
		if err != nil {
			return nil, fmt.Errorf("connecting to the system bus: %w", err)
		}
		return conn, nil
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to the session bus: %w", err)
	}
	return conn, nil
}

func (r *Remote) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	call := r.object.CallWithContext(ctx, Interface+"."+method, 0, args...)
	if call.Err != nil {
		return nil, fmt.Errorf("%s on %s%s: %w", method, r.destination, r.path, call.Err)
	}
	return call.Body, nil
}

// GetLayout implements menu.Remote.
func (r *Remote) GetLayout(ctx context.Context, parent menu.ItemID, depth int32, names []string) (uint32, menu.Layout, error) {
	body, err := r.call(ctx, "GetLayout", int32(parent), depth, nonNil(names))
	if err != nil {
		return 0, menu.Layout{}, err
	}
	return decodeLayoutReply(body)
}

// GetGroupProperties implements menu.Remote.
func (r *Remote) GetGroupProperties(ctx context.Context, ids []menu.ItemID, names []string) ([]menu.ItemProperties, error) {
	wireIDs := make([]int32, len(ids))
	for i, id := range ids {
		wireIDs[i] = int32(id)
	}
	body, err := r.call(ctx, "GetGroupProperties", wireIDs, nonNil(names))
	if err != nil {
		return nil, err
	}
	if len(body) != 1 {
		return nil, malformed("GetGroupProperties reply has %d values", len(body))
	}
	return decodeItemProperties(body[0])
}

// Event implements menu.Remote.
func (r *Remote) Event(ctx context.Context, id menu.ItemID, eventID string, data any, timestamp uint32) error {
	if data == nil {
		data = ""
	}
	_, err := r.call(ctx, "Event", int32(id), eventID, dbus.MakeVariant(data), timestamp)
	return err
}

// AboutToShow implements menu.Remote.
func (r *Remote) AboutToShow(ctx context.Context, id menu.ItemID) (bool, error) {
	body, err := r.call(ctx, "AboutToShow", int32(id))
	if err != nil {
		return false, err
	}
	if len(body) != 1 {
		return false, malformed("AboutToShow reply has %d values", len(body))
	}
	needUpdate, ok := body[0].(bool)
	if !ok {
		return false, malformed("AboutToShow reply is %T", body[0])
	}
	return needUpdate, nil
}

// Subscribe implements menu.Remote. It adds a match rule for the
// menu's signals and filters delivered messages by path, interface,
// and the destination's current unique name.
func (r *Remote) Subscribe(ctx context.Context) (<-chan menu.Signal, error) {
	sender, err := r.owner(ctx)
	if err != nil {
		return nil, err
	}

	options := []dbus.MatchOption{
		dbus.WithMatchObjectPath(r.path),
		dbus.WithMatchInterface(Interface),
		dbus.WithMatchSender(r.destination),
	}
	if err := r.conn.AddMatchSignalContext(ctx, options...); err != nil {
		return nil, fmt.Errorf("adding signal match for %s%s: %w", r.destination, r.path, err)
	}

	messages := make(chan *dbus.Signal, signalBuffer)
	r.conn.Signal(messages)

	signals := make(chan menu.Signal, signalBuffer)
	go func() {
		defer close(signals)
		defer func() {
			r.conn.RemoveSignal(messages)
			if err := r.conn.RemoveMatchSignal(options...); err != nil {
				r.logger.Debug("removing signal match failed", "error", err)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case message, ok := <-messages:
				if !ok {
					r.logger.Warn("D-Bus connection closed", "destination", r.destination)
					return
				}
				if message.Path != r.path || message.Sender != sender {
					continue
				}
				member, found := cutInterface(message.Name)
				if !found {
					continue
				}
				signal, err := decodeSignal(member, message.Body)
				if err != nil {
					r.logger.Warn("dropping malformed signal", "signal", member, "error", err)
					continue
				}
				if signal == nil {
					continue
				}
				select {
				case signals <- signal:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return signals, nil
}

// owner resolves the destination to its unique connection name, which
// is what signal messages carry as their sender.
func (r *Remote) owner(ctx context.Context) (string, error) {
	if len(r.destination) > 0 && r.destination[0] == ':' {
		return r.destination, nil
	}
	var owner string
	err := r.conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.GetNameOwner", 0, r.destination).Store(&owner)
	if err != nil {
		return "", fmt.Errorf("resolving owner of %s: %w", r.destination, err)
	}
	return owner, nil
}

// cutInterface returns the member of a fully qualified signal name on
// the dbusmenu interface.
func cutInterface(name string) (string, bool) {
	prefix := Interface + "."
	if len(name) <= len(prefix) || name[:len(prefix)] != prefix {
		return "", false
	}
	return name[len(prefix):], true
}

// nonNil returns names, or an empty slice for nil. godbus cannot
// encode a nil slice's element type without a value.
func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
