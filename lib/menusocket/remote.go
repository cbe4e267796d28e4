// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menusocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/bureau-foundation/menumirror/lib/menu"
	"github.com/bureau-foundation/menumirror/lib/service"
)

// signalBuffer is the capacity of the channel returned by Subscribe.
const signalBuffer = 64

// Remote implements menu.Remote against a menu served on a socket.
type Remote struct {
	client *service.ServiceClient
	logger *slog.Logger
}

var _ menu.Remote = (*Remote)(nil)

// NewRemote returns a Remote for the socket at socketPath. No
// connection is made until the first call.
func NewRemote(socketPath string, logger *slog.Logger) *Remote {
	return &Remote{
		client: service.NewServiceClient(socketPath),
		logger: logger,
	}
}

// GetLayout implements menu.Remote.
func (r *Remote) GetLayout(ctx context.Context, parent menu.ItemID, depth int32, names []string) (uint32, menu.Layout, error) {
	var response layoutResponse
	err := r.client.Call(ctx, ActionGetLayout, map[string]any{
		"parent": int32(parent),
		"depth":  depth,
		"names":  names,
	}, &response)
	if err != nil {
		return 0, menu.Layout{}, err
	}
	return response.Revision, decodeLayout(response.Layout), nil
}

// GetGroupProperties implements menu.Remote.
func (r *Remote) GetGroupProperties(ctx context.Context, ids []menu.ItemID, names []string) ([]menu.ItemProperties, error) {
	var response []itemProperties
	err := r.client.Call(ctx, ActionGetGroupProperties, map[string]any{
		"ids":   encodeIDs(ids),
		"names": names,
	}, &response)
	if err != nil {
		return nil, err
	}
	return decodeItems(response), nil
}

// Event implements menu.Remote.
func (r *Remote) Event(ctx context.Context, id menu.ItemID, eventID string, data any, timestamp uint32) error {
	return r.client.Call(ctx, ActionEvent, map[string]any{
		"id":        int32(id),
		"event_id":  eventID,
		"data":      data,
		"timestamp": timestamp,
	}, nil)
}

// AboutToShow implements menu.Remote.
func (r *Remote) AboutToShow(ctx context.Context, id menu.ItemID) (bool, error) {
	var response aboutToShowResponse
	if err := r.client.Call(ctx, ActionAboutToShow, map[string]any{"id": int32(id)}, &response); err != nil {
		return false, err
	}
	return response.NeedUpdate, nil
}

// Subscribe implements menu.Remote. The returned channel is closed
// when ctx is cancelled or the server ends the stream; the stream is
// not reopened.
func (r *Remote) Subscribe(ctx context.Context) (<-chan menu.Signal, error) {
	stream, err := r.client.OpenStream(ctx, ActionSubscribe, nil)
	if err != nil {
		return nil, err
	}

	signals := make(chan menu.Signal, signalBuffer)
	go func() {
		defer close(signals)
		defer stream.Close()
		for {
			var frame signalFrame
			if err := stream.Receive(&frame); err != nil {
				if ctx.Err() == nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
					r.logger.Warn("signal stream failed", "socket", r.client.SocketPath(), "error", err)
				} else {
					r.logger.Debug("signal stream ended", "socket", r.client.SocketPath())
				}
				return
			}
			signal, err := decodeSignal(frame)
			if err != nil {
				r.logger.Warn("dropping signal frame", "error", err)
				continue
			}
			select {
			case signals <- signal:
			case <-ctx.Done():
				return
			}
		}
	}()
	return signals, nil
}

// String identifies the remote in logs.
func (r *Remote) String() string {
	return fmt.Sprintf("socket %s", r.client.SocketPath())
}
