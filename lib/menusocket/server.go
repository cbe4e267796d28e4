// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menusocket

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/bureau-foundation/menumirror/lib/codec"
	"github.com/bureau-foundation/menumirror/lib/menu"
	"github.com/bureau-foundation/menumirror/lib/service"
)

// frameWriteTimeout bounds each signal frame write so a stalled
// subscriber cannot hold a stream goroutine forever.
const frameWriteTimeout = 10 * time.Second

// Register exposes source on server under the menusocket actions.
func Register(server *service.SocketServer, source menu.Remote, logger *slog.Logger) {
	server.Handle(ActionGetLayout, func(ctx context.Context, raw []byte) (any, error) {
		var request layoutRequest
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, fmt.Errorf("decoding %s request: %w", ActionGetLayout, err)
		}
		revision, layout, err := source.GetLayout(ctx, menu.ItemID(request.Parent), request.Depth, request.Names)
		if err != nil {
			return nil, err
		}
		return layoutResponse{Revision: revision, Layout: encodeLayout(layout)}, nil
	})

	server.Handle(ActionGetGroupProperties, func(ctx context.Context, raw []byte) (any, error) {
		var request groupRequest
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, fmt.Errorf("decoding %s request: %w", ActionGetGroupProperties, err)
		}
		items, err := source.GetGroupProperties(ctx, decodeIDs(request.IDs), request.Names)
		if err != nil {
			return nil, err
		}
		return encodeItems(items), nil
	})

	server.Handle(ActionEvent, func(ctx context.Context, raw []byte) (any, error) {
		var request eventRequest
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, fmt.Errorf("decoding %s request: %w", ActionEvent, err)
		}
		return nil, source.Event(ctx, menu.ItemID(request.ID), request.EventID, NormalizeValue(request.Data), request.Timestamp)
	})

	server.Handle(ActionAboutToShow, func(ctx context.Context, raw []byte) (any, error) {
		var request aboutToShowRequest
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, fmt.Errorf("decoding %s request: %w", ActionAboutToShow, err)
		}
		needUpdate, err := source.AboutToShow(ctx, menu.ItemID(request.ID))
		if err != nil {
			return nil, err
		}
		return aboutToShowResponse{NeedUpdate: needUpdate}, nil
	})

	server.HandleStream(ActionSubscribe, func(ctx context.Context, raw []byte, conn net.Conn) {
		serveSignals(ctx, source, conn, logger)
	})
}

// serveSignals copies source's signals onto conn until the server
// shuts down, the subscriber disconnects, or a write fails.
func serveSignals(ctx context.Context, source menu.Remote, conn net.Conn, logger *slog.Logger) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Subscribers never write after the request; a read returning
	// means the peer went away.
	go func() {
		io.Copy(io.Discard, conn)
		cancel()
	}()

	signals, err := source.Subscribe(ctx)
	if err != nil {
		logger.Warn("subscribe failed", "error", err)
		return
	}

	encoder := codec.NewEncoder(conn)
	for {
		select {
		case <-ctx.Done():
			return
		case signal, ok := <-signals:
			if !ok {
				return
			}
			frame, err := encodeSignal(signal)
			if err != nil {
				logger.Warn("dropping signal", "error", err)
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(frameWriteTimeout))
			if err := encoder.Encode(frame); err != nil {
				logger.Debug("subscriber write failed", "error", err)
				return
			}
		}
	}
}
