// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net"
	"sync"
	"time"

	"github.com/bureau-foundation/menumirror/lib/codec"
)

// dialTimeout is the maximum time to wait for a connection to the
// service socket. This is separate from the server's read/write
// timeouts: it covers only the connect phase.
const dialTimeout = 5 * time.Second

// responseReadTimeout is how long the client waits for the server to
// send a response after writing the request. Matched to the server's
// readTimeout + writeTimeout to account for handler execution time.
const responseReadTimeout = 45 * time.Second

// maxResponseSize is the maximum size of a single CBOR response.
// Matches the server's maxRequestSize for symmetry.
const maxResponseSize = 1024 * 1024

// ServiceError is returned by Call and OpenStream when the server
// responds with ok=false. It wraps the server's error message and the
// action that failed.
type ServiceError struct {
	Action  string
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error on %q: %s", e.Action, e.Message)
}

// ServiceClient sends CBOR requests to a service socket. Each Call
// opens a new connection (matching the server's one-request-per-
// connection model), sends the request, reads the response, and
// closes the connection.
type ServiceClient struct {
	socketPath string
}

// NewServiceClient creates a client for the socket at socketPath. No
// connection is made until the first Call.
func NewServiceClient(socketPath string) *ServiceClient {
	return &ServiceClient{socketPath: socketPath}
}

// SocketPath returns the socket the client connects to.
func (c *ServiceClient) SocketPath() string {
	return c.socketPath
}

// Call sends a CBOR request to the service and decodes the response.
//
// The fields parameter may contain any handler-specific request
// fields; the client adds "action" automatically. Pass nil for
// actions that take no additional parameters.
//
// On success (response ok=true), if result is non-nil and the
// response contains data, the data is CBOR-decoded into result.
//
// On failure (response ok=false), returns a *ServiceError containing
// the server's error message. Connection and encoding errors are
// returned as plain errors (not *ServiceError).
func (c *ServiceClient) Call(ctx context.Context, action string, fields map[string]any, result any) error {
	conn, err := c.dial(ctx, action, fields)
	if err != nil {
		return fmt.Errorf("calling %q on %s: %w", action, c.socketPath, err)
	}
	defer conn.Close()

	// Half-close the write side. CBOR is self-delimiting so this
	// isn't strictly necessary, but it lets the server's read side
	// see EOF cleanly.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	// Unblock the read if the caller gives up.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	conn.SetReadDeadline(time.Now().Add(responseReadTimeout))
	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("calling %q on %s: %w", action, c.socketPath, ctx.Err())
		}
		return fmt.Errorf("calling %q on %s: reading response: %w", action, c.socketPath, err)
	}

	if !response.OK {
		return &ServiceError{
			Action:  action,
			Message: response.Error,
		}
	}

	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", action, err)
		}
	}

	return nil
}

// OpenStream sends a request for a stream action and returns the
// stream once the server has acknowledged it. The stream stays open
// until Close is called, ctx is cancelled, or the server ends it.
func (c *ServiceClient) OpenStream(ctx context.Context, action string, fields map[string]any) (*Stream, error) {
	conn, err := c.dial(ctx, action, fields)
	if err != nil {
		return nil, fmt.Errorf("opening stream %q on %s: %w", action, c.socketPath, err)
	}

	conn.SetReadDeadline(time.Now().Add(responseReadTimeout))
	decoder := codec.NewDecoder(conn)
	var response Response
	if err := decoder.Decode(&response); err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening stream %q on %s: reading acknowledgement: %w", action, c.socketPath, err)
	}
	if !response.OK {
		conn.Close()
		return nil, &ServiceError{Action: action, Message: response.Error}
	}
	conn.SetReadDeadline(time.Time{})

	return &Stream{
		conn:    conn,
		decoder: decoder,
		stop:    context.AfterFunc(ctx, func() { conn.Close() }),
	}, nil
}

// buildRequest constructs the CBOR request map from the caller's
// fields plus "action".
func buildRequest(action string, fields map[string]any) map[string]any {
	request := make(map[string]any, len(fields)+1)
	maps.Copy(request, fields)
	request["action"] = action
	return request
}

// dial connects to the socket and writes the request.
func (c *ServiceClient) dial(ctx context.Context, action string, fields map[string]any) (net.Conn, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(buildRequest(action, fields)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("writing request: %w", err)
	}
	conn.SetWriteDeadline(time.Time{})
	return conn, nil
}

// Stream is the client side of a stream action: a sequence of CBOR
// frames read from one connection. Receive is not safe for concurrent
// use; Close may be called from any goroutine.
type Stream struct {
	conn      net.Conn
	decoder   *codec.Decoder
	stop      func() bool
	closeOnce sync.Once
}

// Receive decodes the next frame into v. It returns io.EOF when the
// server ends the stream, and a net.ErrClosed error after Close.
func (s *Stream) Receive(v any) error {
	return s.decoder.Decode(v)
}

// Close closes the connection, unblocking a pending Receive.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.stop()
		err = s.conn.Close()
	})
	return err
}
