// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the CBOR-over-Unix-socket protocol used
// between menu-host and menu-mirror.
//
// Every connection carries exactly one CBOR request map with an
// "action" field. Request-response actions (registered with
// SocketServer.Handle) answer with one envelope:
//
//	{ok: true, data: <cbor>}    success, data optional
//	{ok: false, error: "..."}   failure
//
// Stream actions (SocketServer.HandleStream) answer with {ok: true}
// and then keep the connection open, writing a sequence of CBOR
// frames until the handler returns or the server shuts down.
//
// ServiceClient is the matching client: Call for request-response
// actions, OpenStream for streams. The package knows nothing about
// menus; lib/menusocket defines the actions.
package service
