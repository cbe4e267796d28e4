// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package menusocket carries the com.canonical.dbusmenu operations
// over the CBOR socket protocol of lib/service.
//
// Register exposes any menu.Remote (normally a lib/menuhost Host) on a
// service.SocketServer; Remote is the client half and implements
// menu.Remote, so a menu.Client can mirror a menu served by another
// process without a D-Bus session.
//
// Actions:
//
//	get-layout            {parent, depth, names}  → {revision, layout}
//	get-group-properties  {ids, names}            → [{id, properties}]
//	event                 {id, event_id, data, timestamp}
//	about-to-show         {id}                    → {need_update}
//	subscribe (stream)    → signal frames until either side closes
//
// Property values cross the wire as plain CBOR. Decoding loses the
// concrete Go types (integers arrive as int64 or uint64, string lists
// as []any), so the client normalizes every property bag before
// handing it to the engine.
package menusocket
