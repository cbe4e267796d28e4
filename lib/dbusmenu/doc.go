// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dbusmenu implements menu.Remote over D-Bus, speaking the
// com.canonical.dbusmenu interface exported by applications and status
// notifier items.
//
// Replies are read from godbus' generic representation (the call body
// as []interface{}, structs as []interface{}, variants as
// dbus.Variant) and unwrapped into plain Go values. Shapes that do not
// match the interface signature are reported as
// menu.ErrMalformedResult.
package dbusmenu
