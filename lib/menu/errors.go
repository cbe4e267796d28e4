// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

import "errors"

var (
	// ErrRemoteCall wraps a failed remote call. The operation is
	// abandoned with state unchanged; the next signal or rediscovery
	// retries naturally.
	ErrRemoteCall = errors.New("remote call failed")

	// ErrMalformedResult reports a successful call whose result has an
	// unexpected shape or is empty. Treated as "no data".
	ErrMalformedResult = errors.New("malformed result")

	// ErrInconsistentSubtree reports an item that cannot be placed
	// because its parent chain cannot be materialized. Only that subtree
	// is abandoned.
	ErrInconsistentSubtree = errors.New("inconsistent subtree")

	// ErrClosed is returned by client methods after Close.
	ErrClosed = errors.New("menu client closed")
)
