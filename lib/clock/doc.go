// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Code that stamps activation events or debounces file reloads accepts
// a Clock instead of calling time.Now or time.AfterFunc directly. In
// production, Real() provides the standard library behavior. In tests,
// Fake() provides a clock that advances only when Advance is called:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	host := menuhost.New(menuhost.Options{Clock: c})
//	// ... trigger a reload ...
//	c.WaitForTimers(1)
//	c.Advance(50 * time.Millisecond) // fire the debounce deterministically
package clock
