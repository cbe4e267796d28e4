// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package menu mirrors a remote com.canonical.dbusmenu tree into a
// local incremental tree and drives a renderer from it.
//
// The remote side exposes a lazily fetchable hierarchy: a versioned
// layout (ids and child lists), per-item property bags fetched on
// demand, and signals announcing layout and property changes. A
// [Client] keeps a [Store] eventually consistent with that hierarchy
// and tells a [Renderer] what to build, replace, update in place, and
// destroy.
//
// # Execution model
//
// Every mutation of the store and of the rendered item table happens
// on a single goroutine, the client's run loop. Remote calls run on
// short-lived goroutines and post their completion back onto the
// loop, so the store needs no locking and continuations observe a
// consistent tree. Out-of-order and duplicate responses are made
// harmless by the revision check (layouts) and by in-flight
// deduplication (property fetches), not by sequencing calls.
//
// After [Client.Close], late completions are dropped without touching
// state.
//
// # Synchronization
//
// A layout response is applied only if its revision is newer than the
// last applied one. Applying it walks the returned tree, overwrites
// child lists, records parents, schedules one coalesced property fetch
// for every newly discovered id, rebuilds the affected subtree, and
// then runs a mark-and-sweep collection that destroys items no longer
// reachable from the root.
//
// Items whose properties have not arrived yet are structurally present
// but not rendered. When their properties arrive they are inserted in
// place: the insertion index is the number of earlier siblings that are
// already rendered, which keeps display order stable under partial
// knowledge.
//
// # Errors
//
// Nothing in this package is fatal. Remote failures, malformed results,
// and subtrees that cannot be materialized are logged and leave the
// affected items stale until the next signal or rediscovery.
package menu
