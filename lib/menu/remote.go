// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

import "context"

// Remote is the com.canonical.dbusmenu method and signal contract the
// engine depends on. Implementations translate it onto a transport:
// see packages dbusmenu (D-Bus) and menusocket (CBOR over a Unix
// socket).
//
// Every method may be called concurrently from several goroutines and
// must honor ctx cancellation.
type Remote interface {
	// GetLayout returns the layout revision and the subtree rooted at
	// parent. depth -1 requests unlimited recursion; names restricts
	// the properties included with each element.
	GetLayout(ctx context.Context, parent ItemID, depth int32, names []string) (uint32, Layout, error)

	// GetGroupProperties returns property bags for ids. An empty names
	// list requests every property.
	GetGroupProperties(ctx context.Context, ids []ItemID, names []string) ([]ItemProperties, error)

	// Event delivers a UI event (such as EventClicked) for id.
	Event(ctx context.Context, id ItemID, eventID string, data any, timestamp uint32) error

	// AboutToShow tells the remote side that id is about to be opened.
	// It returns true when the remote side wants the subtree re-read.
	AboutToShow(ctx context.Context, id ItemID) (bool, error)

	// Subscribe starts signal delivery. The channel is closed when ctx
	// is cancelled or the transport fails.
	Subscribe(ctx context.Context) (<-chan Signal, error)
}

// Signal is a remote change notification. The set of implementations
// is closed: PropertiesUpdated, LayoutUpdated, ItemUpdated, and
// ActivationRequested.
type Signal interface {
	signal()
}

// PropertiesUpdated carries ItemsPropertiesUpdated: new values for
// some properties and the names of removed ones.
type PropertiesUpdated struct {
	Updated []ItemProperties
	Removed []RemovedProperties
}

// LayoutUpdated carries LayoutUpdated: the subtree under Parent changed
// and the layout is now at Revision.
type LayoutUpdated struct {
	Revision uint32
	Parent   ItemID
}

// ItemUpdated carries the non-standard ItemUpdated signal: re-read the
// properties of ID.
type ItemUpdated struct {
	ID ItemID
}

// ActivationRequested carries ItemActivationRequested: the remote side
// asks the presentation layer to activate ID (for example to open a
// submenu from a global shortcut).
type ActivationRequested struct {
	ID        ItemID
	Timestamp uint32
}

func (PropertiesUpdated) signal()   {}
func (LayoutUpdated) signal()       {}
func (ItemUpdated) signal()         {}
func (ActivationRequested) signal() {}
