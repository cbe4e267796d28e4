// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menuhost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bureau-foundation/menumirror/lib/clock"
	"github.com/bureau-foundation/menumirror/lib/menu"
)

// ErrUnknownItem is returned for operations on an id the current
// definition does not contain.
var ErrUnknownItem = errors.New("unknown menu item")

// DefaultSubscriberBuffer is the signal buffer of each subscription.
const DefaultSubscriberBuffer = 64

// Options configures a Host.
type Options struct {
	// Logger receives load, event, and subscription diagnostics.
	// Defaults to a discarding logger.
	Logger *slog.Logger

	// Clock drives the reload debounce of Watch. Defaults to
	// clock.Real().
	Clock clock.Clock

	// Registerer, if non-nil, receives the host's event counter.
	Registerer prometheus.Registerer

	// SubscriberBuffer is the number of signals a subscriber may fall
	// behind before it is disconnected. Defaults to
	// DefaultSubscriberBuffer.
	SubscriberBuffer int
}

// Host is an authoritative in-memory menu. It implements menu.Remote,
// so it can be mirrored in-process or exposed on a socket with
// menusocket.Register.
//
// The menu comes from a Definition passed to Load. Every reload is
// diffed against the current menu: structural changes bump the layout
// revision and broadcast LayoutUpdated for the root, and property
// changes on surviving items broadcast PropertiesUpdated with only the
// changed and removed names.
//
// Clicking a checkmark item flips its toggle-state; clicking a radio
// item turns it on and its radio siblings off. Both changes are
// broadcast like a reload.
type Host struct {
	logger           *slog.Logger
	clock            clock.Clock
	events           *prometheus.CounterVec
	subscriberBuffer int

	mu          sync.Mutex
	revision    uint32
	current     *tree
	paths       map[string]menu.ItemID
	nextID      menu.ItemID
	subscribers map[chan menu.Signal]struct{}
}

var _ menu.Remote = (*Host)(nil)

// New returns a Host serving an empty menu at revision 1.
func New(options Options) (*Host, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	hostClock := options.Clock
	if hostClock == nil {
		hostClock = clock.Real()
	}
	buffer := options.SubscriberBuffer
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "menuhost",
		Name:      "events_total",
		Help:      "Menu events received, by event id.",
	}, []string{"event"})
	if options.Registerer != nil {
		if err := options.Registerer.Register(events); err != nil {
			return nil, fmt.Errorf("registering menu host metrics: %w", err)
		}
	}

	empty, err := newTree(&Definition{}, nil)
	if err != nil {
		return nil, err
	}
	return &Host{
		logger:           logger,
		clock:            hostClock,
		events:           events,
		subscriberBuffer: buffer,
		revision:         1,
		current:          empty,
		paths:            make(map[string]menu.ItemID),
		nextID:           1,
		subscribers:      make(map[chan menu.Signal]struct{}),
	}, nil
}

// Revision returns the current layout revision.
func (h *Host) Revision() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.revision
}

// Lookup returns the id of the item reached by following labels from
// the root, matching each label exactly.
func (h *Host) Lookup(labels ...string) (menu.ItemID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := menu.RootID
	for _, label := range labels {
		found := false
		for _, child := range h.current.nodes[id].children {
			if h.current.nodes[child].properties.String(menu.PropertyLabel) == label {
				id, found = child, true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	return id, true
}

// Load replaces the served menu with definition and broadcasts the
// difference to subscribers.
func (h *Host) Load(definition *Definition) error {
	if err := definition.Validate(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	assigner := newIDAssigner(definition, h.paths, h.nextID)
	next, err := newTree(definition, assigner)
	if err != nil {
		return err
	}

	changes, err := diffTrees(h.current, next)
	if err != nil {
		return err
	}
	h.current = next
	h.paths = assigner.paths
	h.nextID = assigner.nextFree()

	h.publishLocked(changes)
	h.logger.Info("menu loaded",
		"revision", h.revision,
		"items", len(next.nodes)-1,
		"structural", changes.structural,
		"changed_items", len(changes.updated)+len(changes.removed),
	)
	return nil
}

// LoadFile reads a definition file and loads it.
func (h *Host) LoadFile(path string) error {
	definition, err := ReadDefinition(path)
	if err != nil {
		return err
	}
	return h.Load(definition)
}

// publishLocked broadcasts changes, bumping the revision first when
// the structure changed. Property updates go out before the layout
// notification so a mirror re-reading the layout already holds the
// new values of surviving items.
func (h *Host) publishLocked(changes treeChanges) {
	if len(changes.updated) > 0 || len(changes.removed) > 0 {
		h.broadcastLocked(menu.PropertiesUpdated{Updated: changes.updated, Removed: changes.removed})
	}
	if changes.structural {
		h.revision++
		h.broadcastLocked(menu.LayoutUpdated{Revision: h.revision, Parent: menu.RootID})
	}
}

// GetLayout implements menu.Remote.
func (h *Host) GetLayout(ctx context.Context, parent menu.ItemID, depth int32, names []string) (uint32, menu.Layout, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.current.nodes[parent]; !exists {
		return 0, menu.Layout{}, fmt.Errorf("%w: %d", ErrUnknownItem, parent)
	}
	return h.revision, h.current.layout(parent, depth, names), nil
}

// GetGroupProperties implements menu.Remote. Unknown ids are left out
// of the result.
func (h *Host) GetGroupProperties(ctx context.Context, ids []menu.ItemID, names []string) ([]menu.ItemProperties, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	result := make([]menu.ItemProperties, 0, len(ids))
	for _, id := range ids {
		node, exists := h.current.nodes[id]
		if !exists {
			continue
		}
		result = append(result, menu.ItemProperties{ID: id, Properties: filterProperties(node.properties, names)})
	}
	return result, nil
}

// Event implements menu.Remote.
func (h *Host) Event(ctx context.Context, id menu.ItemID, eventID string, data any, timestamp uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	node, exists := h.current.nodes[id]
	if !exists {
		return fmt.Errorf("%w: %d", ErrUnknownItem, id)
	}
	h.events.WithLabelValues(eventID).Inc()
	h.logger.Info("menu event",
		"id", id,
		"label", node.properties.String(menu.PropertyLabel),
		"event", eventID,
		"timestamp", timestamp,
	)
	if eventID == menu.EventClicked {
		h.toggleLocked(id)
	}
	return nil
}

// toggleLocked applies click semantics to toggle items.
func (h *Host) toggleLocked(id menu.ItemID) {
	node := h.current.nodes[id]
	var updated []menu.ItemProperties
	set := func(id menu.ItemID, on bool) {
		state := int32(0)
		if on {
			state = 1
		}
		target := h.current.nodes[id]
		if target.properties.ToggleOn() == on {
			return
		}
		target.properties[menu.PropertyToggleState] = state
		target.digest = digestProperties(target.properties)
		updated = append(updated, menu.ItemProperties{ID: id, Properties: menu.Properties{menu.PropertyToggleState: state}})
	}

	switch node.properties.String(menu.PropertyToggleType) {
	case menu.ToggleTypeCheckmark:
		set(id, !node.properties.ToggleOn())
	case menu.ToggleTypeRadio:
		for _, sibling := range h.current.nodes[node.parent].children {
			if h.current.nodes[sibling].properties.String(menu.PropertyToggleType) == menu.ToggleTypeRadio {
				set(sibling, sibling == id)
			}
		}
	default:
		return
	}
	if len(updated) > 0 {
		h.broadcastLocked(menu.PropertiesUpdated{Updated: updated})
	}
}

// AboutToShow implements menu.Remote. It answers true for items
// defined with about_to_show_refresh.
func (h *Host) AboutToShow(ctx context.Context, id menu.ItemID) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	node, exists := h.current.nodes[id]
	if !exists {
		return false, fmt.Errorf("%w: %d", ErrUnknownItem, id)
	}
	return node.refresh, nil
}

// Subscribe implements menu.Remote. The channel is closed when ctx is
// cancelled, or early if the subscriber falls more than the configured
// buffer behind.
func (h *Host) Subscribe(ctx context.Context) (<-chan menu.Signal, error) {
	signals := make(chan menu.Signal, h.subscriberBuffer)
	h.mu.Lock()
	h.subscribers[signals] = struct{}{}
	count := len(h.subscribers)
	h.mu.Unlock()
	h.logger.Debug("subscriber added", "subscribers", count)

	context.AfterFunc(ctx, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.dropLocked(signals)
	})
	return signals, nil
}

func (h *Host) broadcastLocked(signal menu.Signal) {
	for subscriber := range h.subscribers {
		select {
		case subscriber <- signal:
		default:
			h.logger.Warn("disconnecting slow subscriber", "buffer", h.subscriberBuffer)
			h.dropLocked(subscriber)
		}
	}
}

func (h *Host) dropLocked(subscriber chan menu.Signal) {
	if _, exists := h.subscribers[subscriber]; !exists {
		return
	}
	delete(h.subscribers, subscriber)
	close(subscriber)
}

// filterProperties copies the named properties, or all of them when
// names is empty.
func filterProperties(properties menu.Properties, names []string) menu.Properties {
	if len(names) == 0 {
		return properties.Clone()
	}
	filtered := make(menu.Properties, len(names))
	for name, value := range properties.Clone() {
		if slices.Contains(names, name) {
			filtered[name] = value
		}
	}
	return filtered
}
