// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"

	"github.com/bureau-foundation/menumirror/lib/testutil"
)

// fakeRemote is an in-memory remote menu. Tests mutate it through its
// helper methods and inspect the calls the engine made.
type fakeRemote struct {
	mu sync.Mutex

	revision   uint32
	children   map[ItemID][]ItemID
	properties map[ItemID]Properties

	failLayout     bool
	failProperties map[ItemID]bool
	needUpdate     map[ItemID]bool

	// layoutGate, when set, holds every GetLayout call until it is
	// closed, ignoring context cancellation.
	layoutGate chan struct{}

	layoutCalls      []ItemID
	propertyCalls    [][]ItemID
	aboutToShowCalls []ItemID
	events           []fakeEvent

	signals chan Signal
}

type fakeEvent struct {
	id        ItemID
	eventID   string
	data      any
	timestamp uint32
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		revision:       1,
		children:       map[ItemID][]ItemID{RootID: nil},
		properties:     map[ItemID]Properties{RootID: {PropertyLabel: "Root"}},
		failProperties: make(map[ItemID]bool),
		needUpdate:     make(map[ItemID]bool),
		signals:        make(chan Signal, 16),
	}
}

// add appends id under parent with the given properties.
func (remote *fakeRemote) add(parent, id ItemID, properties Properties) {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	remote.children[parent] = append(remote.children[parent], id)
	if _, exists := remote.children[id]; !exists {
		remote.children[id] = nil
	}
	remote.properties[id] = properties
}

// setChildren replaces parent's child list and bumps the revision.
func (remote *fakeRemote) setChildren(parent ItemID, children ...ItemID) {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	remote.children[parent] = children
	remote.revision++
}

func (remote *fakeRemote) setRevision(revision uint32) {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	remote.revision = revision
}

func (remote *fakeRemote) setProperty(id ItemID, name string, value any) {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	remote.properties[id][name] = value
}

func (remote *fakeRemote) setFailProperties(id ItemID, fail bool) {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	remote.failProperties[id] = fail
}

func (remote *fakeRemote) layoutCallCount() int {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	return len(remote.layoutCalls)
}

func (remote *fakeRemote) propertyCallsFor(id ItemID) int {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	count := 0
	for _, call := range remote.propertyCalls {
		if slices.Contains(call, id) {
			count++
		}
	}
	return count
}

func (remote *fakeRemote) recordedEvents() []fakeEvent {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	return slices.Clone(remote.events)
}

func (remote *fakeRemote) layoutOf(id ItemID, depth int) Layout {
	layout := Layout{ID: id, Properties: Properties{PropertyID: id}}
	if depth > 32 {
		return layout
	}
	for _, child := range remote.children[id] {
		layout.Children = append(layout.Children, remote.layoutOf(child, depth+1))
	}
	return layout
}

func (remote *fakeRemote) GetLayout(ctx context.Context, parent ItemID, depth int32, names []string) (uint32, Layout, error) {
	remote.mu.Lock()
	remote.layoutCalls = append(remote.layoutCalls, parent)
	gate := remote.layoutGate
	remote.mu.Unlock()

	if gate != nil {
		<-gate
	}

	remote.mu.Lock()
	defer remote.mu.Unlock()
	if remote.failLayout {
		return 0, Layout{}, errors.New("layout unavailable")
	}
	return remote.revision, remote.layoutOf(parent, 0), nil
}

func (remote *fakeRemote) GetGroupProperties(ctx context.Context, ids []ItemID, names []string) ([]ItemProperties, error) {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	remote.propertyCalls = append(remote.propertyCalls, slices.Clone(ids))
	for _, id := range ids {
		if remote.failProperties[id] {
			return nil, errors.New("properties unavailable")
		}
	}
	var result []ItemProperties
	for _, id := range ids {
		if properties, exists := remote.properties[id]; exists {
			result = append(result, ItemProperties{ID: id, Properties: properties.Clone()})
		}
	}
	return result, nil
}

func (remote *fakeRemote) Event(ctx context.Context, id ItemID, eventID string, data any, timestamp uint32) error {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	remote.events = append(remote.events, fakeEvent{id: id, eventID: eventID, data: data, timestamp: timestamp})
	return nil
}

func (remote *fakeRemote) AboutToShow(ctx context.Context, id ItemID) (bool, error) {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	remote.aboutToShowCalls = append(remote.aboutToShowCalls, id)
	return remote.needUpdate[id], nil
}

func (remote *fakeRemote) Subscribe(ctx context.Context) (<-chan Signal, error) {
	out := make(chan Signal)
	go func() {
		defer close(out)
		for {
			select {
			case signal := <-remote.signals:
				select {
				case out <- signal:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// recordingRenderer is a Renderer that keeps every node it built and
// every handle it issued so tests can inspect the rendered tree.
type recordingRenderer struct {
	mu        sync.Mutex
	root      *fakeContainer
	nodes     []*fakeNode
	handles   []*fakeHandle
	failBuild map[ItemID]bool
}

func newRecordingRenderer() *recordingRenderer {
	renderer := &recordingRenderer{failBuild: make(map[ItemID]bool)}
	renderer.root = &fakeContainer{renderer: renderer}
	return renderer
}

func (renderer *recordingRenderer) Root() Container {
	return renderer.root
}

func (renderer *recordingRenderer) Build(view ItemView) (Node, error) {
	renderer.mu.Lock()
	defer renderer.mu.Unlock()
	if renderer.failBuild[view.ID] {
		return nil, errors.New("cannot build")
	}
	node := &fakeNode{
		renderer:    renderer,
		view:        view,
		label:       view.Label,
		visible:     view.Visible,
		interactive: view.Interactive,
		toggleOn:    view.ToggleOn,
		icon:        view.Icon,
		acceptIcon:  true,
	}
	if view.Kind == KindSubmenu {
		node.container = &fakeContainer{renderer: renderer}
	}
	renderer.nodes = append(renderer.nodes, node)
	return node, nil
}

func (renderer *recordingRenderer) newHandle(release func()) *fakeHandle {
	handle := &fakeHandle{renderer: renderer, onRelease: release}
	renderer.handles = append(renderer.handles, handle)
	return handle
}

// buildCount returns how many nodes were ever built for id.
func (renderer *recordingRenderer) buildCount(id ItemID) int {
	renderer.mu.Lock()
	defer renderer.mu.Unlock()
	count := 0
	for _, node := range renderer.nodes {
		if node.view.ID == id {
			count++
		}
	}
	return count
}

// live returns the current, undestroyed node for id, or nil.
func (renderer *recordingRenderer) live(id ItemID) *fakeNode {
	renderer.mu.Lock()
	defer renderer.mu.Unlock()
	for _, node := range slices.Backward(renderer.nodes) {
		if node.view.ID == id && !node.destroyed {
			return node
		}
	}
	return nil
}

func (renderer *recordingRenderer) liveCount() int {
	renderer.mu.Lock()
	defer renderer.mu.Unlock()
	count := 0
	for _, node := range renderer.nodes {
		if !node.destroyed {
			count++
		}
	}
	return count
}

type fakeNode struct {
	renderer *recordingRenderer

	view        ItemView
	label       string
	visible     bool
	interactive bool
	toggleOn    bool
	icon        Icon
	acceptIcon  bool
	destroyed   bool

	parent     *fakeContainer
	container  *fakeContainer
	activation *fakeHandle
	activators int
}

func (node *fakeNode) Destroy() {
	node.renderer.mu.Lock()
	defer node.renderer.mu.Unlock()
	node.destroyed = true
	if node.parent != nil {
		node.parent.remove(node)
	}
}

func (node *fakeNode) SetLabel(label string) {
	node.renderer.mu.Lock()
	defer node.renderer.mu.Unlock()
	node.label = label
}

func (node *fakeNode) SetVisible(visible bool) {
	node.renderer.mu.Lock()
	defer node.renderer.mu.Unlock()
	node.visible = visible
}

func (node *fakeNode) SetInteractive(interactive bool) {
	node.renderer.mu.Lock()
	defer node.renderer.mu.Unlock()
	node.interactive = interactive
}

func (node *fakeNode) SetToggleState(on bool) {
	node.renderer.mu.Lock()
	defer node.renderer.mu.Unlock()
	node.toggleOn = on
}

func (node *fakeNode) SetIcon(icon Icon) bool {
	node.renderer.mu.Lock()
	defer node.renderer.mu.Unlock()
	if !node.acceptIcon {
		return false
	}
	node.icon = icon
	return true
}

func (node *fakeNode) Container() Container {
	if node.container == nil {
		return nil
	}
	return node.container
}

func (node *fakeNode) OnActivate(handler func(timestamp uint32)) Handle {
	node.renderer.mu.Lock()
	defer node.renderer.mu.Unlock()
	node.activators++
	var handle *fakeHandle
	handle = node.renderer.newHandle(func() {
		node.activators--
		if node.activation == handle {
			node.activation = nil
		}
	})
	handle.activate = handler
	node.activation = handle
	return handle
}

// activate fires the node's current activation listener, as a click
// would. Returns false if no listener is attached.
func (node *fakeNode) activate(timestamp uint32) bool {
	node.renderer.mu.Lock()
	handle := node.activation
	node.renderer.mu.Unlock()
	if handle == nil {
		return false
	}
	handle.activate(timestamp)
	return true
}

func (node *fakeNode) snapshot() fakeNode {
	node.renderer.mu.Lock()
	defer node.renderer.mu.Unlock()
	return fakeNode{
		view:        node.view,
		label:       node.label,
		visible:     node.visible,
		interactive: node.interactive,
		toggleOn:    node.toggleOn,
		icon:        node.icon,
		destroyed:   node.destroyed,
		activators:  node.activators,
	}
}

type fakeContainer struct {
	renderer *recordingRenderer
	nodes    []*fakeNode
	clears   int
	opener   *fakeHandle
}

func (container *fakeContainer) InsertAt(node Node, index int) {
	container.renderer.mu.Lock()
	defer container.renderer.mu.Unlock()
	fake := node.(*fakeNode)
	fake.parent = container
	index = min(index, len(container.nodes))
	container.nodes = slices.Insert(container.nodes, index, fake)
}

func (container *fakeContainer) Clear() {
	container.renderer.mu.Lock()
	defer container.renderer.mu.Unlock()
	for _, node := range container.nodes {
		node.parent = nil
	}
	container.nodes = nil
	container.clears++
}

func (container *fakeContainer) OnOpen(handler func(done func())) Handle {
	container.renderer.mu.Lock()
	defer container.renderer.mu.Unlock()
	var handle *fakeHandle
	handle = container.renderer.newHandle(func() {
		if container.opener == handle {
			container.opener = nil
		}
	})
	handle.open = handler
	container.opener = handle
	return handle
}

// remove must be called with the renderer lock held.
func (container *fakeContainer) remove(node *fakeNode) {
	container.nodes = slices.DeleteFunc(container.nodes, func(candidate *fakeNode) bool {
		return candidate == node
	})
	node.parent = nil
}

// ids returns the item ids rendered in the container, in order.
func (container *fakeContainer) ids() []ItemID {
	container.renderer.mu.Lock()
	defer container.renderer.mu.Unlock()
	ids := make([]ItemID, 0, len(container.nodes))
	for _, node := range container.nodes {
		ids = append(ids, node.view.ID)
	}
	return ids
}

// labels returns the rendered labels in order, "---" for separators.
func (container *fakeContainer) labels() []string {
	container.renderer.mu.Lock()
	defer container.renderer.mu.Unlock()
	labels := make([]string, 0, len(container.nodes))
	for _, node := range container.nodes {
		if node.view.Kind == KindSeparator {
			labels = append(labels, "---")
			continue
		}
		labels = append(labels, node.label)
	}
	return labels
}

// open fires the container's open listener and returns a channel
// closed when the engine calls done.
func (container *fakeContainer) open(t *testing.T) <-chan struct{} {
	t.Helper()
	container.renderer.mu.Lock()
	handle := container.opener
	container.renderer.mu.Unlock()
	if handle == nil {
		t.Fatalf("container has no open listener")
	}
	opened := make(chan struct{})
	var once sync.Once
	handle.open(func() { once.Do(func() { close(opened) }) })
	return opened
}

type fakeHandle struct {
	renderer  *recordingRenderer
	onRelease func()
	released  int
	activate  func(timestamp uint32)
	open      func(done func())
}

func (handle *fakeHandle) Release() {
	handle.renderer.mu.Lock()
	defer handle.renderer.mu.Unlock()
	handle.released++
	if handle.onRelease != nil {
		handle.onRelease()
	}
}

// newTestClient creates a client whose run loop is not started: the
// test goroutine plays the loop, calling engine methods directly and
// running completions with settle.
func newTestClient(t *testing.T, remote Remote, renderer Renderer, options Options) *Client {
	t.Helper()
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	client := New(remote, renderer, options)
	t.Cleanup(client.Close)
	return client
}

// settle runs queued completions on the test goroutine until no remote
// call is in flight.
func settle(t *testing.T, client *Client) {
	t.Helper()
	for client.inflight > 0 || len(client.tasks) > 0 {
		task := testutil.RequireReceive(t, (<-chan func())(client.tasks), testutil.DefaultTimeout,
			"waiting for completions (%d calls in flight)", client.inflight)
		task()
	}
}

// synchronize performs the initial synchronization a started client
// would: fetch the root's properties and read the whole layout.
func synchronize(t *testing.T, client *Client) {
	t.Helper()
	client.fetch([]ItemID{RootID}, true)
	client.requestLayout(RootID)
	settle(t, client)
}
