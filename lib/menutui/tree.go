// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menutui

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/menumirror/lib/menu"
)

// treeChangedMsg tells the model to re-read the tree.
type treeChangedMsg struct{}

// Tree is a menu.Renderer that keeps the rendered menu as an in-memory
// widget tree. The engine mutates it from its run loop; the model (or
// Text) reads it from other goroutines, so every access goes through
// one mutex.
//
// Listener callbacks are only ever invoked from the Tree's user-facing
// methods (Activate, Expand), never from a Renderer, Node, or Container
// method, and never with the mutex held.
type Tree struct {
	mu      sync.Mutex
	root    *container
	byID    map[menu.ItemID]*widget
	summary menu.RootSummary

	program atomic.Pointer[tea.Program]
	pending atomic.Bool
	changes chan struct{}
}

// NewTree returns an empty tree. The root container starts expanded.
func NewTree() *Tree {
	tree := &Tree{
		byID:    make(map[menu.ItemID]*widget),
		changes: make(chan struct{}, 1),
	}
	tree.root = &container{tree: tree, expanded: true}
	return tree
}

// SetProgram attaches the bubbletea program that is notified when the
// tree changes. Safe to call from any goroutine.
func (tree *Tree) SetProgram(program *tea.Program) {
	tree.program.Store(program)
	tree.changed()
}

// Changed returns a channel that receives a value after the tree
// changes. Notifications coalesce: one receive may stand for many
// changes.
func (tree *Tree) Changed() <-chan struct{} {
	return tree.changes
}

// SetRoot records the root item's presentation state, shown as the
// viewer's title.
func (tree *Tree) SetRoot(summary menu.RootSummary) {
	tree.mu.Lock()
	tree.summary = summary
	tree.mu.Unlock()
	tree.changed()
}

// Summary returns the last root state passed to SetRoot.
func (tree *Tree) Summary() menu.RootSummary {
	tree.mu.Lock()
	defer tree.mu.Unlock()
	return tree.summary
}

// Root implements menu.Renderer.
func (tree *Tree) Root() menu.Container {
	return tree.root
}

// Build implements menu.Renderer.
func (tree *Tree) Build(view menu.ItemView) (menu.Node, error) {
	switch view.Kind {
	case menu.KindPlain, menu.KindSeparator, menu.KindSubmenu,
		menu.KindToggleCheck, menu.KindToggleRadio, menu.KindIconic:
	default:
		return nil, fmt.Errorf("item %d: unsupported kind %d", view.ID, view.Kind)
	}
	node := &widget{
		tree:        tree,
		id:          view.ID,
		kind:        view.Kind,
		label:       view.Label,
		visible:     view.Visible,
		interactive: view.Interactive,
		toggleOn:    view.ToggleOn,
		icon:        view.Icon,
		shortcut:    view.Shortcut,
	}
	if view.Kind == menu.KindSubmenu {
		node.child = &container{tree: tree, owner: node}
	}
	tree.mu.Lock()
	tree.byID[view.ID] = node
	tree.mu.Unlock()
	return node, nil
}

// changed delivers a coalesced change notification to Changed
// receivers and to the attached program. The program send runs on its
// own goroutine because the engine loop must never wait on the UI.
func (tree *Tree) changed() {
	select {
	case tree.changes <- struct{}{}:
	default:
	}
	program := tree.program.Load()
	if program == nil || tree.pending.Swap(true) {
		return
	}
	go program.Send(treeChangedMsg{})
}

// acknowledge re-arms program notifications. The model calls it before
// re-reading the tree so no change slips between the read and the next
// notification.
func (tree *Tree) acknowledge() {
	tree.pending.Store(false)
}

// Activate invokes the activation listener of the item id with the
// given input timestamp. Returns false if the item is not rendered,
// not interactive, or has no listener (disabled).
func (tree *Tree) Activate(id menu.ItemID, timestamp uint32) bool {
	tree.mu.Lock()
	node := tree.byID[id]
	var handler func(uint32)
	if node != nil && node.attached() && node.interactive && node.activate != nil {
		handler = node.activate.handler
	}
	tree.mu.Unlock()
	if handler == nil {
		return false
	}
	handler(timestamp)
	return true
}

// Expand opens the submenu id. If the engine registered an open
// listener, the container is marked loading until the listener
// reports done. Returns false if id is not a rendered submenu.
func (tree *Tree) Expand(id menu.ItemID) bool {
	tree.mu.Lock()
	node := tree.byID[id]
	if node == nil || node.child == nil || !node.attached() {
		tree.mu.Unlock()
		return false
	}
	child := node.child
	if child.expanded {
		tree.mu.Unlock()
		return true
	}
	child.expanded = true
	var handler func(done func())
	if child.open != nil {
		handler = child.open.handler
		child.loading = true
	}
	tree.mu.Unlock()
	tree.changed()

	if handler != nil {
		var once sync.Once
		handler(func() {
			once.Do(func() {
				tree.mu.Lock()
				child.loading = false
				tree.mu.Unlock()
				tree.changed()
			})
		})
	}
	return true
}

// Collapse closes the submenu id. Returns false if id is not an
// expanded submenu.
func (tree *Tree) Collapse(id menu.ItemID) bool {
	tree.mu.Lock()
	node := tree.byID[id]
	collapsed := node != nil && node.child != nil && node.child.expanded
	if collapsed {
		node.child.expanded = false
	}
	tree.mu.Unlock()
	if collapsed {
		tree.changed()
	}
	return collapsed
}

// Parent returns the id of the submenu holding id, or menu.RootID for a
// top-level item. The boolean is false if id is not rendered.
func (tree *Tree) Parent(id menu.ItemID) (menu.ItemID, bool) {
	tree.mu.Lock()
	defer tree.mu.Unlock()
	node := tree.byID[id]
	if node == nil || !node.attached() {
		return 0, false
	}
	if owner := node.parent.owner; owner != nil {
		return owner.id, true
	}
	return menu.RootID, true
}

// Reveal expands every submenu enclosing id, outermost first, so the
// item becomes a visible row. Returns false if id is not rendered.
func (tree *Tree) Reveal(id menu.ItemID) bool {
	var chain []menu.ItemID
	current := id
	for {
		parent, known := tree.Parent(current)
		if !known {
			return false
		}
		if parent == menu.RootID {
			break
		}
		chain = append(chain, parent)
		current = parent
	}
	slices.Reverse(chain)
	for _, ancestor := range chain {
		tree.Expand(ancestor)
	}
	return true
}

// Len returns the number of items currently placed in the tree.
func (tree *Tree) Len() int {
	tree.mu.Lock()
	defer tree.mu.Unlock()
	count := 0
	tree.root.walk(func(*widget, int) bool {
		count++
		return true
	}, 0)
	return count
}

// listener is one registered callback. Handles compare the pointer so
// a stale Release never detaches a newer registration.
type listener[F any] struct {
	handler F
}

// widget is the Tree's menu.Node.
type widget struct {
	tree *Tree

	id          menu.ItemID
	kind        menu.Kind
	label       string
	visible     bool
	interactive bool
	toggleOn    bool
	icon        menu.Icon
	shortcut    [][]string

	parent   *container
	child    *container
	activate *listener[func(uint32)]
}

// attached reports whether the node is reachable from the root.
// Caller holds tree.mu.
func (node *widget) attached() bool {
	for current := node; ; current = current.parent.owner {
		if current.parent == nil {
			return false
		}
		if current.parent.owner == nil {
			return current.parent == node.tree.root
		}
	}
}

func (node *widget) Destroy() {
	node.tree.mu.Lock()
	if node.parent != nil {
		node.parent.remove(node)
	}
	if node.tree.byID[node.id] == node {
		delete(node.tree.byID, node.id)
	}
	node.activate = nil
	node.tree.mu.Unlock()
	node.tree.changed()
}

func (node *widget) SetLabel(label string) {
	node.update(func() { node.label = label })
}

func (node *widget) SetVisible(visible bool) {
	node.update(func() { node.visible = visible })
}

func (node *widget) SetInteractive(interactive bool) {
	node.update(func() { node.interactive = interactive })
}

func (node *widget) SetToggleState(on bool) {
	node.update(func() { node.toggleOn = on })
}

func (node *widget) SetIcon(icon menu.Icon) bool {
	if node.kind != menu.KindIconic {
		return false
	}
	node.update(func() { node.icon = icon })
	return true
}

func (node *widget) Container() menu.Container {
	if node.child == nil {
		return nil
	}
	return node.child
}

func (node *widget) OnActivate(handler func(timestamp uint32)) menu.Handle {
	registered := &listener[func(uint32)]{handler: handler}
	node.update(func() { node.activate = registered })
	return menu.HandleFunc(func() {
		node.update(func() {
			if node.activate == registered {
				node.activate = nil
			}
		})
	})
}

func (node *widget) update(change func()) {
	node.tree.mu.Lock()
	change()
	node.tree.mu.Unlock()
	node.tree.changed()
}

// container is the Tree's menu.Container: the root list or the child
// list of a submenu widget.
type container struct {
	tree  *Tree
	owner *widget
	nodes []*widget

	open     *listener[func(done func())]
	expanded bool
	loading  bool
}

func (list *container) InsertAt(node menu.Node, index int) {
	inserted, ok := node.(*widget)
	if !ok || inserted.tree != list.tree {
		return
	}
	list.tree.mu.Lock()
	if inserted.parent != nil {
		inserted.parent.remove(inserted)
	}
	index = min(max(index, 0), len(list.nodes))
	list.nodes = slices.Insert(list.nodes, index, inserted)
	inserted.parent = list
	list.tree.mu.Unlock()
	list.tree.changed()
}

func (list *container) Clear() {
	list.tree.mu.Lock()
	for _, node := range list.nodes {
		node.parent = nil
	}
	list.nodes = nil
	list.tree.mu.Unlock()
	list.tree.changed()
}

func (list *container) OnOpen(handler func(done func())) menu.Handle {
	registered := &listener[func(done func())]{handler: handler}
	list.tree.mu.Lock()
	list.open = registered
	list.tree.mu.Unlock()
	return menu.HandleFunc(func() {
		list.tree.mu.Lock()
		if list.open == registered {
			list.open = nil
			list.loading = false
		}
		list.tree.mu.Unlock()
		list.tree.changed()
	})
}

// remove detaches node. Caller holds tree.mu.
func (list *container) remove(node *widget) {
	if index := slices.Index(list.nodes, node); index >= 0 {
		list.nodes = slices.Delete(list.nodes, index, index+1)
	}
	node.parent = nil
}

// walk visits the container's nodes depth first. visit returns whether
// to descend into the node's child container. Caller holds tree.mu.
func (list *container) walk(visit func(node *widget, depth int) bool, depth int) {
	for _, node := range list.nodes {
		if visit(node, depth) && node.child != nil {
			node.child.walk(visit, depth+1)
		}
	}
}
