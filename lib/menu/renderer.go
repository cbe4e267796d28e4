// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

// Renderer turns engine instructions into presentation objects. The
// engine calls every method from its run loop goroutine; an
// implementation that is also read from another goroutine (a UI
// thread) must synchronize internally.
//
// Listener callbacks registered through OnActivate and OnOpen may be
// invoked from any goroutine, but never synchronously from inside a
// Renderer, Node, or Container method.
type Renderer interface {
	// Root returns the top-level container. It always exists.
	Root() Container

	// Build creates a detached node for the described item. The node
	// is not visible to the user until inserted into a container.
	Build(view ItemView) (Node, error)
}

// Node is a rendered item.
type Node interface {
	// Destroy detaches the node from its container and frees it.
	// The engine releases the node's listener handles first.
	Destroy()

	SetLabel(label string)
	SetVisible(visible bool)
	SetInteractive(interactive bool)
	SetToggleState(on bool)

	// SetIcon updates the icon decoration in place. Returns false if
	// the node cannot change its icon, in which case the engine
	// rebuilds the owning subtree instead.
	SetIcon(icon Icon) bool

	// Container returns the child container of a submenu node, or nil
	// for every other kind.
	Container() Container

	// OnActivate registers the activation listener. The timestamp is
	// the input event time, or 0 if the renderer has none.
	OnActivate(handler func(timestamp uint32)) Handle
}

// Container holds an ordered list of nodes.
type Container interface {
	// InsertAt inserts node at index. An index past the end appends.
	InsertAt(node Node, index int)

	// Clear removes every node from the container.
	Clear()

	// OnOpen registers the listener invoked when the user opens the
	// container. The container should stay non-interactive until the
	// listener calls done.
	OnOpen(handler func(done func())) Handle
}

// Handle is a registered listener. Release detaches it; the engine
// calls Release exactly once per handle.
type Handle interface {
	Release()
}

// HandleFunc adapts a function to the Handle interface.
type HandleFunc func()

// Release calls f.
func (f HandleFunc) Release() { f() }

// ItemView is the renderer-facing description of one item, derived
// from its property bag when the item is built.
type ItemView struct {
	ID          ItemID
	Kind        Kind
	Label       string
	Visible     bool
	Enabled     bool
	Interactive bool
	ToggleOn    bool
	Icon        Icon
	Shortcut    [][]string
}

// Icon is an item's icon decoration: a themed icon name, inline image
// data (PNG), or both.
type Icon struct {
	Name string
	Data []byte
}

// IsZero reports whether the icon carries neither a name nor data.
func (icon Icon) IsZero() bool {
	return icon.Name == "" && len(icon.Data) == 0
}

// NewItemView derives the view of an item from its properties.
func NewItemView(id ItemID, properties Properties) ItemView {
	kind := Classify(properties)
	view := ItemView{
		ID:          id,
		Kind:        kind,
		Visible:     properties.Bool(PropertyVisible, true),
		Enabled:     properties.Bool(PropertyEnabled, true),
		Interactive: properties.Bool(PropertySensitive, true),
	}
	if kind == KindSeparator {
		return view
	}
	view.Label = MnemonicLabel(properties.String(PropertyLabel))
	if shortcut, ok := properties[PropertyShortcut].([][]string); ok {
		view.Shortcut = shortcut
	}
	switch {
	case kind.Toggle():
		view.ToggleOn = properties.ToggleOn()
	case kind == KindIconic:
		view.Icon = properties.Icon()
	}
	return view
}
