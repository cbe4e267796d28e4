// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

import "fmt"

// item is the engine's record of one rendered node. It owns the node's
// listener handles: activate while an activation listener is attached,
// opening while a submenu-open listener is attached. Both are released
// exactly once, by release.
type item struct {
	id   ItemID
	kind Kind
	node Node

	// placedIn is the id whose container holds node (RootID for the
	// top-level container).
	placedIn ItemID

	activate Handle
	opening  Handle
}

func (entry *item) release() {
	if entry.activate != nil {
		entry.activate.Release()
		entry.activate = nil
	}
	if entry.opening != nil {
		entry.opening.Release()
		entry.opening = nil
	}
}

// container returns the container rendering id's children: the
// renderer's root container for RootID, the node's child container
// for a rendered submenu, nil otherwise.
func (c *Client) container(id ItemID) Container {
	if id == RootID {
		return c.renderer.Root()
	}
	entry, built := c.items[id]
	if !built {
		return nil
	}
	return entry.node.Container()
}

// rebuild replaces every rendered child of subtree with freshly built
// nodes in children order, recursing into children that have children
// of their own. Children whose properties are not known yet are
// skipped and take no slot; their fetch completion inserts them later
// through replace.
//
// A subtree without a container is replaced from its current
// properties first, whether its node is missing or was built as a
// plain item. If it still has no container afterwards the rebuild is
// abandoned with ErrInconsistentSubtree.
func (c *Client) rebuild(subtree ItemID) error {
	return c.rebuildAt(subtree, 0)
}

func (c *Client) rebuildAt(subtree ItemID, depth int) error {
	if depth >= c.maxDepth {
		return fmt.Errorf("rebuilding %d: depth limit %d reached: %w", subtree, c.maxDepth, ErrInconsistentSubtree)
	}
	if _, active := c.rebuilding[subtree]; active {
		return fmt.Errorf("rebuilding %d: already being rebuilt: %w", subtree, ErrInconsistentSubtree)
	}

	container := c.container(subtree)
	if container == nil {
		if err := c.replace(subtree, false); err != nil {
			return fmt.Errorf("materializing %d: %w", subtree, err)
		}
		container = c.container(subtree)
		if container == nil {
			return fmt.Errorf("rebuilding %d: item is not a submenu: %w", subtree, ErrInconsistentSubtree)
		}
	}

	c.rebuilding[subtree] = struct{}{}
	defer delete(c.rebuilding, subtree)

	c.clearContainer(subtree, container)
	position := 0
	for _, child := range c.store.children[subtree] {
		if !c.store.HasProperties(child) {
			continue
		}
		if _, active := c.rebuilding[child]; active {
			continue
		}
		entry, err := c.buildItem(child, subtree)
		if err != nil {
			c.logger.Warn("building menu item failed", "id", child, "error", err)
			continue
		}
		container.InsertAt(entry.node, position)
		position++
		if len(c.store.children[child]) > 0 {
			if entry.node.Container() == nil {
				c.logger.Debug("children under a non-submenu item", "id", child)
				continue
			}
			if err := c.rebuildAt(child, depth+1); err != nil {
				c.logger.Debug("abandoned subtree rebuild", "subtree", child, "error", err)
			}
		}
	}
	c.metrics.rebuilt(rebuildSubtree)
	return nil
}

// clearContainer destroys every item placed in subtree's container,
// nested submenus included, then clears the container itself.
func (c *Client) clearContainer(subtree ItemID, container Container) {
	for _, entry := range c.items {
		if entry.placedIn == subtree {
			c.destroyItem(entry)
		}
	}
	container.Clear()
}

// replace rebuilds the single item id from its current properties and
// inserts it into its parent's container. The insertion index is the
// number of id's earlier siblings that are currently rendered in that
// container, so items that are not built yet never take a slot. The
// parent is materialized first when its container does not exist. With
// recurse set, a submenu item also gets its own children rebuilt.
func (c *Client) replace(id ItemID, recurse bool) error {
	return c.replaceAt(id, recurse, 0)
}

func (c *Client) replaceAt(id ItemID, recurse bool, depth int) error {
	if id == RootID {
		return fmt.Errorf("replacing the root: %w", ErrInconsistentSubtree)
	}
	if depth >= c.maxDepth {
		return fmt.Errorf("replacing %d: depth limit %d reached: %w", id, c.maxDepth, ErrInconsistentSubtree)
	}
	if !c.store.HasProperties(id) {
		return fmt.Errorf("replacing %d: no properties: %w", id, ErrInconsistentSubtree)
	}
	parent, known := c.store.Parent(id)
	if !known || parent == NoParent {
		return fmt.Errorf("replacing %d: not attached to the tree: %w", id, ErrInconsistentSubtree)
	}

	container := c.container(parent)
	if container == nil {
		if _, built := c.items[parent]; built {
			return fmt.Errorf("replacing %d: parent %d is not a submenu: %w", id, parent, ErrInconsistentSubtree)
		}
		if err := c.replaceAt(parent, false, depth+1); err != nil {
			return fmt.Errorf("materializing parent of %d: %w", id, err)
		}
		container = c.container(parent)
		if container == nil {
			return fmt.Errorf("replacing %d: parent %d is not a submenu: %w", id, parent, ErrInconsistentSubtree)
		}
	}

	position := 0
	for _, sibling := range c.store.children[parent] {
		if sibling == id {
			break
		}
		if entry, built := c.items[sibling]; built && entry.placedIn == parent {
			position++
		}
	}

	entry, err := c.buildItem(id, parent)
	if err != nil {
		return err
	}
	if recurse && entry.kind == KindSubmenu {
		if err := c.rebuild(id); err != nil {
			c.logger.Debug("abandoned subtree rebuild", "subtree", id, "error", err)
		}
	}
	container.InsertAt(entry.node, position)
	c.metrics.rebuilt(rebuildItem)
	return nil
}

// buildItem asks the renderer for a node for id, destroying any node
// id already has, and attaches the listeners its kind calls for.
func (c *Client) buildItem(id ItemID, placedIn ItemID) (*item, error) {
	if existing, built := c.items[id]; built {
		c.destroyItem(existing)
	}

	view := NewItemView(id, c.store.properties[id])
	node, err := c.renderer.Build(view)
	if err != nil {
		return nil, fmt.Errorf("building item %d: %w", id, err)
	}
	entry := &item{
		id:       id,
		kind:     view.Kind,
		node:     node,
		placedIn: placedIn,
	}
	if view.Kind.Activatable() && view.Enabled {
		entry.activate = node.OnActivate(c.activationHandler(id))
	}
	if view.Kind == KindSubmenu {
		if container := node.Container(); container != nil {
			entry.opening = container.OnOpen(c.openingHandler(id))
		}
	}
	c.items[id] = entry
	c.metrics.rendered(len(c.items))
	return entry, nil
}

// destroyItem tears down entry and every item rendered inside its
// container. Destroying an entry that is no longer current is a no-op.
func (c *Client) destroyItem(entry *item) {
	if c.items[entry.id] != entry {
		return
	}
	delete(c.items, entry.id)
	for _, nested := range c.items {
		if nested.placedIn == entry.id {
			c.destroyItem(nested)
		}
	}
	entry.release()
	entry.node.Destroy()
	c.metrics.rendered(len(c.items))
}

// setActivation attaches or detaches entry's activation listener to
// match enabled. Calling it repeatedly with the same value is a no-op,
// so at most one listener is ever attached.
func (c *Client) setActivation(entry *item, enabled bool) {
	switch {
	case enabled && entry.activate == nil:
		entry.activate = entry.node.OnActivate(c.activationHandler(entry.id))
	case !enabled && entry.activate != nil:
		entry.activate.Release()
		entry.activate = nil
	}
}
