// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

// handleSignal routes one remote signal. It runs on the loop.
func (c *Client) handleSignal(signal Signal) {
	switch signal := signal.(type) {
	case PropertiesUpdated:
		c.propertiesUpdated(signal)
	case LayoutUpdated:
		if signal.Revision <= c.store.Revision() {
			c.logger.Debug("ignoring layout update",
				"subtree", signal.Parent,
				"revision", signal.Revision,
				"current", c.store.Revision(),
			)
			return
		}
		c.requestLayout(signal.Parent)
	case ItemUpdated:
		c.fetch([]ItemID{signal.ID}, true)
	case ActivationRequested:
		c.publishActivation(signal)
	}
}

// propertiesUpdated commits an ItemsPropertiesUpdated signal to the
// store and then brings each touched item's rendered node up to date.
// Updates for ids that are unknown, or known but not yet fetched, are
// ignored: a partial update is not a property bag, and the pending or
// next fetch delivers the full one.
func (c *Client) propertiesUpdated(update PropertiesUpdated) {
	changed := make(map[ItemID][]string)
	var order []ItemID
	record := func(id ItemID, name string) {
		if _, seen := changed[id]; !seen {
			order = append(order, id)
		}
		changed[id] = append(changed[id], name)
	}

	for _, entry := range update.Updated {
		if !c.store.HasProperties(entry.ID) {
			continue
		}
		values := entry.Properties.Clone()
		for _, name := range values.Names() {
			c.store.setProperty(entry.ID, name, values[name])
			record(entry.ID, name)
		}
	}
	for _, entry := range update.Removed {
		if !c.store.HasProperties(entry.ID) {
			continue
		}
		for _, name := range entry.Names {
			c.store.removeProperty(entry.ID, name)
			record(entry.ID, name)
		}
	}

	for _, id := range order {
		c.propertiesChanged(id, changed[id])
	}
}

// propertiesChanged applies already-committed property changes of id
// to its rendered node. Root changes recompute the root summary. An
// item that is not rendered yet is placed now, since its properties
// just became actionable. A change the node cannot absorb in place
// replaces the item's parent, because the item's kind may have changed.
func (c *Client) propertiesChanged(id ItemID, names []string) {
	if id == RootID {
		c.updateRoot()
		return
	}
	entry, built := c.items[id]
	if !built {
		if err := c.replace(id, true); err != nil {
			c.logger.Debug("deferred item placement", "id", id, "error", err)
		}
		return
	}
	properties := c.store.properties[id]
	for _, name := range names {
		if !c.applyInPlace(entry, properties, name) {
			c.replaceParent(id)
			return
		}
	}
}

// applyInPlace updates entry's node for one changed property. Returns
// false when the change needs a rebuild.
func (c *Client) applyInPlace(entry *item, properties Properties, name string) bool {
	switch name {
	case PropertyLabel:
		if entry.kind != KindSeparator {
			entry.node.SetLabel(MnemonicLabel(properties.String(PropertyLabel)))
		}
		return true
	case PropertyVisible:
		entry.node.SetVisible(properties.Bool(PropertyVisible, true))
		return true
	case PropertySensitive:
		entry.node.SetInteractive(properties.Bool(PropertySensitive, true))
		return true
	case PropertyEnabled:
		if entry.kind.Activatable() {
			c.setActivation(entry, properties.Bool(PropertyEnabled, true))
		}
		return true
	case PropertyToggleState:
		if !entry.kind.Toggle() {
			return false
		}
		entry.node.SetToggleState(properties.ToggleOn())
		return true
	case PropertyIconName, PropertyIconData:
		switch entry.kind {
		case KindSeparator, KindSubmenu, KindToggleCheck, KindToggleRadio:
			// These kinds ignore the icon.
			return true
		case KindIconic:
			if Classify(properties) != KindIconic {
				return false
			}
			return entry.node.SetIcon(properties.Icon())
		default:
			return false
		}
	default:
		return false
	}
}

// replaceParent rebuilds the subtree owning id.
func (c *Client) replaceParent(id ItemID) {
	parent, known := c.store.Parent(id)
	if !known || parent == NoParent {
		return
	}
	var err error
	if parent == RootID {
		err = c.rebuild(RootID)
	} else {
		err = c.replace(parent, true)
	}
	if err != nil {
		c.logger.Debug("abandoned subtree rebuild", "subtree", parent, "error", err)
	}
}
