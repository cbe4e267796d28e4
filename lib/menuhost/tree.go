// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menuhost

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"maps"
	"slices"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/menumirror/lib/codec"
	"github.com/bureau-foundation/menumirror/lib/menu"
)

// digest is a BLAKE3-256 hash.
type digest [32]byte

// tree is one loaded definition: every item by id, the root included.
type tree struct {
	nodes     map[menu.ItemID]*node
	structure digest
}

type node struct {
	parent     menu.ItemID
	children   []menu.ItemID
	properties menu.Properties
	digest     digest
	refresh    bool
}

// newTree builds the served tree for definition. A nil assigner is
// only valid for a definition without items.
func newTree(definition *Definition, assigner *idAssigner) (*tree, error) {
	root := &node{
		parent:     menu.NoParent,
		properties: definition.rootProperties(),
	}
	result := &tree{nodes: map[menu.ItemID]*node{menu.RootID: root}}

	var build func(items []ItemDefinition, parent menu.ItemID) error
	build = func(items []ItemDefinition, parent menu.ItemID) error {
		for i := range items {
			item := &items[i]
			id := assigner.idOf(item)
			properties := item.properties()
			if _, err := codec.Marshal(map[string]any(properties)); err != nil {
				return fmt.Errorf("%w: item %d: unsupported property value: %w", ErrInvalidDefinition, id, err)
			}
			result.nodes[id] = &node{
				parent:     parent,
				properties: properties,
				refresh:    item.AboutToShowRefresh,
			}
			result.nodes[parent].children = append(result.nodes[parent].children, id)
			if err := build(item.Items, id); err != nil {
				return err
			}
		}
		return nil
	}
	if err := build(definition.Items, menu.RootID); err != nil {
		return nil, err
	}

	for _, entry := range result.nodes {
		entry.digest = digestProperties(entry.properties)
	}
	result.structure = result.structureDigest()
	return result, nil
}

// layout returns the subtree under id. depth 0 returns only the
// element itself; a negative depth is unlimited.
func (t *tree) layout(id menu.ItemID, depth int32, names []string) menu.Layout {
	entry := t.nodes[id]
	layout := menu.Layout{ID: id, Properties: filterProperties(entry.properties, names)}
	if depth == 0 {
		return layout
	}
	for _, child := range entry.children {
		layout.Children = append(layout.Children, t.layout(child, depth-1, names))
	}
	return layout
}

// structureDigest hashes every (id, parent, children) record in id
// order, so it changes exactly when the item set or any child list
// changes.
func (t *tree) structureDigest() digest {
	hasher := blake3.New()
	var scratch [4]byte
	write := func(value int32) {
		binary.LittleEndian.PutUint32(scratch[:], uint32(value))
		hasher.Write(scratch[:])
	}
	for _, id := range slices.Sorted(maps.Keys(t.nodes)) {
		entry := t.nodes[id]
		write(int32(id))
		write(int32(entry.parent))
		write(int32(len(entry.children)))
		for _, child := range entry.children {
			write(int32(child))
		}
	}
	var result digest
	copy(result[:], hasher.Sum(nil))
	return result
}

// digestProperties hashes the deterministic CBOR encoding of a bag.
// newTree has already checked that the bag encodes.
func digestProperties(properties menu.Properties) digest {
	data, err := codec.Marshal(map[string]any(properties))
	if err != nil {
		panic("menuhost: encoding validated properties: " + err.Error())
	}
	return blake3.Sum256(data)
}

// treeChanges is the difference between two trees.
type treeChanges struct {
	structural bool
	updated    []menu.ItemProperties
	removed    []menu.RemovedProperties
}

// diffTrees compares previous and next. Property changes are reported
// only for ids present in both; new ids are fetched by the mirror
// after it re-reads the layout.
func diffTrees(previous, next *tree) (treeChanges, error) {
	changes := treeChanges{structural: previous.structure != next.structure}
	for _, id := range slices.Sorted(maps.Keys(next.nodes)) {
		before, existed := previous.nodes[id]
		after := next.nodes[id]
		if !existed || before.digest == after.digest {
			continue
		}

		changed := make(menu.Properties)
		for _, name := range after.properties.Names() {
			equal, err := sameValue(before.properties, after.properties, name)
			if err != nil {
				return treeChanges{}, err
			}
			if !equal {
				changed[name] = after.properties[name]
			}
		}
		var removed []string
		for _, name := range before.properties.Names() {
			if _, kept := after.properties[name]; !kept {
				removed = append(removed, name)
			}
		}
		if len(changed) > 0 {
			changes.updated = append(changes.updated, menu.ItemProperties{ID: id, Properties: changed})
		}
		if len(removed) > 0 {
			changes.removed = append(changes.removed, menu.RemovedProperties{ID: id, Names: removed})
		}
	}
	return changes, nil
}

// sameValue reports whether name has the same encoded value in both
// bags. Values are compared by their deterministic CBOR encoding so
// int32(1) in one bag equals int64(1) in the other.
func sameValue(before, after menu.Properties, name string) (bool, error) {
	old, exists := before[name]
	if !exists {
		return false, nil
	}
	oldBytes, err := codec.Marshal(old)
	if err != nil {
		return false, fmt.Errorf("encoding property %q: %w", name, err)
	}
	newBytes, err := codec.Marshal(after[name])
	if err != nil {
		return false, fmt.Errorf("encoding property %q: %w", name, err)
	}
	return bytes.Equal(oldBytes, newBytes), nil
}

// idAssigner hands out item ids for one load. Explicit ids are
// reserved first. Other items reuse the id remembered for their label
// path, then the id remembered for their position path (so a relabeled
// item keeps its id), and otherwise get a fresh id that has never been
// served. Only paths from the previous load are remembered.
type idAssigner struct {
	remembered map[string]menu.ItemID
	paths      map[string]menu.ItemID
	used       map[menu.ItemID]struct{}
	ids        map[*ItemDefinition]menu.ItemID
	next       menu.ItemID
	highest    menu.ItemID
}

type pathedItem struct {
	item         *ItemDefinition
	labelPath    string
	positionPath string
}

func newIDAssigner(definition *Definition, remembered map[string]menu.ItemID, next menu.ItemID) *idAssigner {
	assigner := &idAssigner{
		remembered: remembered,
		paths:      make(map[string]menu.ItemID),
		used:       map[menu.ItemID]struct{}{menu.RootID: {}},
		ids:        make(map[*ItemDefinition]menu.ItemID),
		next:       next,
	}

	var items []pathedItem
	var collect func(definitions []ItemDefinition, labelPath, positionPath string)
	collect = func(definitions []ItemDefinition, labelPath, positionPath string) {
		occurrences := make(map[string]int)
		for i := range definitions {
			entry := pathedItem{
				item:         &definitions[i],
				labelPath:    labelPath + "/" + definitions[i].pathKey(occurrences),
				positionPath: fmt.Sprintf("%s/@%d", positionPath, i),
			}
			items = append(items, entry)
			collect(definitions[i].Items, entry.labelPath, entry.positionPath)
		}
	}
	collect(definition.Items, "", "")

	for _, entry := range items {
		if entry.item.ID > 0 {
			id := menu.ItemID(entry.item.ID)
			assigner.claim(entry.item, id)
			assigner.highest = max(assigner.highest, id)
		}
	}
	for _, byLabel := range []bool{true, false} {
		for _, entry := range items {
			if _, assigned := assigner.ids[entry.item]; assigned {
				continue
			}
			path := entry.positionPath
			if byLabel {
				path = entry.labelPath
			}
			if id, known := remembered[path]; known {
				if _, taken := assigner.used[id]; !taken {
					assigner.claim(entry.item, id)
				}
			}
		}
	}
	for _, entry := range items {
		if _, assigned := assigner.ids[entry.item]; !assigned {
			assigner.claim(entry.item, assigner.fresh())
		}
		id := assigner.ids[entry.item]
		assigner.paths[entry.labelPath] = id
		assigner.paths[entry.positionPath] = id
	}
	return assigner
}

func (a *idAssigner) claim(item *ItemDefinition, id menu.ItemID) {
	a.ids[item] = id
	a.used[id] = struct{}{}
}

func (a *idAssigner) fresh() menu.ItemID {
	for {
		if _, taken := a.used[a.next]; !taken {
			break
		}
		a.next++
	}
	id := a.next
	a.next++
	return id
}

// idOf returns the id assigned to item.
func (a *idAssigner) idOf(item *ItemDefinition) menu.ItemID {
	return a.ids[item]
}

// nextFree returns the first id later loads may hand out fresh.
func (a *idAssigner) nextFree() menu.ItemID {
	return max(a.next, a.highest+1)
}
