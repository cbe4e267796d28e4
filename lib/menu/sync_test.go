// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"slices"
	"testing"
)

func TestSeparatorAndLabelRenderInOrder(t *testing.T) {
	remote := newFakeRemote()
	remote.add(RootID, 1, Properties{PropertyType: TypeSeparator})
	remote.add(RootID, 2, Properties{PropertyLabel: "Quit"})
	renderer := newRecordingRenderer()
	client := newTestClient(t, remote, renderer, Options{})

	synchronize(t, client)

	if got, want := renderer.root.labels(), []string{"---", "Quit"}; !slices.Equal(got, want) {
		t.Fatalf("root labels = %q, want %q", got, want)
	}
	if kind := renderer.live(1).view.Kind; kind != KindSeparator {
		t.Errorf("item 1 kind = %v, want separator", kind)
	}
	if kind := renderer.live(2).view.Kind; kind != KindPlain {
		t.Errorf("item 2 kind = %v, want plain", kind)
	}
	if renderer.live(1).activators != 0 {
		t.Errorf("separator has an activation listener")
	}
	if renderer.live(2).activators != 1 {
		t.Errorf("plain item has %d activation listeners, want 1", renderer.live(2).activators)
	}
}

func TestVisibilityUpdateAppliesInPlace(t *testing.T) {
	remote := newFakeRemote()
	remote.add(RootID, 1, Properties{PropertyLabel: "Open"})
	remote.add(RootID, 2, Properties{PropertyLabel: "Quit"})
	renderer := newRecordingRenderer()
	client := newTestClient(t, remote, renderer, Options{})
	synchronize(t, client)
	clears := renderer.root.clears

	client.handleSignal(PropertiesUpdated{Updated: []ItemProperties{
		{ID: 2, Properties: Properties{PropertyVisible: false}},
	}})
	settle(t, client)

	if renderer.live(2).snapshot().visible {
		t.Fatalf("item 2 still visible")
	}
	if !renderer.live(1).snapshot().visible {
		t.Fatalf("item 1 hidden")
	}
	if renderer.buildCount(1) != 1 || renderer.buildCount(2) != 1 {
		t.Fatalf("builds = %d/%d, want 1/1", renderer.buildCount(1), renderer.buildCount(2))
	}
	if renderer.root.clears != clears {
		t.Fatalf("root container was cleared by a visibility update")
	}
	if visible := client.store.properties[2].Bool(PropertyVisible, true); visible {
		t.Fatalf("store not updated")
	}
}

func TestLayoutUpdateAtCurrentRevisionIsIgnored(t *testing.T) {
	remote := newFakeRemote()
	remote.add(RootID, 3, Properties{
		PropertyLabel:           "Sub",
		PropertyChildrenDisplay: ChildrenDisplaySubmenu,
	})
	remote.setRevision(5)
	client := newTestClient(t, remote, newRecordingRenderer(), Options{})
	synchronize(t, client)
	if client.store.Revision() != 5 {
		t.Fatalf("revision = %d, want 5", client.store.Revision())
	}
	calls := remote.layoutCallCount()

	client.handleSignal(LayoutUpdated{Revision: 5, Parent: 3})
	if client.inflight != 0 {
		t.Fatalf("stale layout update issued %d calls", client.inflight)
	}
	client.handleSignal(LayoutUpdated{Revision: 4, Parent: 3})
	settle(t, client)
	if got := remote.layoutCallCount(); got != calls {
		t.Fatalf("layout calls = %d, want %d", got, calls)
	}

	client.handleSignal(LayoutUpdated{Revision: 6, Parent: 3})
	settle(t, client)
	if got := remote.layoutCallCount(); got != calls+1 {
		t.Fatalf("layout calls after newer revision = %d, want %d", got, calls+1)
	}
}

func TestMnemonicMarkersAreStripped(t *testing.T) {
	remote := newFakeRemote()
	remote.add(RootID, 1, Properties{PropertyLabel: "E_xit"})
	renderer := newRecordingRenderer()
	client := newTestClient(t, remote, renderer, Options{})
	synchronize(t, client)

	if label := renderer.live(1).snapshot().label; label != "Exit" {
		t.Fatalf("label = %q, want %q", label, "Exit")
	}

	client.handleSignal(PropertiesUpdated{Updated: []ItemProperties{
		{ID: 1, Properties: Properties{PropertyLabel: "_Quit"}},
	}})
	if label := renderer.live(1).snapshot().label; label != "Quit" {
		t.Fatalf("updated label = %q, want %q", label, "Quit")
	}
}

func TestFailedFetchLeavesItemUnrendered(t *testing.T) {
	remote := newFakeRemote()
	remote.add(RootID, 1, Properties{PropertyLabel: "Open"})
	remote.add(RootID, 2, Properties{PropertyLabel: "Save"})
	remote.add(RootID, 3, Properties{PropertyLabel: "Quit"})
	remote.setFailProperties(2, true)
	renderer := newRecordingRenderer()
	client := newTestClient(t, remote, renderer, Options{FetchBatchSize: 1})
	synchronize(t, client)

	if !client.store.Known(2) {
		t.Fatalf("item 2 dropped from the store")
	}
	if client.store.HasProperties(2) {
		t.Fatalf("item 2 has properties after a failed fetch")
	}
	if got, want := renderer.root.ids(), []ItemID{1, 3}; !slices.Equal(got, want) {
		t.Fatalf("rendered ids = %v, want %v", got, want)
	}

	remote.setFailProperties(2, false)
	client.handleSignal(ItemUpdated{ID: 2})
	settle(t, client)

	if got, want := renderer.root.ids(), []ItemID{1, 2, 3}; !slices.Equal(got, want) {
		t.Fatalf("rendered ids after refetch = %v, want %v", got, want)
	}
}

func TestEmptyFetchResultLeavesItemUnrendered(t *testing.T) {
	remote := newFakeRemote()
	remote.add(RootID, 1, Properties{PropertyLabel: "Open"})
	remote.add(RootID, 2, Properties{})
	renderer := newRecordingRenderer()
	client := newTestClient(t, remote, renderer, Options{})
	synchronize(t, client)

	if client.store.HasProperties(2) {
		t.Fatalf("empty property bag was committed")
	}
	if got, want := renderer.root.ids(), []ItemID{1}; !slices.Equal(got, want) {
		t.Fatalf("rendered ids = %v, want %v", got, want)
	}
}

func TestRevisionIsMaximumApplied(t *testing.T) {
	client := newTestClient(t, newFakeRemote(), newRecordingRenderer(), Options{})
	layout := Layout{ID: RootID}

	var maximum uint32
	for _, revision := range []uint32{3, 1, 5, 4, 5, 2, 9, 7} {
		client.applyLayout(RootID, revision, layout, nil)
		maximum = max(maximum, revision)
		if got := client.store.Revision(); got != maximum {
			t.Fatalf("after revision %d: store revision = %d, want %d", revision, got, maximum)
		}
	}
}

func TestFailedLayoutChangesNothing(t *testing.T) {
	remote := newFakeRemote()
	remote.add(RootID, 1, Properties{PropertyLabel: "Open"})
	remote.failLayout = true
	renderer := newRecordingRenderer()
	client := newTestClient(t, remote, renderer, Options{})
	synchronize(t, client)

	if client.store.Revision() != 0 {
		t.Fatalf("revision = %d after a failed layout", client.store.Revision())
	}
	if client.store.Known(1) {
		t.Fatalf("item 1 known after a failed layout")
	}
	if renderer.liveCount() != 0 {
		t.Fatalf("%d nodes rendered after a failed layout", renderer.liveCount())
	}
}

func TestReapplyingLayoutIsIdempotent(t *testing.T) {
	remote := newFakeRemote()
	remote.add(RootID, 1, Properties{PropertyLabel: "File", PropertyChildrenDisplay: ChildrenDisplaySubmenu})
	remote.add(1, 3, Properties{PropertyLabel: "Open"})
	remote.add(RootID, 2, Properties{PropertyLabel: "Quit"})
	renderer := newRecordingRenderer()
	client := newTestClient(t, remote, renderer, Options{})
	synchronize(t, client)

	before := client.snapshot()
	builds := len(renderer.nodes)
	layout := remote.layoutOf(RootID, 0)

	client.applyLayout(RootID, client.store.Revision(), layout, nil)
	client.applyLayout(RootID, client.store.Revision()-1, layout, nil)
	settle(t, client)

	if after := client.snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("store changed:\nbefore %+v\nafter  %+v", before, after)
	}
	if len(renderer.nodes) != builds {
		t.Fatalf("nodes built = %d, want %d", len(renderer.nodes), builds)
	}
}

func TestCollectorRemovesItemsDroppedFromLayout(t *testing.T) {
	remote := newFakeRemote()
	remote.add(RootID, 1, Properties{PropertyLabel: "File", PropertyChildrenDisplay: ChildrenDisplaySubmenu})
	remote.add(1, 3, Properties{PropertyLabel: "Open"})
	remote.add(RootID, 2, Properties{PropertyLabel: "Quit"})
	renderer := newRecordingRenderer()
	client := newTestClient(t, remote, renderer, Options{})
	synchronize(t, client)

	removedNode := renderer.live(1)
	nestedNode := renderer.live(3)
	remote.setChildren(RootID, 2)
	client.requestLayout(RootID)
	settle(t, client)

	for _, id := range []ItemID{1, 3} {
		if client.store.Known(id) || client.store.HasProperties(id) {
			t.Errorf("item %d still in the store", id)
		}
		if _, rendered := client.items[id]; rendered {
			t.Errorf("item %d still rendered", id)
		}
	}
	if !removedNode.snapshot().destroyed || !nestedNode.snapshot().destroyed {
		t.Errorf("collected nodes were not destroyed")
	}
	if !client.store.Known(2) {
		t.Errorf("item 2 was collected")
	}
	if got, want := renderer.root.ids(), []ItemID{2}; !slices.Equal(got, want) {
		t.Errorf("rendered ids = %v, want %v", got, want)
	}
}

func TestCollectorSweepsUnrenderedOrphans(t *testing.T) {
	remote := newFakeRemote()
	remote.add(RootID, 1, Properties{PropertyLabel: "Open"})
	remote.add(RootID, 2, Properties{PropertyLabel: "Broken"})
	remote.setFailProperties(2, true)
	client := newTestClient(t, remote, newRecordingRenderer(), Options{FetchBatchSize: 1})
	synchronize(t, client)
	if !client.store.Known(2) {
		t.Fatalf("item 2 not discovered")
	}

	remote.setChildren(RootID, 1)
	client.requestLayout(RootID)
	settle(t, client)

	if client.store.Known(2) {
		t.Fatalf("unreachable unrendered item 2 was not swept")
	}
	if !client.store.Known(1) {
		t.Fatalf("item 1 was swept")
	}
}

// TestMirrorTracksRestructuring reshapes a random tree repeatedly and
// checks that the rendered tree always equals the remote tree: no
// reachable item is ever collected and no unreachable item survives.
func TestMirrorTracksRestructuring(t *testing.T) {
	const count = 12
	random := rand.New(rand.NewPCG(7, 11))
	isSubmenu := func(id ItemID) bool { return id%3 == 0 }

	remote := newFakeRemote()
	for id := ItemID(1); id <= count; id++ {
		properties := Properties{PropertyLabel: fmt.Sprintf("item %d", id)}
		if isSubmenu(id) {
			properties[PropertyChildrenDisplay] = ChildrenDisplaySubmenu
		}
		remote.properties[id] = properties
	}
	reshape := func() {
		children := map[ItemID][]ItemID{RootID: nil}
		parents := []ItemID{RootID}
		for _, index := range random.Perm(count) {
			id := ItemID(index + 1)
			if random.IntN(4) == 0 {
				continue
			}
			parent := parents[random.IntN(len(parents))]
			children[parent] = append(children[parent], id)
			if isSubmenu(id) {
				parents = append(parents, id)
			}
		}
		remote.mu.Lock()
		remote.children = children
		remote.revision++
		remote.mu.Unlock()
	}

	renderer := newRecordingRenderer()
	client := newTestClient(t, remote, renderer, Options{})

	var check func(round int, parent ItemID, container *fakeContainer) int
	check = func(round int, parent ItemID, container *fakeContainer) int {
		want := remote.children[parent]
		if got := container.ids(); !slices.Equal(got, want) {
			t.Fatalf("round %d: children of %d rendered as %v, want %v", round, parent, got, want)
		}
		reachable := len(want)
		for _, id := range want {
			if isSubmenu(id) {
				reachable += check(round, id, renderer.live(id).container)
			}
		}
		return reachable
	}

	for round := range 6 {
		reshape()
		if round == 0 {
			synchronize(t, client)
		} else {
			client.requestLayout(RootID)
			settle(t, client)
		}
		reachable := check(round, RootID, renderer.root)
		if client.store.Len() != reachable+1 {
			t.Fatalf("round %d: store holds %d ids, want %d", round, client.store.Len(), reachable+1)
		}
		if len(client.items) != reachable {
			t.Fatalf("round %d: %d items rendered, want %d", round, len(client.items), reachable)
		}
		if renderer.liveCount() != reachable {
			t.Fatalf("round %d: %d live nodes, want %d", round, renderer.liveCount(), reachable)
		}
	}
}

func TestReplaceInsertsAfterBuiltEarlierSiblings(t *testing.T) {
	siblings := []ItemID{1, 2, 3, 4}
	others := []ItemID{1, 2, 4}
	const target ItemID = 3

	for mask := range 1 << len(others) {
		t.Run(fmt.Sprintf("built=%03b", mask), func(t *testing.T) {
			renderer := newRecordingRenderer()
			client := newTestClient(t, newFakeRemote(), renderer, Options{})
			client.store.setChildren(RootID, siblings)
			for _, id := range siblings {
				client.store.setParent(id, RootID)
				client.store.setProperties(id, Properties{PropertyLabel: fmt.Sprint(id)})
			}

			expected := 0
			for bit, id := range others {
				if mask&(1<<bit) == 0 {
					continue
				}
				if err := client.replace(id, false); err != nil {
					t.Fatalf("replace(%d): %v", id, err)
				}
				if id < target {
					expected++
				}
			}
			for range 2 {
				if err := client.replace(target, false); err != nil {
					t.Fatalf("replace(%d): %v", target, err)
				}
				ids := renderer.root.ids()
				if index := slices.Index(ids, target); index != expected {
					t.Fatalf("item %d inserted at %d, want %d (rendered %v)", target, index, expected, ids)
				}
				if !slices.IsSorted(ids) {
					t.Fatalf("rendered order %v does not follow children order", ids)
				}
			}
		})
	}
}

func TestReplaceMaterializesParent(t *testing.T) {
	renderer := newRecordingRenderer()
	client := newTestClient(t, newFakeRemote(), renderer, Options{})
	client.store.setChildren(RootID, []ItemID{1})
	client.store.setParent(1, RootID)
	client.store.setChildren(1, []ItemID{3})
	client.store.setParent(3, 1)
	client.store.setProperties(3, Properties{PropertyLabel: "Open"})

	err := client.replace(3, true)
	if !errors.Is(err, ErrInconsistentSubtree) {
		t.Fatalf("replace with an unfetched parent: err = %v, want ErrInconsistentSubtree", err)
	}
	if renderer.liveCount() != 0 {
		t.Fatalf("abandoned replace rendered %d nodes", renderer.liveCount())
	}

	client.store.setProperties(1, Properties{PropertyLabel: "File", PropertyChildrenDisplay: ChildrenDisplaySubmenu})
	if err := client.replace(3, true); err != nil {
		t.Fatalf("replace(3): %v", err)
	}
	if got, want := renderer.root.ids(), []ItemID{1}; !slices.Equal(got, want) {
		t.Fatalf("root ids = %v, want %v", got, want)
	}
	if got, want := renderer.live(1).container.ids(), []ItemID{3}; !slices.Equal(got, want) {
		t.Fatalf("submenu ids = %v, want %v", got, want)
	}
}

func TestReplaceUnderNonSubmenuParentIsAbandoned(t *testing.T) {
	renderer := newRecordingRenderer()
	client := newTestClient(t, newFakeRemote(), renderer, Options{})
	client.store.setChildren(RootID, []ItemID{1, 2})
	client.store.setParent(1, RootID)
	client.store.setParent(2, RootID)
	client.store.setChildren(1, []ItemID{3})
	client.store.setParent(3, 1)
	client.store.setProperties(1, Properties{PropertyLabel: "Plain"})
	client.store.setProperties(2, Properties{PropertyLabel: "Sibling"})
	client.store.setProperties(3, Properties{PropertyLabel: "Child"})

	if err := client.rebuild(RootID); err != nil {
		t.Fatalf("rebuild(0): %v", err)
	}
	if got, want := renderer.root.ids(), []ItemID{1, 2}; !slices.Equal(got, want) {
		t.Fatalf("root ids = %v, want %v", got, want)
	}
	if err := client.replace(3, true); !errors.Is(err, ErrInconsistentSubtree) {
		t.Fatalf("replace under a plain item: err = %v, want ErrInconsistentSubtree", err)
	}
	if renderer.buildCount(3) != 0 {
		t.Fatalf("item 3 was built")
	}
}

func TestRebuildReplacesPlainItemThatBecameSubmenu(t *testing.T) {
	renderer := newRecordingRenderer()
	client := newTestClient(t, newFakeRemote(), renderer, Options{})
	client.store.setChildren(RootID, []ItemID{1, 2})
	client.store.setParent(1, RootID)
	client.store.setParent(2, RootID)
	client.store.setProperties(1, Properties{PropertyLabel: "Plain"})
	client.store.setProperties(2, Properties{PropertyLabel: "Sibling"})
	if err := client.rebuild(RootID); err != nil {
		t.Fatalf("rebuild(0): %v", err)
	}

	client.store.setChildren(1, []ItemID{3})
	client.store.setParent(3, 1)
	client.store.setProperties(3, Properties{PropertyLabel: "Child"})
	if err := client.rebuild(1); !errors.Is(err, ErrInconsistentSubtree) {
		t.Fatalf("rebuild of a plain item: err = %v, want ErrInconsistentSubtree", err)
	}

	client.store.setProperties(1, Properties{PropertyLabel: "Menu", PropertyChildrenDisplay: ChildrenDisplaySubmenu})
	if err := client.rebuild(1); err != nil {
		t.Fatalf("rebuild(1) after it became a submenu: %v", err)
	}
	if got, want := renderer.root.ids(), []ItemID{1, 2}; !slices.Equal(got, want) {
		t.Fatalf("root ids = %v, want %v", got, want)
	}
	if got, want := renderer.live(1).container.ids(), []ItemID{3}; !slices.Equal(got, want) {
		t.Fatalf("submenu ids = %v, want %v", got, want)
	}
}

func TestRootCannotBeReplaced(t *testing.T) {
	client := newTestClient(t, newFakeRemote(), newRecordingRenderer(), Options{})
	if err := client.replace(RootID, true); !errors.Is(err, ErrInconsistentSubtree) {
		t.Fatalf("replace(0): err = %v, want ErrInconsistentSubtree", err)
	}
}

func TestBuildFailureSkipsOnlyThatItem(t *testing.T) {
	remote := newFakeRemote()
	remote.add(RootID, 1, Properties{PropertyLabel: "Open"})
	remote.add(RootID, 2, Properties{PropertyLabel: "Broken"})
	remote.add(RootID, 3, Properties{PropertyLabel: "Quit"})
	renderer := newRecordingRenderer()
	renderer.failBuild[2] = true
	client := newTestClient(t, remote, renderer, Options{})
	synchronize(t, client)
	if err := client.rebuild(RootID); err != nil {
		t.Fatalf("rebuild(0): %v", err)
	}

	if got, want := renderer.root.ids(), []ItemID{1, 3}; !slices.Equal(got, want) {
		t.Fatalf("rendered ids = %v, want %v", got, want)
	}
}

func TestEnabledToggleKeepsOneListener(t *testing.T) {
	remote := newFakeRemote()
	remote.add(RootID, 1, Properties{PropertyLabel: "Open"})
	renderer := newRecordingRenderer()
	client := newTestClient(t, remote, renderer, Options{})
	synchronize(t, client)
	node := renderer.live(1)

	for step, enabled := range []bool{false, false, true, true, false, true} {
		client.handleSignal(PropertiesUpdated{Updated: []ItemProperties{
			{ID: 1, Properties: Properties{PropertyEnabled: enabled}},
		}})
		want := 0
		if enabled {
			want = 1
		}
		if got := node.snapshot().activators; got != want {
			t.Fatalf("step %d (enabled=%t): %d activation listeners, want %d", step, enabled, got, want)
		}
	}
	if renderer.buildCount(1) != 1 {
		t.Fatalf("enabled toggling rebuilt the item")
	}
	for index, handle := range renderer.handles {
		if handle.released > 1 {
			t.Fatalf("handle %d released %d times", index, handle.released)
		}
	}
}

func TestDisabledItemBuildsWithoutListener(t *testing.T) {
	remote := newFakeRemote()
	remote.add(RootID, 1, Properties{PropertyLabel: "Open", PropertyEnabled: false})
	renderer := newRecordingRenderer()
	client := newTestClient(t, remote, renderer, Options{})
	synchronize(t, client)

	if renderer.live(1).activators != 0 {
		t.Fatalf("disabled item has an activation listener")
	}
}

func TestKindChangeRebuildsParent(t *testing.T) {
	remote := newFakeRemote()
	remote.add(RootID, 1, Properties{PropertyLabel: "Open"})
	remote.add(RootID, 2, Properties{PropertyLabel: "Bold"})
	renderer := newRecordingRenderer()
	client := newTestClient(t, remote, renderer, Options{})
	synchronize(t, client)

	client.handleSignal(PropertiesUpdated{Updated: []ItemProperties{
		{ID: 2, Properties: Properties{PropertyToggleType: ToggleTypeCheckmark, PropertyToggleState: int32(1)}},
	}})

	node := renderer.live(2)
	if node.view.Kind != KindToggleCheck || !node.snapshot().toggleOn {
		t.Fatalf("item 2 = %v on=%t, want checked checkmark", node.view.Kind, node.toggleOn)
	}
	if got, want := renderer.root.ids(), []ItemID{1, 2}; !slices.Equal(got, want) {
		t.Fatalf("rendered ids = %v, want %v", got, want)
	}
}

func TestNestedKindChangeReplacesParentItem(t *testing.T) {
	remote := newFakeRemote()
	remote.add(RootID, 1, Properties{PropertyLabel: "File", PropertyChildrenDisplay: ChildrenDisplaySubmenu})
	remote.add(1, 3, Properties{PropertyLabel: "Open"})
	remote.add(1, 4, Properties{PropertyLabel: "Recent"})
	remote.add(RootID, 2, Properties{PropertyLabel: "Quit"})
	renderer := newRecordingRenderer()
	client := newTestClient(t, remote, renderer, Options{})
	synchronize(t, client)

	client.handleSignal(PropertiesUpdated{Updated: []ItemProperties{
		{ID: 4, Properties: Properties{PropertyType: TypeSeparator}},
	}})

	if renderer.buildCount(1) != 2 {
		t.Fatalf("submenu 1 built %d times, want 2", renderer.buildCount(1))
	}
	if renderer.buildCount(2) != 1 {
		t.Fatalf("sibling 2 was rebuilt")
	}
	if got, want := renderer.live(1).container.labels(), []string{"Open", "---"}; !slices.Equal(got, want) {
		t.Fatalf("submenu labels = %q, want %q", got, want)
	}
	if got, want := renderer.root.ids(), []ItemID{1, 2}; !slices.Equal(got, want) {
		t.Fatalf("rendered ids = %v, want %v", got, want)
	}
}

func TestToggleStateUpdatesInPlace(t *testing.T) {
	remote := newFakeRemote()
	remote.add(RootID, 1, Properties{
		PropertyLabel:       "Wrap",
		PropertyToggleType:  ToggleTypeRadio,
		PropertyToggleState: int32(0),
	})
	renderer := newRecordingRenderer()
	client := newTestClient(t, remote, renderer, Options{})
	synchronize(t, client)
	if renderer.live(1).snapshot().toggleOn {
		t.Fatalf("radio item starts on")
	}

	client.handleSignal(PropertiesUpdated{Updated: []ItemProperties{
		{ID: 1, Properties: Properties{PropertyToggleState: int32(1)}},
	}})
	if !renderer.live(1).snapshot().toggleOn {
		t.Fatalf("radio item not switched on")
	}
	if renderer.buildCount(1) != 1 {
		t.Fatalf("toggle update rebuilt the item")
	}
}

func TestIconUpdates(t *testing.T) {
	remote := newFakeRemote()
	remote.add(RootID, 1, Properties{PropertyLabel: "Save", PropertyIconName: "document-save"})
	renderer := newRecordingRenderer()
	client := newTestClient(t, remote, renderer, Options{})
	synchronize(t, client)

	client.handleSignal(PropertiesUpdated{Updated: []ItemProperties{
		{ID: 1, Properties: Properties{PropertyIconName: "document-save-as"}},
	}})
	if icon := renderer.live(1).snapshot().icon; icon.Name != "document-save-as" {
		t.Fatalf("icon = %q, want document-save-as", icon.Name)
	}
	if renderer.buildCount(1) != 1 {
		t.Fatalf("in-place icon update rebuilt the item")
	}

	node := renderer.live(1)
	renderer.mu.Lock()
	node.acceptIcon = false
	renderer.mu.Unlock()
	client.handleSignal(PropertiesUpdated{Updated: []ItemProperties{
		{ID: 1, Properties: Properties{PropertyIconName: "edit-copy"}},
	}})
	if renderer.buildCount(1) != 2 {
		t.Fatalf("refused icon update did not rebuild (builds = %d)", renderer.buildCount(1))
	}
	if icon := renderer.live(1).snapshot().icon; icon.Name != "edit-copy" {
		t.Fatalf("rebuilt icon = %q, want edit-copy", icon.Name)
	}

	client.handleSignal(PropertiesUpdated{Removed: []RemovedProperties{
		{ID: 1, Names: []string{PropertyIconName}},
	}})
	if kind := renderer.live(1).view.Kind; kind != KindPlain {
		t.Fatalf("kind after icon removal = %v, want plain", kind)
	}
}

func TestRemovedPropertyRevertsToDefault(t *testing.T) {
	remote := newFakeRemote()
	remote.add(RootID, 1, Properties{PropertyLabel: "Open", PropertyVisible: false})
	renderer := newRecordingRenderer()
	client := newTestClient(t, remote, renderer, Options{})
	synchronize(t, client)
	if renderer.live(1).snapshot().visible {
		t.Fatalf("item starts visible")
	}

	client.handleSignal(PropertiesUpdated{Removed: []RemovedProperties{
		{ID: 1, Names: []string{PropertyVisible}},
	}})
	if !renderer.live(1).snapshot().visible {
		t.Fatalf("item still hidden after visible was removed")
	}
	if _, exists := client.store.properties[1][PropertyVisible]; exists {
		t.Fatalf("removed property still stored")
	}
}

func TestUpdateForUnfetchedItemIsIgnored(t *testing.T) {
	remote := newFakeRemote()
	remote.add(RootID, 1, Properties{PropertyLabel: "Open"})
	remote.setFailProperties(1, true)
	renderer := newRecordingRenderer()
	client := newTestClient(t, remote, renderer, Options{})
	synchronize(t, client)

	client.handleSignal(PropertiesUpdated{Updated: []ItemProperties{
		{ID: 1, Properties: Properties{PropertyLabel: "Partial"}},
		{ID: 99, Properties: Properties{PropertyLabel: "Unknown"}},
	}})
	if client.store.HasProperties(1) || client.store.Known(99) {
		t.Fatalf("partial updates were committed")
	}
	if renderer.liveCount() != 0 {
		t.Fatalf("partial update rendered %d nodes", renderer.liveCount())
	}
}

func TestRootPropertiesDriveSummary(t *testing.T) {
	remote := newFakeRemote()
	remote.properties[RootID] = Properties{PropertyLabel: "Menu", PropertyVisible: false}
	client := newTestClient(t, remote, newRecordingRenderer(), Options{})

	if _, ok := client.Root(); ok {
		t.Fatalf("root summary valid before the root was fetched")
	}
	synchronize(t, client)

	summary, ok := client.Root()
	if !ok {
		t.Fatalf("root summary not valid after synchronization")
	}
	if want := (RootSummary{Title: "Menu", Active: true, Visible: false}); summary != want {
		t.Fatalf("summary = %+v, want %+v", summary, want)
	}

	client.handleSignal(PropertiesUpdated{Updated: []ItemProperties{
		{ID: RootID, Properties: Properties{PropertyEnabled: false}},
	}})
	select {
	case changed := <-client.RootChanged():
		if changed.Active {
			t.Fatalf("root still active: %+v", changed)
		}
	default:
		t.Fatalf("no root change delivered")
	}
}

func TestDiscoveredItemsAreFetchedOnce(t *testing.T) {
	remote := newFakeRemote()
	remote.add(RootID, 7, Properties{PropertyLabel: "Seven"})
	client := newTestClient(t, remote, newRecordingRenderer(), Options{})
	layout := Layout{ID: RootID, Children: []Layout{{ID: 7}}}

	client.applyLayout(RootID, 2, layout, nil)
	client.applyLayout(RootID, 3, layout, nil)
	settle(t, client)
	if got := remote.propertyCallsFor(7); got != 1 {
		t.Fatalf("item 7 fetched %d times, want 1", got)
	}

	client.handleSignal(ItemUpdated{ID: 7})
	settle(t, client)
	if got := remote.propertyCallsFor(7); got != 2 {
		t.Fatalf("ItemUpdated did not force a fetch (%d fetches)", got)
	}
}

func TestFetchesAreBatched(t *testing.T) {
	remote := newFakeRemote()
	for id := ItemID(1); id <= 5; id++ {
		remote.add(RootID, id, Properties{PropertyLabel: fmt.Sprint(id)})
	}
	renderer := newRecordingRenderer()
	client := newTestClient(t, remote, renderer, Options{FetchBatchSize: 2})
	client.requestLayout(RootID)
	settle(t, client)

	var sizes []int
	for _, call := range remote.propertyCalls {
		sizes = append(sizes, len(call))
	}
	slices.Sort(sizes)
	if want := []int{1, 2, 2}; !slices.Equal(sizes, want) {
		t.Fatalf("batch sizes = %v, want %v", sizes, want)
	}
	if got, want := renderer.root.ids(), []ItemID{1, 2, 3, 4, 5}; !slices.Equal(got, want) {
		t.Fatalf("rendered ids = %v, want %v", got, want)
	}
}

func TestLayoutWalkSkipsRepeatedIDs(t *testing.T) {
	client := newTestClient(t, newFakeRemote(), newRecordingRenderer(), Options{})
	layout := Layout{ID: RootID, Children: []Layout{
		{ID: 1, Children: []Layout{{ID: 2, Children: []Layout{{ID: 1}}}}},
		{ID: 2},
		{ID: RootID},
	}}

	client.applyLayout(RootID, 1, layout, nil)
	settle(t, client)

	if got, want := client.store.Children(RootID), []ItemID{1, 2}; !slices.Equal(got, want) {
		t.Fatalf("root children = %v, want %v", got, want)
	}
	if got := client.store.Children(1); len(got) != 0 {
		t.Fatalf("item 1 children = %v, want none", got)
	}
	for _, id := range []ItemID{1, 2} {
		if parent, _ := client.store.Parent(id); parent != RootID {
			t.Fatalf("parent of %d = %d, want root", id, parent)
		}
	}
	if parent, _ := client.store.Parent(RootID); parent != NoParent {
		t.Fatalf("root parent = %d, want NoParent", parent)
	}
}

func TestLayoutWalkIsDepthBounded(t *testing.T) {
	client := newTestClient(t, newFakeRemote(), newRecordingRenderer(), Options{MaxDepth: 3})
	layout := Layout{ID: 5}
	for id := ItemID(4); id >= RootID; id-- {
		layout = Layout{ID: id, Children: []Layout{layout}}
	}

	client.applyLayout(RootID, 1, layout, nil)
	settle(t, client)

	for _, id := range []ItemID{1, 2, 3} {
		if !client.store.Known(id) {
			t.Errorf("item %d within the depth limit is unknown", id)
		}
	}
	for _, id := range []ItemID{4, 5} {
		if client.store.Known(id) {
			t.Errorf("item %d beyond the depth limit is known", id)
		}
	}
}

func TestLayoutForWrongSubtreeIsDiscarded(t *testing.T) {
	client := newTestClient(t, newFakeRemote(), newRecordingRenderer(), Options{})
	client.applyLayout(3, 4, Layout{ID: 8, Children: []Layout{{ID: 9}}}, nil)
	if client.store.Revision() != 0 || client.store.Known(9) {
		t.Fatalf("mismatched layout was applied")
	}
}

func TestCompletionAfterTeardownIsDropped(t *testing.T) {
	remote := newFakeRemote()
	remote.add(RootID, 1, Properties{PropertyLabel: "Open"})
	renderer := newRecordingRenderer()
	client := newTestClient(t, remote, renderer, Options{})

	client.requestLayout(RootID)
	client.fetch([]ItemID{RootID}, true)
	client.teardown()
	settle(t, client)

	if client.store.Revision() != 0 || client.store.Known(1) {
		t.Fatalf("late layout completion mutated a torn-down store")
	}
	if _, ok := client.Root(); ok {
		t.Fatalf("late property completion updated the root summary")
	}
	if renderer.liveCount() != 0 {
		t.Fatalf("late completion rendered %d nodes", renderer.liveCount())
	}
}
