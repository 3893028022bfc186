package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dshills/tabstorm/internal/action"
	"github.com/dshills/tabstorm/internal/search"
	"github.com/dshills/tabstorm/internal/slot"
	"github.com/dshills/tabstorm/internal/tabs"
	"github.com/dshills/tabstorm/internal/workspace"
)

type memPersister struct {
	data map[string]json.RawMessage
}

func newMemPersister() *memPersister {
	return &memPersister{data: make(map[string]json.RawMessage)}
}

func (p *memPersister) Load(ctx context.Context, key string, v any) (bool, error) {
	raw, ok := p.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

func (p *memPersister) Save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.data[key] = raw
	return nil
}

type fakeUI struct {
	scopes []search.Scope
}

func (u *fakeUI) OpenSearch(scope search.Scope) {
	u.scopes = append(u.scopes, scope)
}

type testFixture struct {
	d      *Dispatcher
	dir    *tabs.MemDirectory
	slots  *slot.Registry
	spaces *workspace.Manager
	ui     *fakeUI
}

func newTestDispatcher(t *testing.T) *testFixture {
	t.Helper()
	ctx := context.Background()

	dir := tabs.NewMemDirectory()
	persist := newMemPersister()
	slots, err := slot.New(ctx, slot.Config{MaxSlots: 5, Recreate: true}, dir, persist)
	if err != nil {
		t.Fatalf("slot.New error: %v", err)
	}
	spaces, err := workspace.New(ctx, dir, persist)
	if err != nil {
		t.Fatalf("workspace.New error: %v", err)
	}
	ui := &fakeUI{}
	return &testFixture{
		d:      New(slots, spaces, dir, ui),
		dir:    dir,
		slots:  slots,
		spaces: spaces,
		ui:     ui,
	}
}

func TestSearchActionsOpenScopedSearch(t *testing.T) {
	f := newTestDispatcher(t)
	ctx := context.Background()

	for _, act := range []action.Action{
		action.Open{},
		action.SearchTabs{},
		action.SearchHistory{},
		action.SearchBookmarks{},
	} {
		if err := f.d.Execute(ctx, act); err != nil {
			t.Fatalf("Execute(%s) error: %v", act.Name(), err)
		}
	}

	want := []search.Scope{search.ScopeAll, search.ScopeTabs, search.ScopeHistory, search.ScopeBookmarks}
	if len(f.ui.scopes) != len(want) {
		t.Fatalf("len(scopes) = %d, want %d", len(f.ui.scopes), len(want))
	}
	for i, scope := range want {
		if f.ui.scopes[i] != scope {
			t.Errorf("scopes[%d] = %v, want %v", i, f.ui.scopes[i], scope)
		}
	}
}

func TestMarkAndJumpFlow(t *testing.T) {
	f := newTestDispatcher(t)
	ctx := context.Background()

	f.dir.Create(ctx, "https://a.test")

	if err := f.d.Execute(ctx, action.MarkSlot{Slot: 2}); err != nil {
		t.Fatalf("MarkSlot error: %v", err)
	}
	if _, ok := f.slots.Get(2); !ok {
		t.Fatal("slot 2 should be occupied")
	}

	f.dir.Create(ctx, "https://b.test") // focus moves

	if err := f.d.Execute(ctx, action.JumpSlot{Slot: 2}); err != nil {
		t.Fatalf("JumpSlot error: %v", err)
	}
	cur, _ := f.dir.Current(ctx)
	if cur.Locator != "https://a.test" {
		t.Errorf("current = %q, want a.test", cur.Locator)
	}
}

func TestMarkAddUsesFirstFreeSlot(t *testing.T) {
	f := newTestDispatcher(t)
	ctx := context.Background()

	f.dir.Create(ctx, "https://a.test")
	if err := f.d.Execute(ctx, action.MarkAdd{}); err != nil {
		t.Fatalf("MarkAdd error: %v", err)
	}

	rec, ok := f.slots.Get(1)
	if !ok || rec.Locator != "https://a.test" {
		t.Errorf("slot 1 = %+v, want a.test", rec)
	}
}

func TestRemoveCurrentClearsSlots(t *testing.T) {
	f := newTestDispatcher(t)
	ctx := context.Background()

	f.dir.Create(ctx, "https://a.test")
	f.d.Execute(ctx, action.MarkSlot{Slot: 1})
	f.d.Execute(ctx, action.MarkSlot{Slot: 3})

	if err := f.d.Execute(ctx, action.RemoveCurrent{}); err != nil {
		t.Fatalf("RemoveCurrent error: %v", err)
	}
	if len(f.slots.All()) != 0 {
		t.Error("both slots holding the current URL should clear")
	}
}

func TestSlotErrorsSurface(t *testing.T) {
	f := newTestDispatcher(t)
	ctx := context.Background()

	if err := f.d.Execute(ctx, action.JumpSlot{Slot: 4}); !errors.Is(err, slot.ErrEmptySlot) {
		t.Errorf("JumpSlot empty error = %v, want ErrEmptySlot", err)
	}
	if err := f.d.Execute(ctx, action.JumpSlot{Slot: 11}); !errors.Is(err, slot.ErrInvalidSlotIndex) {
		t.Errorf("JumpSlot out of range error = %v, want ErrInvalidSlotIndex", err)
	}
}

func TestWorkspaceCycle(t *testing.T) {
	f := newTestDispatcher(t)
	ctx := context.Background()

	a, _ := f.spaces.Create(ctx, "a")
	f.spaces.Create(ctx, "b")

	f.dir.Create(ctx, "https://a.test")

	if err := f.d.Execute(ctx, action.NextWorkspace{}); err != nil {
		t.Fatalf("NextWorkspace error: %v", err)
	}
	active, ok := f.spaces.Active()
	if !ok || active.ID != a.ID {
		t.Errorf("active = %+v, want workspace a", active)
	}

	if err := f.d.Execute(ctx, action.PrevWorkspace{}); err != nil {
		t.Fatalf("PrevWorkspace error: %v", err)
	}
	active, _ = f.spaces.Active()
	if active.Name != "b" {
		t.Errorf("active = %q, want b (wrapped)", active.Name)
	}
}
