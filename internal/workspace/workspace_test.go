package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dshills/tabstorm/internal/tabs"
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

func newTestManager(t *testing.T) (*Manager, *tabs.MemDirectory, *memPersister) {
	t.Helper()
	dir := tabs.NewMemDirectory()
	persist := newMemPersister()
	m, err := New(context.Background(), dir, persist)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return m, dir, persist
}

func TestCreateRenameDelete(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	ws, err := m.Create(ctx, "work")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if ws.ID == "" {
		t.Error("workspace should get an id")
	}

	if _, err := m.Create(ctx, ""); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Create empty name error = %v, want ErrEmptyName", err)
	}

	if err := m.Rename(ctx, ws.ID, "deep work"); err != nil {
		t.Fatalf("Rename error: %v", err)
	}
	if got := m.List()[0].Name; got != "deep work" {
		t.Errorf("Name = %q, want %q", got, "deep work")
	}

	if err := m.Rename(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Rename missing error = %v, want ErrNotFound", err)
	}

	if err := m.Delete(ctx, ws.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if len(m.List()) != 0 {
		t.Error("workspace list should be empty after delete")
	}
}

func TestSwitchMovesTabs(t *testing.T) {
	ctx := context.Background()
	m, dir, _ := newTestManager(t)

	work, _ := m.Create(ctx, "work")
	play, _ := m.Create(ctx, "play")

	dir.Create(ctx, "https://mail.test")
	dir.Create(ctx, "https://docs.test")

	if err := m.Switch(ctx, work.ID); err != nil {
		t.Fatalf("Switch error: %v", err)
	}

	// Switching away captures the live set into the outgoing space.
	if err := m.Switch(ctx, play.ID); err != nil {
		t.Fatalf("Switch error: %v", err)
	}

	list, _ := dir.List(ctx)
	if len(list) != 0 {
		t.Errorf("play workspace should open no tabs, got %d", len(list))
	}

	spaces := m.List()
	if len(spaces[0].Locators) != 2 {
		t.Errorf("work captured %d locators, want 2", len(spaces[0].Locators))
	}

	// Switching back restores the captured tabs.
	if err := m.Switch(ctx, work.ID); err != nil {
		t.Fatalf("Switch error: %v", err)
	}
	list, _ = dir.List(ctx)
	if len(list) != 2 {
		t.Errorf("restored %d tabs, want 2", len(list))
	}
}

func TestSwitchToActiveIsNoop(t *testing.T) {
	ctx := context.Background()
	m, dir, _ := newTestManager(t)

	work, _ := m.Create(ctx, "work")
	m.Switch(ctx, work.ID)
	dir.Create(ctx, "https://a.test")

	if err := m.Switch(ctx, work.ID); err != nil {
		t.Fatalf("Switch error: %v", err)
	}
	list, _ := dir.List(ctx)
	if len(list) != 1 {
		t.Error("re-activating the active workspace must not touch tabs")
	}
}

func TestNextPrevWrap(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	a, _ := m.Create(ctx, "a")
	b, _ := m.Create(ctx, "b")
	c, _ := m.Create(ctx, "c")

	// No active workspace: Next starts at the first.
	got, err := m.Next(ctx)
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if got.ID != a.ID {
		t.Errorf("Next = %q, want first workspace", got.Name)
	}

	if got, _ = m.Next(ctx); got.ID != b.ID {
		t.Errorf("Next = %q, want b", got.Name)
	}
	if got, _ = m.Next(ctx); got.ID != c.ID {
		t.Errorf("Next = %q, want c", got.Name)
	}
	if got, _ = m.Next(ctx); got.ID != a.ID {
		t.Errorf("Next should wrap to a, got %q", got.Name)
	}

	if got, _ = m.Prev(ctx); got.ID != c.ID {
		t.Errorf("Prev should wrap to c, got %q", got.Name)
	}
}

func TestCycleWithNoWorkspaces(t *testing.T) {
	m, _, _ := newTestManager(t)

	if _, err := m.Next(context.Background()); !errors.Is(err, ErrNoWorkspaces) {
		t.Errorf("Next error = %v, want ErrNoWorkspaces", err)
	}
}

func TestHydrationAcrossRestart(t *testing.T) {
	ctx := context.Background()
	dir := tabs.NewMemDirectory()
	persist := newMemPersister()

	m1, _ := New(ctx, dir, persist)
	ws, _ := m1.Create(ctx, "work")
	dir.Create(ctx, "https://a.test")
	m1.Capture(ctx, ws.ID)
	m1.Switch(ctx, ws.ID)

	m2, err := New(ctx, dir, persist)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	spaces := m2.List()
	if len(spaces) != 1 || spaces[0].Name != "work" {
		t.Fatalf("hydrated spaces = %+v, want the work workspace", spaces)
	}
	active, ok := m2.Active()
	if !ok || active.ID != ws.ID {
		t.Error("active workspace should hydrate")
	}
	if len(spaces[0].Locators) != 1 {
		t.Errorf("captured locators = %v, want 1 entry", spaces[0].Locators)
	}
}

// pinnedSet is a Pinned fake over a fixed locator set.
type pinnedSet map[string]int

func (p pinnedSet) Annotate(locator string) (int, bool) {
	slot, ok := p[locator]
	return slot, ok
}

func TestSwitchKeepsPinnedTabs(t *testing.T) {
	ctx := context.Background()
	m, dir, _ := newTestManager(t)
	m.KeepPinned(pinnedSet{"https://mail.test": 1})

	work, _ := m.Create(ctx, "work")
	play, _ := m.Create(ctx, "play")

	pinned, _ := dir.Create(ctx, "https://mail.test")
	dir.Create(ctx, "https://docs.test")

	if err := m.Switch(ctx, work.ID); err != nil {
		t.Fatalf("Switch error: %v", err)
	}
	if err := m.Switch(ctx, play.ID); err != nil {
		t.Fatalf("Switch error: %v", err)
	}

	// The pinned tab survives with its handle; the other closed.
	list, _ := dir.List(ctx)
	if len(list) != 1 {
		t.Fatalf("got %d live tabs, want the pinned one", len(list))
	}
	if list[0].Handle != pinned.Handle {
		t.Errorf("Handle = %q, want the original pinned tab %q", list[0].Handle, pinned.Handle)
	}

	// The outgoing workspace still captured the pinned locator.
	spaces := m.List()
	if got := len(spaces[0].Locators); got != 2 {
		t.Errorf("work captured %d locators, want 2", got)
	}

	// Switching back does not duplicate the pinned tab.
	if err := m.Switch(ctx, work.ID); err != nil {
		t.Fatalf("Switch error: %v", err)
	}
	list, _ = dir.List(ctx)
	if len(list) != 2 {
		t.Fatalf("restored %d tabs, want 2", len(list))
	}
	count := 0
	for _, tab := range list {
		if tab.Locator == "https://mail.test" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("pinned locator appears %d times, want 1", count)
	}
}
