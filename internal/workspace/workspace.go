// Package workspace groups tabs into named, switchable sets.
//
// A workspace is a list of URLs. Switching captures the live tab set
// into the outgoing workspace, closes those tabs except ones pinned
// in a slot, and opens the incoming workspace's URLs. Next/Prev cycle
// through workspaces in creation order, wrapping at the ends.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/tabstorm/internal/tabs"
)

// storeKey is the durable-store key holding workspace state.
const storeKey = "workspaces"

// Errors returned by workspace operations.
var (
	// ErrNotFound indicates no workspace has the given id.
	ErrNotFound = errors.New("workspace not found")

	// ErrNoWorkspaces indicates a cycle operation with nothing to
	// cycle through.
	ErrNoWorkspaces = errors.New("no workspaces")

	// ErrEmptyName indicates a create or rename with a blank name.
	ErrEmptyName = errors.New("workspace name is empty")
)

// Workspace is one named tab group.
type Workspace struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Locators []string `json:"locators"`
}

// Persister is the durable-store surface the manager needs.
type Persister interface {
	Load(ctx context.Context, key string, v any) (bool, error)
	Save(ctx context.Context, key string, v any) error
}

// Pinned reports slot membership for a locator. Pinned tabs survive a
// workspace switch. Implemented by slot.Registry.
type Pinned interface {
	Annotate(locator string) (int, bool)
}

// storedState is the persisted form of the manager.
type storedState struct {
	Active string      `json:"active,omitempty"`
	Spaces []Workspace `json:"spaces"`
}

// Manager owns the workspace list and the active workspace.
type Manager struct {
	mu sync.Mutex

	dir     tabs.Directory
	persist Persister
	pinned  Pinned // nil means nothing is pinned

	spaces []*Workspace
	active string // id, "" when none
}

// New creates a manager and hydrates it from the durable store.
func New(ctx context.Context, dir tabs.Directory, persist Persister) (*Manager, error) {
	m := &Manager{
		dir:     dir,
		persist: persist,
	}

	var stored storedState
	found, err := persist.Load(ctx, storeKey, &stored)
	if err != nil {
		return nil, fmt.Errorf("hydrating workspaces: %w", err)
	}
	if found {
		for i := range stored.Spaces {
			ws := stored.Spaces[i]
			m.spaces = append(m.spaces, &ws)
		}
		m.active = stored.Active
	}

	return m, nil
}

// KeepPinned exempts slot-pinned tabs from being closed on switch.
func (m *Manager) KeepPinned(p Pinned) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pinned = p
}

// Create adds an empty workspace and returns it.
func (m *Manager) Create(ctx context.Context, name string) (Workspace, error) {
	if name == "" {
		return Workspace{}, ErrEmptyName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ws := &Workspace{
		ID:   uuid.NewString(),
		Name: name,
	}
	m.spaces = append(m.spaces, ws)
	if err := m.save(ctx); err != nil {
		return Workspace{}, err
	}
	return *ws, nil
}

// Rename changes a workspace's name.
func (m *Manager) Rename(ctx context.Context, id, name string) error {
	if name == "" {
		return ErrEmptyName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ws := m.find(id)
	if ws == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	ws.Name = name
	return m.save(ctx)
}

// Delete removes a workspace. Deleting the active workspace leaves no
// workspace active; live tabs are untouched.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, ws := range m.spaces {
		if ws.ID == id {
			m.spaces = append(m.spaces[:i], m.spaces[i+1:]...)
			if m.active == id {
				m.active = ""
			}
			return m.save(ctx)
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Capture snapshots the live tab set into the workspace.
func (m *Manager) Capture(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws := m.find(id)
	if ws == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := m.captureInto(ctx, ws); err != nil {
		return err
	}
	return m.save(ctx)
}

// Switch activates the workspace: the outgoing workspace captures the
// live tab set, those tabs close, and the incoming workspace's URLs
// open. Switching to the already-active workspace is a no-op.
func (m *Manager) Switch(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.switchLocked(ctx, id)
}

// Next activates the workspace after the active one, wrapping. With no
// active workspace the first one activates.
func (m *Manager) Next(ctx context.Context) (Workspace, error) {
	return m.cycle(ctx, 1)
}

// Prev activates the workspace before the active one, wrapping.
func (m *Manager) Prev(ctx context.Context) (Workspace, error) {
	return m.cycle(ctx, -1)
}

// List returns copies of all workspaces in creation order.
func (m *Manager) List() []Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Workspace, 0, len(m.spaces))
	for _, ws := range m.spaces {
		out = append(out, *ws)
	}
	return out
}

// Active returns the active workspace, ok false when none is.
func (m *Manager) Active() (Workspace, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws := m.find(m.active)
	if ws == nil {
		return Workspace{}, false
	}
	return *ws, true
}

func (m *Manager) cycle(ctx context.Context, step int) (Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.spaces) == 0 {
		return Workspace{}, ErrNoWorkspaces
	}

	next := 0
	if cur := m.indexOf(m.active); cur >= 0 {
		next = (cur + step + len(m.spaces)) % len(m.spaces)
	} else if step < 0 {
		next = len(m.spaces) - 1
	}

	target := m.spaces[next]
	if err := m.switchLocked(ctx, target.ID); err != nil {
		return Workspace{}, err
	}
	return *target, nil
}

func (m *Manager) switchLocked(ctx context.Context, id string) error {
	target := m.find(id)
	if target == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if m.active == id {
		return nil
	}

	live, err := m.dir.List(ctx)
	if err != nil {
		return fmt.Errorf("listing tabs: %w", err)
	}

	// With no workspace active the live tabs have no home to return
	// to; the target adopts them instead of closing them.
	outgoing := m.find(m.active)
	if outgoing == nil {
		target.Locators = locatorsOf(live)
		m.active = id
		return m.save(ctx)
	}

	// The outgoing workspace remembers what was open.
	outgoing.Locators = locatorsOf(live)

	// Slot-pinned tabs stay open across the switch.
	kept := make(map[string]bool)
	for _, t := range live {
		if m.isPinned(t.Locator) {
			kept[t.Locator] = true
			continue
		}
		if err := m.dir.Close(ctx, t.Handle); err != nil {
			return fmt.Errorf("closing tab %s: %w", t.Handle, err)
		}
	}
	for _, locator := range target.Locators {
		if kept[locator] {
			continue
		}
		if _, err := m.dir.Create(ctx, locator); err != nil {
			return fmt.Errorf("opening %s: %w", locator, err)
		}
	}

	m.active = id
	return m.save(ctx)
}

func (m *Manager) captureInto(ctx context.Context, ws *Workspace) error {
	live, err := m.dir.List(ctx)
	if err != nil {
		return fmt.Errorf("listing tabs: %w", err)
	}
	ws.Locators = locatorsOf(live)
	return nil
}

func (m *Manager) isPinned(locator string) bool {
	if m.pinned == nil || locator == "" {
		return false
	}
	_, ok := m.pinned.Annotate(locator)
	return ok
}

func (m *Manager) find(id string) *Workspace {
	for _, ws := range m.spaces {
		if ws.ID == id {
			return ws
		}
	}
	return nil
}

func (m *Manager) indexOf(id string) int {
	for i, ws := range m.spaces {
		if ws.ID == id {
			return i
		}
	}
	return -1
}

// save writes the workspace state through to the durable store.
// Caller must hold the mutex.
func (m *Manager) save(ctx context.Context) error {
	stored := storedState{Active: m.active}
	for _, ws := range m.spaces {
		stored.Spaces = append(stored.Spaces, *ws)
	}
	if err := m.persist.Save(ctx, storeKey, stored); err != nil {
		return fmt.Errorf("persisting workspaces: %w", err)
	}
	return nil
}

func locatorsOf(targets []tabs.Target) []string {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		if t.Locator != "" {
			out = append(out, t.Locator)
		}
	}
	return out
}
