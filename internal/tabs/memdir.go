package tabs

import (
	"context"
	"strconv"
	"sync"
)

// MemDirectory is an in-memory Directory. It backs tests and offline
// operation, and doubles as the mirrored snapshot the bridge maintains
// from extension deltas.
type MemDirectory struct {
	mu      sync.RWMutex
	order   []Handle
	targets map[Handle]Target
	current Handle
	nextID  int
}

// NewMemDirectory creates an empty in-memory directory.
func NewMemDirectory() *MemDirectory {
	return &MemDirectory{
		targets: make(map[Handle]Target),
	}
}

// List returns all live targets in insertion order.
func (d *MemDirectory) List(ctx context.Context) ([]Target, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Target, 0, len(d.order))
	for _, h := range d.order {
		out = append(out, d.targets[h])
	}
	return out, nil
}

// Get returns the target with the given handle.
func (d *MemDirectory) Get(ctx context.Context, h Handle) (Target, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, ok := d.targets[h]
	if !ok {
		return Target{}, ErrNotFound
	}
	return t, nil
}

// Current returns the focused target.
func (d *MemDirectory) Current(ctx context.Context) (Target, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, ok := d.targets[d.current]
	if !ok {
		return Target{}, ErrNoCurrent
	}
	return t, nil
}

// Activate focuses the target with the given handle.
func (d *MemDirectory) Activate(ctx context.Context, h Handle, c Container) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.targets[h]; !ok {
		return ErrNotFound
	}
	d.current = h
	return nil
}

// Create opens a new target at the locator and focuses it.
func (d *MemDirectory) Create(ctx context.Context, locator string) (Target, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	t := Target{
		Handle:    Handle("mem-" + strconv.Itoa(d.nextID)),
		Container: "mem-win-1",
		Locator:   locator,
	}
	d.targets[t.Handle] = t
	d.order = append(d.order, t.Handle)
	d.current = t.Handle
	return t, nil
}

// Close removes the target. Unknown handles are ignored.
func (d *MemDirectory) Close(ctx context.Context, h Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.removeLocked(h)
	return nil
}

// Put inserts or replaces a target, for snapshot maintenance.
func (d *MemDirectory) Put(t Target) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.targets[t.Handle]; !ok {
		d.order = append(d.order, t.Handle)
	}
	d.targets[t.Handle] = t
}

// Remove deletes a target by handle, for snapshot maintenance.
func (d *MemDirectory) Remove(h Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.removeLocked(h)
}

// SetCurrent marks the focused target, for snapshot maintenance.
func (d *MemDirectory) SetCurrent(h Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.current = h
}

// Replace swaps the whole directory contents, for full snapshots.
func (d *MemDirectory) Replace(targets []Target, current Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.order = d.order[:0]
	d.targets = make(map[Handle]Target, len(targets))
	for _, t := range targets {
		d.order = append(d.order, t.Handle)
		d.targets[t.Handle] = t
	}
	d.current = current
}

func (d *MemDirectory) removeLocked(h Handle) {
	if _, ok := d.targets[h]; !ok {
		return
	}
	delete(d.targets, h)
	for i, existing := range d.order {
		if existing == h {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	if d.current == h {
		d.current = ""
	}
}
