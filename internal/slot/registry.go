// Package slot manages the numbered quick-access slots: marking tabs
// into slots, jumping back to them, and repairing stale tab references
// after the browser reassigns ids.
package slot

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/dshills/tabstorm/internal/tabs"
)

// storeKey is the durable-store key holding the slot records.
const storeKey = "slots"

// disallowedSchemes are URL schemes that cannot be pinned: internal
// browser pages and non-recreatable pseudo-locators.
var disallowedSchemes = map[string]bool{
	"about":            true,
	"chrome":           true,
	"chrome-extension": true,
	"edge":             true,
	"javascript":       true,
	"data":             true,
	"view-source":      true,
}

// Persister is the durable-store surface the registry needs.
type Persister interface {
	Load(ctx context.Context, key string, v any) (bool, error)
	Save(ctx context.Context, key string, v any) error
}

// Config configures the registry.
type Config struct {
	// MaxSlots is the slot count, bounded to [1, 10].
	MaxSlots int

	// Recreate permits jump to open a new tab at the pinned URL when
	// no live tab matches.
	Recreate bool
}

// Registry is the fixed-capacity array of slots. All mutations are
// serialized and written through to the durable store, so the registry
// is the single writer for its store key.
type Registry struct {
	mu sync.Mutex

	dir      tabs.Directory
	persist  Persister
	recreate bool

	// slots[i] holds slot i+1, nil when empty.
	slots []*Record
}

// New creates a registry and hydrates it from the durable store.
func New(ctx context.Context, cfg Config, dir tabs.Directory, persist Persister) (*Registry, error) {
	n := cfg.MaxSlots
	if n < 1 {
		n = 1
	}
	if n > 10 {
		n = 10
	}

	r := &Registry{
		dir:      dir,
		persist:  persist,
		recreate: cfg.Recreate,
		slots:    make([]*Record, n),
	}

	var stored []storedRecord
	found, err := persist.Load(ctx, storeKey, &stored)
	if err != nil {
		return nil, fmt.Errorf("hydrating slots: %w", err)
	}
	if found {
		for _, s := range stored {
			if s.Index < 1 || s.Index > n || s.Locator == "" {
				continue // capacity shrank or row is damaged
			}
			rec := s.toRecord()
			rec.Index = s.Index
			r.slots[s.Index-1] = rec
		}
	}

	return r, nil
}

// MaxSlots returns the configured slot count.
func (r *Registry) MaxSlots() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

// Mark pins a target into the slot, replacing any prior occupant. When
// target is nil the currently focused tab is pinned. Targets without a
// durable locator, or on internal schemes, fail with ErrInvalidTarget.
func (r *Registry) Mark(ctx context.Context, index int, target *tabs.Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkIndex(index); err != nil {
		return err
	}
	return r.markLocked(ctx, index, target)
}

// MarkFree pins a target into the first empty slot and returns the slot
// number. With every slot occupied it returns ErrInvalidSlotIndex.
func (r *Registry) MarkFree(ctx context.Context, target *tabs.Target) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, rec := range r.slots {
		if rec == nil {
			if err := r.markLocked(ctx, i+1, target); err != nil {
				return 0, err
			}
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: no free slot", ErrInvalidSlotIndex)
}

// markLocked writes a record at index. Caller must hold the mutex and
// have range-checked index.
func (r *Registry) markLocked(ctx context.Context, index int, target *tabs.Target) error {
	var t tabs.Target
	if target != nil {
		t = *target
	} else {
		cur, err := r.dir.Current(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTarget, err)
		}
		t = cur
	}

	if !pinnable(t.Locator) {
		return fmt.Errorf("%w: %q", ErrInvalidTarget, t.Locator)
	}

	r.slots[index-1] = &Record{
		Index:   index,
		Locator: t.Locator,
		Handle:  Resolved(t.Handle, t.Container),
		Title:   t.Title,
		Icon:    t.Icon,
	}
	return r.save(ctx)
}

// Remove clears the slot. Clearing an empty slot is a no-op.
func (r *Registry) Remove(ctx context.Context, index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkIndex(index); err != nil {
		return err
	}
	if r.slots[index-1] == nil {
		return nil
	}
	r.slots[index-1] = nil
	return r.save(ctx)
}

// RemoveByLocator clears every slot whose locator equals the given
// value. All matches are cleared, so a URL pinned twice disappears from
// both slots.
func (r *Registry) RemoveByLocator(ctx context.Context, locator string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := false
	for i, rec := range r.slots {
		if rec != nil && rec.Locator == locator {
			r.slots[i] = nil
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return r.save(ctx)
}

// Jump activates the tab pinned in the slot.
//
// Resolution order: probe the recorded live handle; failing that, find
// a live tab with the same URL and adopt its handle; failing that,
// recreate the tab when configured to, else ErrTargetUnavailable.
//
// Activate and Create are round trips to the browser, so the mutex is
// released around them; the slot is re-checked before the result is
// recorded.
func (r *Registry) Jump(ctx context.Context, index int) error {
	r.mu.Lock()

	if err := r.checkIndex(index); err != nil {
		r.mu.Unlock()
		return err
	}
	rec := r.slots[index-1]
	if rec == nil {
		r.mu.Unlock()
		return fmt.Errorf("%w: slot %d", ErrEmptySlot, index)
	}
	locator := rec.Locator

	// Resolve to a live tab under the lock. Directory reads are local.
	var target tabs.Handle
	var container tabs.Container
	resolved := false

	// Step 1: the recorded handle may still be live.
	if tab, c, ok := rec.Handle.Get(); ok {
		if live, err := r.dir.Get(ctx, tab); err == nil {
			rec.Title = live.Title
			rec.Icon = live.Icon
			target, container, resolved = tab, c, true
		}
	}

	// Step 2: self-heal from a live tab sharing the locator.
	if !resolved {
		if live, ok := r.findByLocator(ctx, locator); ok {
			rec.Handle = Resolved(live.Handle, live.Container)
			rec.Title = live.Title
			rec.Icon = live.Icon
			target, container, resolved = live.Handle, live.Container, true
		}
	}

	if !resolved && !r.recreate {
		r.mu.Unlock()
		return fmt.Errorf("%w: slot %d (%s)", ErrTargetUnavailable, index, locator)
	}
	r.mu.Unlock()

	if resolved {
		if err := r.dir.Activate(ctx, target, container); err != nil {
			return fmt.Errorf("activating slot %d: %w", index, err)
		}
		return r.adopt(ctx, index, locator, Resolved(target, container))
	}

	// Step 3: recreate as a last resort.
	created, err := r.dir.Create(ctx, locator)
	if err != nil {
		return fmt.Errorf("recreating slot %d: %w", index, err)
	}
	return r.adopt(ctx, index, locator, Resolved(created.Handle, created.Container))
}

// adopt records a handle obtained while the mutex was released. The
// slot may have been emptied or repinned in the meantime; in that case
// the handle is discarded and the activation stands on its own.
func (r *Registry) adopt(ctx context.Context, index int, locator string, h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.slots[index-1]
	if rec == nil || rec.Locator != locator {
		return nil
	}
	rec.Handle = h
	return r.save(ctx)
}

// Swap exchanges two slots. Swapping a slot with itself is a no-op.
func (r *Registry) Swap(ctx context.Context, a, b int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkIndex(a); err != nil {
		return err
	}
	if err := r.checkIndex(b); err != nil {
		return err
	}
	if a == b {
		return nil
	}

	r.slots[a-1], r.slots[b-1] = r.slots[b-1], r.slots[a-1]
	r.reindex()
	return r.save(ctx)
}

// Move takes the record at from and inserts it at to, shifting the
// records between them toward from.
func (r *Registry) Move(ctx context.Context, from, to int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkIndex(from); err != nil {
		return err
	}
	if err := r.checkIndex(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}

	rec := r.slots[from-1]
	if from < to {
		copy(r.slots[from-1:], r.slots[from:to])
	} else {
		copy(r.slots[to:], r.slots[to-1:from-1])
	}
	r.slots[to-1] = rec
	r.reindex()
	return r.save(ctx)
}

// Reconcile repairs stale handles by locator lookup. Records that still
// cannot resolve keep their stale handle so the locator fallback stays
// available on the next jump. Calling it again with no directory change
// mutates nothing.
func (r *Registry) Reconcile(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := false
	for _, rec := range r.slots {
		if rec == nil {
			continue
		}
		tab, _, ok := rec.Handle.Get()
		if ok {
			if _, err := r.dir.Get(ctx, tab); err == nil {
				continue // still live
			}
		}
		live, found := r.findByLocator(ctx, rec.Locator)
		if !found {
			continue
		}
		newHandle := Resolved(live.Handle, live.Container)
		if rec.Handle == newHandle && rec.Title == live.Title && rec.Icon == live.Icon {
			continue
		}
		rec.Handle = newHandle
		rec.Title = live.Title
		rec.Icon = live.Icon
		changed = true
	}

	if !changed {
		return nil
	}
	return r.save(ctx)
}

// Clear empties every slot.
func (r *Registry) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.slots {
		r.slots[i] = nil
	}
	return r.save(ctx)
}

// Get returns a copy of the record in the slot, ok false when empty or
// out of range.
func (r *Registry) Get(index int) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 1 || index > len(r.slots) || r.slots[index-1] == nil {
		return Record{}, false
	}
	return *r.slots[index-1], true
}

// All returns copies of the occupied records in slot order.
func (r *Registry) All() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, 0, len(r.slots))
	for _, rec := range r.slots {
		if rec != nil {
			out = append(out, *rec)
		}
	}
	return out
}

// Annotate returns the slot number pinned to the locator, for search
// result decoration. Returns the lowest matching slot.
func (r *Registry) Annotate(locator string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.slots {
		if rec != nil && rec.Locator == locator {
			return rec.Index, true
		}
	}
	return 0, false
}

func (r *Registry) checkIndex(index int) error {
	if index < 1 || index > len(r.slots) {
		return fmt.Errorf("%w: %d (have %d slots)", ErrInvalidSlotIndex, index, len(r.slots))
	}
	return nil
}

// reindex rederives every record's Index from its position. Must run
// after any repositioning so Index == position+1 holds.
func (r *Registry) reindex() {
	for i, rec := range r.slots {
		if rec != nil {
			rec.Index = i + 1
		}
	}
}

// findByLocator scans live targets for a URL match. First match in
// directory order wins.
func (r *Registry) findByLocator(ctx context.Context, locator string) (tabs.Target, bool) {
	live, err := r.dir.List(ctx)
	if err != nil {
		return tabs.Target{}, false
	}
	for _, t := range live {
		if t.Locator == locator {
			return t, true
		}
	}
	return tabs.Target{}, false
}

// save writes the current records through to the durable store.
// Caller must hold the mutex.
func (r *Registry) save(ctx context.Context) error {
	stored := make([]storedRecord, 0, len(r.slots))
	for _, rec := range r.slots {
		if rec != nil {
			stored = append(stored, rec.toStored())
		}
	}
	if err := r.persist.Save(ctx, storeKey, stored); err != nil {
		return fmt.Errorf("persisting slots: %w", err)
	}
	return nil
}

// pinnable reports whether a locator is durable enough to pin.
func pinnable(locator string) bool {
	if locator == "" {
		return false
	}
	u, err := url.Parse(locator)
	if err != nil || u.Scheme == "" {
		return false
	}
	return !disallowedSchemes[strings.ToLower(u.Scheme)]
}
