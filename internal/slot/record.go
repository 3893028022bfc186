package slot

import "github.com/dshills/tabstorm/internal/tabs"

// Handle is the live-tab reference of a record: either resolved to a
// runtime tab or unresolved. The two cases are explicit so a stale
// reference is a modeled state, not a missing field.
type Handle struct {
	resolved  bool
	tab       tabs.Handle
	container tabs.Container
}

// Resolved builds a handle pointing at a live tab.
func Resolved(tab tabs.Handle, container tabs.Container) Handle {
	return Handle{resolved: true, tab: tab, container: container}
}

// Unresolved builds a handle with no live tab.
func Unresolved() Handle {
	return Handle{}
}

// Get returns the runtime identifiers. ok is false for the unresolved
// case, in which the identifiers are zero.
func (h Handle) Get() (tab tabs.Handle, container tabs.Container, ok bool) {
	return h.tab, h.container, h.resolved
}

// IsResolved reports whether the handle references a runtime tab. The
// tab may still have been closed since; resolution is a claim, not a
// guarantee.
func (h Handle) IsResolved() bool {
	return h.resolved
}

// Record is one occupied slot.
type Record struct {
	// Index is the 1-based slot number. It always equals the record's
	// position in the registry plus one.
	Index int

	// Locator is the pinned URL: the durable identity used to re-find
	// or recreate the tab.
	Locator string

	// Handle is the last known live-tab reference.
	Handle Handle

	// Title and Icon are cached presentation metadata. Best effort;
	// they may lag the live tab.
	Title string
	Icon  string
}

// storedRecord is the persisted form of a Record.
type storedRecord struct {
	Index     int    `json:"index"`
	Locator   string `json:"locator"`
	Title     string `json:"title,omitempty"`
	Icon      string `json:"icon,omitempty"`
	Resolved  bool   `json:"resolved,omitempty"`
	Tab       string `json:"tab,omitempty"`
	Container string `json:"container,omitempty"`
}

func (r *Record) toStored() storedRecord {
	s := storedRecord{
		Index:   r.Index,
		Locator: r.Locator,
		Title:   r.Title,
		Icon:    r.Icon,
	}
	if tab, container, ok := r.Handle.Get(); ok {
		s.Resolved = true
		s.Tab = string(tab)
		s.Container = string(container)
	}
	return s
}

func (s storedRecord) toRecord() *Record {
	r := &Record{
		Index:   s.Index,
		Locator: s.Locator,
		Title:   s.Title,
		Icon:    s.Icon,
		Handle:  Unresolved(),
	}
	if s.Resolved {
		r.Handle = Resolved(tabs.Handle(s.Tab), tabs.Container(s.Container))
	}
	return r
}
