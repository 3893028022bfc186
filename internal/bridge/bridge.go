package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/tabstorm/internal/input"
	"github.com/dshills/tabstorm/internal/input/key"
	"github.com/dshills/tabstorm/internal/search"
	"github.com/dshills/tabstorm/internal/slot"
	"github.com/dshills/tabstorm/internal/store"
	"github.com/dshills/tabstorm/internal/tabs"
	"github.com/dshills/tabstorm/internal/workspace"
)

// KeyHandler consumes normalized key events. Implemented by
// input.Matcher.
type KeyHandler interface {
	HandleKey(ev input.Event) bool
}

// Searcher answers interactive queries. Implemented by search.Engine.
type Searcher interface {
	Search(ctx context.Context, query string, scope search.Scope, limit int) ([]search.Entry, error)
}

// SlotSource exposes the slot registry to the extension overlay.
type SlotSource interface {
	All() []slot.Record
	Reconcile(ctx context.Context) error
}

// Pages records the extension's page activity into the durable corpus.
// Implemented by store.Store.
type Pages interface {
	RecordVisit(ctx context.Context, locator, title string) error
	SaveBookmark(ctx context.Context, locator, title string) error
	DeleteBookmark(ctx context.Context, locator string) error
	ReplaceBookmarks(ctx context.Context, pages []store.Page) error
}

// Workspaces exposes workspace management to the extension UI.
// Implemented by workspace.Manager.
type Workspaces interface {
	Create(ctx context.Context, name string) (workspace.Workspace, error)
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	Switch(ctx context.Context, id string) error
	List() []workspace.Workspace
	Active() (workspace.Workspace, bool)
}

// Bridge mirrors the extension's tab list and translates between the
// wire protocol and the daemon's components. It implements
// tabs.Directory and the dispatcher's UI surface.
type Bridge struct {
	log    *zap.Logger
	keys   KeyHandler
	mirror *tabs.MemDirectory

	searcher Searcher
	slots    SlotSource
	spaces   Workspaces
	pages    Pages

	mu    sync.Mutex
	trans *Transport
}

// New creates a bridge. The search engine and slot registry are wired
// afterwards with Bind, since both are built on top of the bridge's
// Directory view.
func New(log *zap.Logger, keys KeyHandler) *Bridge {
	return &Bridge{
		log:    log,
		keys:   keys,
		mirror: tabs.NewMemDirectory(),
	}
}

// Bind attaches the components the bridge calls back into. Any of them
// may be nil; the corresponding inbound messages are then ignored or
// rejected.
func (b *Bridge) Bind(searcher Searcher, slots SlotSource, spaces Workspaces, pages Pages) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.searcher = searcher
	b.slots = slots
	b.spaces = spaces
	b.pages = pages
}

// Serve runs one extension connection to completion. A new connection
// replaces any existing one; the old transport is closed.
func (b *Bridge) Serve(ctx context.Context, conn Conn) error {
	trans := NewTransport(conn, b.handle)

	b.mu.Lock()
	if b.trans != nil {
		b.trans.Close()
	}
	b.trans = trans
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		if b.trans == trans {
			b.trans = nil
		}
		b.mu.Unlock()
	}()

	return trans.Run(ctx)
}

// Connected reports whether an extension client is attached.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.trans != nil
}

func (b *Bridge) transport() (*Transport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.trans == nil {
		return nil, ErrNotConnected
	}
	return b.trans, nil
}

func (b *Bridge) handle(ctx context.Context, msg Message) (any, error) {
	switch msg.Type {
	case TypeKey:
		var ev KeyEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return nil, fmt.Errorf("decode key event: %w", err)
		}
		return b.handleKey(ev), nil

	case TypeSnapshot:
		var snap Snapshot
		if err := json.Unmarshal(msg.Data, &snap); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		b.applySnapshot(ctx, snap)
		return nil, nil

	case TypeTabCreated, TypeTabUpdated:
		var info TabInfo
		if err := json.Unmarshal(msg.Data, &info); err != nil {
			return nil, fmt.Errorf("decode tab event: %w", err)
		}
		b.mirror.Put(info.Target())
		if msg.Type == TypeTabUpdated {
			b.recordVisit(ctx, info.URL, info.Title)
		}
		return nil, nil

	case TypeTabRemoved:
		var ref TabRef
		if err := json.Unmarshal(msg.Data, &ref); err != nil {
			return nil, fmt.Errorf("decode tab event: %w", err)
		}
		b.mirror.Remove(tabs.Handle(ref.Handle))
		return nil, nil

	case TypeTabActivated:
		var ref TabRef
		if err := json.Unmarshal(msg.Data, &ref); err != nil {
			return nil, fmt.Errorf("decode tab event: %w", err)
		}
		b.mirror.SetCurrent(tabs.Handle(ref.Handle))
		if t, err := b.mirror.Get(ctx, tabs.Handle(ref.Handle)); err == nil {
			b.recordVisit(ctx, t.Locator, t.Title)
		}
		return nil, nil

	case TypeBookmarksSnapshot, TypeBookmarkCreated, TypeBookmarkRemoved:
		return b.handleBookmark(ctx, msg)

	case TypeWorkspaceCreate, TypeWorkspaceRename, TypeWorkspaceDelete,
		TypeWorkspaceSwitch, TypeWorkspaceList:
		return b.handleWorkspace(ctx, msg)

	case TypeSearchQuery:
		var q SearchQuery
		if err := json.Unmarshal(msg.Data, &q); err != nil {
			return nil, fmt.Errorf("decode search query: %w", err)
		}
		return b.handleSearch(ctx, q)

	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func (b *Bridge) handleKey(ev KeyEvent) KeyResult {
	token, err := key.Normalize(ev.Key)
	if err != nil {
		return KeyResult{Handled: false}
	}
	handled := b.keys.HandleKey(input.Event{Token: token, Editable: ev.Editable})
	return KeyResult{Handled: handled}
}

func (b *Bridge) applySnapshot(ctx context.Context, snap Snapshot) {
	targets := make([]tabs.Target, 0, len(snap.Tabs))
	for _, info := range snap.Tabs {
		targets = append(targets, info.Target())
	}
	b.mirror.Replace(targets, tabs.Handle(snap.Current))
	b.log.Debug("tab snapshot applied", zap.Int("tabs", len(targets)))

	b.mu.Lock()
	slots := b.slots
	b.mu.Unlock()
	if slots == nil {
		return
	}
	if err := slots.Reconcile(ctx); err != nil {
		b.log.Warn("slot reconcile failed", zap.Error(err))
	}
	b.PushSlots()
}

func (b *Bridge) handleBookmark(ctx context.Context, msg Message) (any, error) {
	b.mu.Lock()
	pages := b.pages
	b.mu.Unlock()
	if pages == nil {
		return nil, nil
	}

	switch msg.Type {
	case TypeBookmarksSnapshot:
		var snap BookmarksSnapshot
		if err := json.Unmarshal(msg.Data, &snap); err != nil {
			return nil, fmt.Errorf("decode bookmarks snapshot: %w", err)
		}
		set := make([]store.Page, 0, len(snap.Bookmarks))
		for _, bm := range snap.Bookmarks {
			set = append(set, store.Page{Locator: bm.URL, Title: bm.Title})
		}
		if err := pages.ReplaceBookmarks(ctx, set); err != nil {
			return nil, fmt.Errorf("bookmarks snapshot: %w", err)
		}
		b.log.Debug("bookmark snapshot applied", zap.Int("bookmarks", len(set)))
		return nil, nil

	case TypeBookmarkCreated:
		var bm BookmarkInfo
		if err := json.Unmarshal(msg.Data, &bm); err != nil {
			return nil, fmt.Errorf("decode bookmark event: %w", err)
		}
		return nil, pages.SaveBookmark(ctx, bm.URL, bm.Title)

	default:
		var bm BookmarkInfo
		if err := json.Unmarshal(msg.Data, &bm); err != nil {
			return nil, fmt.Errorf("decode bookmark event: %w", err)
		}
		return nil, pages.DeleteBookmark(ctx, bm.URL)
	}
}

func (b *Bridge) handleWorkspace(ctx context.Context, msg Message) (any, error) {
	b.mu.Lock()
	spaces := b.spaces
	b.mu.Unlock()
	if spaces == nil {
		return nil, fmt.Errorf("workspaces not available")
	}

	switch msg.Type {
	case TypeWorkspaceCreate:
		var req WorkspaceCreate
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return nil, fmt.Errorf("decode workspace request: %w", err)
		}
		ws, err := spaces.Create(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		return WorkspaceInfo{ID: ws.ID, Name: ws.Name}, nil

	case TypeWorkspaceRename:
		var req WorkspaceRename
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return nil, fmt.Errorf("decode workspace request: %w", err)
		}
		return nil, spaces.Rename(ctx, req.ID, req.Name)

	case TypeWorkspaceDelete:
		var req WorkspaceRef
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return nil, fmt.Errorf("decode workspace request: %w", err)
		}
		return nil, spaces.Delete(ctx, req.ID)

	case TypeWorkspaceSwitch:
		var req WorkspaceRef
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return nil, fmt.Errorf("decode workspace request: %w", err)
		}
		return nil, spaces.Switch(ctx, req.ID)

	default: // TypeWorkspaceList
		active, _ := spaces.Active()
		all := spaces.List()
		list := WorkspaceList{Workspaces: make([]WorkspaceInfo, 0, len(all))}
		for _, ws := range all {
			list.Workspaces = append(list.Workspaces, WorkspaceInfo{
				ID:     ws.ID,
				Name:   ws.Name,
				Tabs:   len(ws.Locators),
				Active: ws.ID == active.ID,
			})
		}
		return list, nil
	}
}

func (b *Bridge) handleSearch(ctx context.Context, q SearchQuery) (any, error) {
	b.mu.Lock()
	searcher := b.searcher
	b.mu.Unlock()
	if searcher == nil {
		return nil, fmt.Errorf("search not available")
	}

	scope, err := ParseScope(q.Scope)
	if err != nil {
		return nil, err
	}

	entries, err := searcher.Search(ctx, q.Query, scope, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results := make([]SearchResult, 0, len(entries))
	for _, e := range entries {
		results = append(results, SearchResult{
			URL:    e.Locator,
			Title:  e.Title,
			Source: sourceName(e.Source),
			Handle: string(e.Handle),
			Slot:   e.Slot,
		})
	}
	return SearchResults{Results: results}, nil
}

func (b *Bridge) recordVisit(ctx context.Context, locator, title string) {
	b.mu.Lock()
	pages := b.pages
	b.mu.Unlock()
	if pages == nil || locator == "" {
		return
	}
	if err := pages.RecordVisit(ctx, locator, title); err != nil {
		b.log.Warn("record visit failed", zap.Error(err))
	}
}

// OpenSearch asks the extension to show its search overlay.
func (b *Bridge) OpenSearch(scope search.Scope) {
	trans, err := b.transport()
	if err != nil {
		return
	}
	if err := trans.Notify(TypeSearchOpen, SearchOpen{Scope: scope.String()}); err != nil {
		b.log.Warn("search open notify failed", zap.Error(err))
	}
}

// Notice sends a user-facing message to the extension.
func (b *Bridge) Notice(level, message string) {
	trans, err := b.transport()
	if err != nil {
		return
	}
	if err := trans.Notify(TypeNotice, Notice{Level: level, Message: message}); err != nil {
		b.log.Warn("notice notify failed", zap.Error(err))
	}
}

// PushSlots sends the current slot listing to the extension.
func (b *Bridge) PushSlots() {
	b.mu.Lock()
	trans, slots := b.trans, b.slots
	b.mu.Unlock()
	if trans == nil || slots == nil {
		return
	}

	records := slots.All()
	state := SlotsState{Slots: make([]SlotState, 0, len(records))}
	for _, rec := range records {
		s := SlotState{
			Index: rec.Index,
			URL:   rec.Locator,
			Title: rec.Title,
			Icon:  rec.Icon,
		}
		if tab, _, ok := rec.Handle.Get(); ok {
			s.Live = true
			s.Handle = string(tab)
		}
		state.Slots = append(state.Slots, s)
	}

	if err := trans.Notify(TypeSlotsState, state); err != nil {
		b.log.Warn("slots push failed", zap.Error(err))
	}
}

// List implements tabs.Directory over the mirrored snapshot.
func (b *Bridge) List(ctx context.Context) ([]tabs.Target, error) {
	return b.mirror.List(ctx)
}

// Get implements tabs.Directory over the mirrored snapshot.
func (b *Bridge) Get(ctx context.Context, h tabs.Handle) (tabs.Target, error) {
	return b.mirror.Get(ctx, h)
}

// Current implements tabs.Directory over the mirrored snapshot.
func (b *Bridge) Current(ctx context.Context) (tabs.Target, error) {
	return b.mirror.Current(ctx)
}

// Activate focuses a tab in the browser and updates the mirror once
// the extension acknowledges.
func (b *Bridge) Activate(ctx context.Context, h tabs.Handle, c tabs.Container) error {
	trans, err := b.transport()
	if err != nil {
		return err
	}
	ref := TabRef{Handle: string(h), Container: string(c)}
	if err := trans.Call(ctx, TypeTabActivate, ref, nil); err != nil {
		return err
	}
	b.mirror.SetCurrent(h)
	return nil
}

// Create opens a new tab in the browser and returns it.
func (b *Bridge) Create(ctx context.Context, locator string) (tabs.Target, error) {
	trans, err := b.transport()
	if err != nil {
		return tabs.Target{}, err
	}
	var info TabInfo
	if err := trans.Call(ctx, TypeTabCreate, CreateTab{URL: locator}, &info); err != nil {
		return tabs.Target{}, err
	}
	t := info.Target()
	b.mirror.Put(t)
	return t, nil
}

// Close closes a tab in the browser.
func (b *Bridge) Close(ctx context.Context, h tabs.Handle) error {
	trans, err := b.transport()
	if err != nil {
		return err
	}
	if err := trans.Call(ctx, TypeTabClose, TabRef{Handle: string(h)}, nil); err != nil {
		return err
	}
	b.mirror.Remove(h)
	return nil
}
