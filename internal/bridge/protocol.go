package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/dshills/tabstorm/internal/search"
	"github.com/dshills/tabstorm/internal/tabs"
)

// Message is the wire envelope shared by both transports. Events and
// notifications carry a zero ID; requests carry a non-zero ID and are
// answered by a "reply" message bearing the same ID.
type Message struct {
	Type  string          `json:"type"`
	ID    int64           `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Inbound message types (extension to daemon).
const (
	TypeKey               = "key"
	TypeSnapshot          = "tabs.snapshot"
	TypeTabCreated        = "tab.created"
	TypeTabUpdated        = "tab.updated"
	TypeTabRemoved        = "tab.removed"
	TypeTabActivated      = "tab.activated"
	TypeBookmarksSnapshot = "bookmarks.snapshot"
	TypeBookmarkCreated   = "bookmark.created"
	TypeBookmarkRemoved   = "bookmark.removed"
	TypeWorkspaceCreate   = "workspace.create"
	TypeWorkspaceRename   = "workspace.rename"
	TypeWorkspaceDelete   = "workspace.delete"
	TypeWorkspaceSwitch   = "workspace.switch"
	TypeWorkspaceList     = "workspace.list"
	TypeSearchQuery       = "search.query"
	TypeReply             = "reply"
)

// Outbound message types (daemon to extension).
const (
	TypeTabActivate   = "tab.activate"
	TypeTabCreate     = "tab.create"
	TypeTabClose      = "tab.close"
	TypeSearchOpen    = "search.open"
	TypeSearchResults = "search.results"
	TypeSlotsState    = "slots.state"
	TypeNotice        = "notice"
)

// KeyEvent is sent by the extension for every candidate keypress.
type KeyEvent struct {
	Key      string `json:"key"`
	Editable bool   `json:"editable"`
}

// KeyResult tells the extension whether the key was consumed and
// should be suppressed in the page.
type KeyResult struct {
	Handled bool `json:"handled"`
}

// TabInfo describes one tab in extension terms.
type TabInfo struct {
	Handle    string `json:"id"`
	Container string `json:"windowId"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Icon      string `json:"favicon,omitempty"`
}

// Target converts to the daemon's tab representation.
func (t TabInfo) Target() tabs.Target {
	return tabs.Target{
		Handle:    tabs.Handle(t.Handle),
		Container: tabs.Container(t.Container),
		Locator:   t.URL,
		Title:     t.Title,
		Icon:      t.Icon,
	}
}

// Snapshot is the full tab list, sent on connect and on demand.
type Snapshot struct {
	Tabs    []TabInfo `json:"tabs"`
	Current string    `json:"current,omitempty"`
}

// TabRef identifies a single tab in an event or command.
type TabRef struct {
	Handle    string `json:"id"`
	Container string `json:"windowId,omitempty"`
}

// CreateTab asks the extension to open a new tab.
type CreateTab struct {
	URL string `json:"url"`
}

// BookmarkInfo describes one browser bookmark.
type BookmarkInfo struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// BookmarksSnapshot is the full bookmark set, sent on connect and
// whenever the browser's bookmark tree changes shape.
type BookmarksSnapshot struct {
	Bookmarks []BookmarkInfo `json:"bookmarks"`
}

// WorkspaceCreate asks the daemon to create a named workspace.
type WorkspaceCreate struct {
	Name string `json:"name"`
}

// WorkspaceRename renames a workspace.
type WorkspaceRename struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WorkspaceRef identifies a workspace in a delete or switch request.
type WorkspaceRef struct {
	ID string `json:"id"`
}

// WorkspaceInfo describes one workspace to the extension.
type WorkspaceInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tabs   int    `json:"tabs"`
	Active bool   `json:"active,omitempty"`
}

// WorkspaceList is the reply to a workspace.list request.
type WorkspaceList struct {
	Workspaces []WorkspaceInfo `json:"workspaces"`
}

// SearchQuery is an interactive search request from the extension UI.
type SearchQuery struct {
	Query string `json:"query"`
	Scope string `json:"scope,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// SearchOpen tells the extension to show its search overlay.
type SearchOpen struct {
	Scope string `json:"scope"`
}

// SearchResult is one ranked entry sent back to the extension.
type SearchResult struct {
	URL    string `json:"url"`
	Title  string `json:"title"`
	Source string `json:"source"`
	Handle string `json:"id,omitempty"`
	Slot   int    `json:"slot,omitempty"`
}

// SearchResults is the reply to a search.query request.
type SearchResults struct {
	Results []SearchResult `json:"results"`
}

// SlotState describes one occupied slot for the extension overlay.
type SlotState struct {
	Index   int    `json:"index"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Icon    string `json:"favicon,omitempty"`
	Live    bool   `json:"live"`
	Handle  string `json:"id,omitempty"`
}

// SlotsState is the full slot listing, pushed after every change.
type SlotsState struct {
	Slots []SlotState `json:"slots"`
}

// Notice is a user-facing message, typically an action failure.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// ParseScope maps a wire scope name to a search scope. An empty
// string means all sources.
func ParseScope(s string) (search.Scope, error) {
	switch s {
	case "", "all":
		return search.ScopeAll, nil
	case "tabs":
		return search.ScopeTabs, nil
	case "history":
		return search.ScopeHistory, nil
	case "bookmarks":
		return search.ScopeBookmarks, nil
	default:
		return search.ScopeAll, fmt.Errorf("unknown search scope %q", s)
	}
}

func sourceName(s search.Source) string {
	switch s {
	case search.SourceTab:
		return "tab"
	case search.SourceHistory:
		return "history"
	case search.SourceBookmark:
		return "bookmark"
	default:
		return "unknown"
	}
}

func encode(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
