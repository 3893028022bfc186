// Package search assembles the tab/history/bookmark corpus and ranks
// it against a query. Ranking is delegated to the fuzzy library; this
// package only builds the corpus and decorates results with slot
// membership.
package search

import (
	"context"
	"fmt"

	"github.com/sahilm/fuzzy"

	"github.com/dshills/tabstorm/internal/store"
	"github.com/dshills/tabstorm/internal/tabs"
)

// Scope selects which sources feed the corpus.
type Scope int

const (
	ScopeAll Scope = iota
	ScopeTabs
	ScopeHistory
	ScopeBookmarks
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopeTabs:
		return "tabs"
	case ScopeHistory:
		return "history"
	case ScopeBookmarks:
		return "bookmarks"
	default:
		return "unknown"
	}
}

// Source identifies where an entry came from.
type Source int

const (
	SourceTab Source = iota
	SourceHistory
	SourceBookmark
)

// Entry is one search result.
type Entry struct {
	Locator string
	Title   string
	Source  Source

	// Handle is set for live-tab entries.
	Handle    tabs.Handle
	Container tabs.Container

	// Slot is the pinned slot number, 0 when unpinned.
	Slot int

	// Score is the fuzzy rank, higher is better. Zero for the
	// empty-query listing.
	Score int
}

// Annotator reports slot membership for a locator.
type Annotator interface {
	Annotate(locator string) (int, bool)
}

// Corpus supplies the non-live sources.
type Corpus interface {
	RecentHistory(ctx context.Context, limit int) ([]store.Page, error)
	Bookmarks(ctx context.Context) ([]store.Page, error)
}

// Config configures the engine.
type Config struct {
	// HistoryLimit caps how many history rows join the corpus.
	// Default: 200.
	HistoryLimit int
}

// Engine runs searches over the assembled corpus.
type Engine struct {
	dir    tabs.Directory
	corpus Corpus
	slots  Annotator
	config Config
}

// New creates a search engine.
func New(config Config, dir tabs.Directory, corpus Corpus, slots Annotator) *Engine {
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = 200
	}
	return &Engine{
		dir:    dir,
		corpus: corpus,
		slots:  slots,
		config: config,
	}
}

// entrySource adapts entries for the fuzzy library, matching against
// title and URL together.
type entrySource []Entry

func (s entrySource) Len() int { return len(s) }

func (s entrySource) String(i int) string {
	return s[i].Title + " " + s[i].Locator
}

// Search ranks the corpus against the query. An empty query returns
// the corpus in assembly order: live tabs, then history, then
// bookmarks. Duplicate locators keep their first (most live) entry.
func (e *Engine) Search(ctx context.Context, query string, scope Scope, limit int) ([]Entry, error) {
	entries, err := e.assemble(ctx, scope)
	if err != nil {
		return nil, err
	}

	if query != "" {
		matches := fuzzy.FindFrom(query, entrySource(entries))
		ranked := make([]Entry, 0, len(matches))
		for _, m := range matches {
			entry := entries[m.Index]
			entry.Score = m.Score
			ranked = append(ranked, entry)
		}
		entries = ranked
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	for i := range entries {
		if n, ok := e.slots.Annotate(entries[i].Locator); ok {
			entries[i].Slot = n
		}
	}
	return entries, nil
}

// assemble builds the scoped corpus, de-duplicated by locator.
func (e *Engine) assemble(ctx context.Context, scope Scope) ([]Entry, error) {
	var entries []Entry
	seen := make(map[string]bool)

	add := func(entry Entry) {
		if entry.Locator == "" || seen[entry.Locator] {
			return
		}
		seen[entry.Locator] = true
		entries = append(entries, entry)
	}

	if scope == ScopeAll || scope == ScopeTabs {
		live, err := e.dir.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing tabs: %w", err)
		}
		for _, t := range live {
			add(Entry{
				Locator:   t.Locator,
				Title:     t.Title,
				Source:    SourceTab,
				Handle:    t.Handle,
				Container: t.Container,
			})
		}
	}

	if scope == ScopeAll || scope == ScopeHistory {
		pages, err := e.corpus.RecentHistory(ctx, e.config.HistoryLimit)
		if err != nil {
			return nil, fmt.Errorf("loading history: %w", err)
		}
		for _, p := range pages {
			add(Entry{Locator: p.Locator, Title: p.Title, Source: SourceHistory})
		}
	}

	if scope == ScopeAll || scope == ScopeBookmarks {
		pages, err := e.corpus.Bookmarks(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading bookmarks: %w", err)
		}
		for _, p := range pages {
			add(Entry{Locator: p.Locator, Title: p.Title, Source: SourceBookmark})
		}
	}

	return entries, nil
}
