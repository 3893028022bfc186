package search

import (
	"context"
	"testing"

	"github.com/dshills/tabstorm/internal/store"
	"github.com/dshills/tabstorm/internal/tabs"
)

// fakeCorpus serves fixed history and bookmark pages.
type fakeCorpus struct {
	history   []store.Page
	bookmarks []store.Page
}

func (c *fakeCorpus) RecentHistory(ctx context.Context, limit int) ([]store.Page, error) {
	if limit < len(c.history) {
		return c.history[:limit], nil
	}
	return c.history, nil
}

func (c *fakeCorpus) Bookmarks(ctx context.Context) ([]store.Page, error) {
	return c.bookmarks, nil
}

// fakeAnnotator pins locators to slots.
type fakeAnnotator map[string]int

func (a fakeAnnotator) Annotate(locator string) (int, bool) {
	n, ok := a[locator]
	return n, ok
}

func newTestEngine(t *testing.T) (*Engine, *tabs.MemDirectory, fakeAnnotator) {
	t.Helper()
	ctx := context.Background()

	dir := tabs.NewMemDirectory()
	mailTab, _ := dir.Create(ctx, "https://mail.test")
	mailTab.Title = "Inbox"
	dir.Put(mailTab)

	docsTab, _ := dir.Create(ctx, "https://docs.test")
	docsTab.Title = "Team Docs"
	dir.Put(docsTab)

	corpus := &fakeCorpus{
		history: []store.Page{
			{Locator: "https://news.test", Title: "Daily News"},
			{Locator: "https://docs.test", Title: "Team Docs (old visit)"},
		},
		bookmarks: []store.Page{
			{Locator: "https://wiki.test", Title: "Wiki"},
		},
	}

	slots := fakeAnnotator{"https://mail.test": 1}
	return New(Config{}, dir, corpus, slots), dir, slots
}

func TestEmptyQueryListsCorpusInOrder(t *testing.T) {
	e, _, _ := newTestEngine(t)

	entries, err := e.Search(context.Background(), "", ScopeAll, 0)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}

	want := []string{
		"https://mail.test", // tabs first
		"https://docs.test",
		"https://news.test", // then history, minus the duplicate
		"https://wiki.test", // then bookmarks
	}
	if len(entries) != len(want) {
		t.Fatalf("len(entries) = %d, want %d", len(entries), len(want))
	}
	for i, locator := range want {
		if entries[i].Locator != locator {
			t.Errorf("entries[%d] = %q, want %q", i, entries[i].Locator, locator)
		}
	}
}

func TestDuplicateLocatorKeepsLiveTab(t *testing.T) {
	e, _, _ := newTestEngine(t)

	entries, _ := e.Search(context.Background(), "", ScopeAll, 0)
	for _, entry := range entries {
		if entry.Locator == "https://docs.test" && entry.Source != SourceTab {
			t.Errorf("docs.test Source = %v, want the live tab entry", entry.Source)
		}
	}
}

func TestQueryRanksMatches(t *testing.T) {
	e, _, _ := newTestEngine(t)

	entries, err := e.Search(context.Background(), "docs", ScopeAll, 0)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("query should match at least the docs tab")
	}
	if entries[0].Locator != "https://docs.test" {
		t.Errorf("top result = %q, want docs.test", entries[0].Locator)
	}
	for _, entry := range entries {
		if entry.Locator == "https://news.test" {
			t.Error("unrelated entry should not match query")
		}
	}
}

func TestSlotAnnotation(t *testing.T) {
	e, _, _ := newTestEngine(t)

	entries, _ := e.Search(context.Background(), "", ScopeAll, 0)
	for _, entry := range entries {
		switch entry.Locator {
		case "https://mail.test":
			if entry.Slot != 1 {
				t.Errorf("mail.test Slot = %d, want 1", entry.Slot)
			}
		default:
			if entry.Slot != 0 {
				t.Errorf("%s Slot = %d, want 0", entry.Locator, entry.Slot)
			}
		}
	}
}

func TestScopeFiltering(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	entries, _ := e.Search(ctx, "", ScopeBookmarks, 0)
	if len(entries) != 1 || entries[0].Source != SourceBookmark {
		t.Errorf("bookmark scope = %+v, want only the bookmark", entries)
	}

	entries, _ = e.Search(ctx, "", ScopeTabs, 0)
	for _, entry := range entries {
		if entry.Source != SourceTab {
			t.Errorf("tab scope returned %v entry", entry.Source)
		}
	}
}

func TestLimit(t *testing.T) {
	e, _, _ := newTestEngine(t)

	entries, _ := e.Search(context.Background(), "", ScopeAll, 2)
	if len(entries) != 2 {
		t.Errorf("len(entries) = %d, want 2", len(entries))
	}
}
