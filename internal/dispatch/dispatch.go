// Package dispatch routes actions to the components that perform them.
// It is the single boundary where the closed action vocabulary meets
// the slot registry, workspaces, and search UI.
package dispatch

import (
	"context"
	"fmt"

	"github.com/dshills/tabstorm/internal/action"
	"github.com/dshills/tabstorm/internal/search"
	"github.com/dshills/tabstorm/internal/slot"
	"github.com/dshills/tabstorm/internal/tabs"
	"github.com/dshills/tabstorm/internal/workspace"
)

// UI is the surface actions present on: the extension popup, reached
// through the bridge.
type UI interface {
	// OpenSearch opens the search popup scoped to the given sources.
	OpenSearch(scope search.Scope)
}

// Dispatcher executes actions against the daemon's components.
type Dispatcher struct {
	slots  *slot.Registry
	spaces *workspace.Manager
	dir    tabs.Directory
	ui     UI
}

// New creates a dispatcher.
func New(slots *slot.Registry, spaces *workspace.Manager, dir tabs.Directory, ui UI) *Dispatcher {
	return &Dispatcher{
		slots:  slots,
		spaces: spaces,
		dir:    dir,
		ui:     ui,
	}
}

// Execute performs one action. Errors from slot operations surface to
// the caller unchanged, so it can decide between a quiet no-op and a
// visible notice.
func (d *Dispatcher) Execute(ctx context.Context, act action.Action) error {
	switch a := act.(type) {
	case action.Open:
		d.ui.OpenSearch(search.ScopeAll)
		return nil
	case action.SearchTabs:
		d.ui.OpenSearch(search.ScopeTabs)
		return nil
	case action.SearchHistory:
		d.ui.OpenSearch(search.ScopeHistory)
		return nil
	case action.SearchBookmarks:
		d.ui.OpenSearch(search.ScopeBookmarks)
		return nil
	case action.JumpSlot:
		return d.slots.Jump(ctx, a.Slot)
	case action.MarkSlot:
		return d.slots.Mark(ctx, a.Slot, nil)
	case action.RemoveSlot:
		return d.slots.Remove(ctx, a.Slot)
	case action.MarkAdd:
		_, err := d.slots.MarkFree(ctx, nil)
		return err
	case action.RemoveCurrent:
		cur, err := d.dir.Current(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", slot.ErrInvalidTarget, err)
		}
		return d.slots.RemoveByLocator(ctx, cur.Locator)
	case action.NextWorkspace:
		_, err := d.spaces.Next(ctx)
		return err
	case action.PrevWorkspace:
		_, err := d.spaces.Prev(ctx)
		return err
	default:
		// The vocabulary is closed; a new variant must add its case
		// here.
		return fmt.Errorf("unhandled action %q", act.Name())
	}
}
