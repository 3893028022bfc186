// Package action defines the closed vocabulary of commands the keybind
// system can emit.
//
// Every action is a distinct variant type implementing Action. The
// dispatch boundary switches exhaustively over these variants, so adding
// a new action means adding a case there as well.
package action

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Parse errors.
var (
	ErrUnknownAction = errors.New("unknown action")
	ErrBadSlotNumber = errors.New("bad slot number in action")
)

// Action is a command emitted by the keybind matcher. The set of
// implementations in this package is closed.
type Action interface {
	// Name returns the config-file spelling of the action,
	// e.g. "slot.jump.3" or "workspace.next".
	Name() string

	sealed()
}

// Open opens the command/search popup.
type Open struct{}

// SearchTabs opens search scoped to live tabs.
type SearchTabs struct{}

// SearchHistory opens search scoped to visit history.
type SearchHistory struct{}

// SearchBookmarks opens search scoped to bookmarks.
type SearchBookmarks struct{}

// JumpSlot activates the tab pinned in the numbered slot.
type JumpSlot struct {
	Slot int
}

// MarkSlot pins the current tab into the numbered slot.
type MarkSlot struct {
	Slot int
}

// RemoveSlot clears the numbered slot.
type RemoveSlot struct {
	Slot int
}

// MarkAdd pins the current tab into the first free slot.
type MarkAdd struct{}

// RemoveCurrent clears every slot holding the current tab's URL.
type RemoveCurrent struct{}

// NextWorkspace switches to the next workspace in order.
type NextWorkspace struct{}

// PrevWorkspace switches to the previous workspace in order.
type PrevWorkspace struct{}

func (Open) Name() string            { return "open" }
func (SearchTabs) Name() string      { return "search.tabs" }
func (SearchHistory) Name() string   { return "search.history" }
func (SearchBookmarks) Name() string { return "search.bookmarks" }
func (a JumpSlot) Name() string      { return "slot.jump." + strconv.Itoa(a.Slot) }
func (a MarkSlot) Name() string      { return "slot.mark." + strconv.Itoa(a.Slot) }
func (a RemoveSlot) Name() string    { return "slot.remove." + strconv.Itoa(a.Slot) }
func (MarkAdd) Name() string         { return "slot.mark" }
func (RemoveCurrent) Name() string   { return "slot.remove" }
func (NextWorkspace) Name() string   { return "workspace.next" }
func (PrevWorkspace) Name() string   { return "workspace.prev" }

func (Open) sealed()            {}
func (SearchTabs) sealed()      {}
func (SearchHistory) sealed()   {}
func (SearchBookmarks) sealed() {}
func (JumpSlot) sealed()        {}
func (MarkSlot) sealed()        {}
func (RemoveSlot) sealed()      {}
func (MarkAdd) sealed()         {}
func (RemoveCurrent) sealed()   {}
func (NextWorkspace) sealed()   {}
func (PrevWorkspace) sealed()   {}

// Parse converts a config-file action name into its variant.
// Slot actions carry their slot number in the name: "slot.jump.3".
func Parse(name string) (Action, error) {
	switch name {
	case "open":
		return Open{}, nil
	case "search.tabs":
		return SearchTabs{}, nil
	case "search.history":
		return SearchHistory{}, nil
	case "search.bookmarks":
		return SearchBookmarks{}, nil
	case "slot.mark":
		return MarkAdd{}, nil
	case "slot.remove":
		return RemoveCurrent{}, nil
	case "workspace.next":
		return NextWorkspace{}, nil
	case "workspace.prev":
		return PrevWorkspace{}, nil
	}

	for prefix, build := range slotActions {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		n, err := strconv.Atoi(name[len(prefix):])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: %q", ErrBadSlotNumber, name)
		}
		return build(n), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

var slotActions = map[string]func(int) Action{
	"slot.jump.":   func(n int) Action { return JumpSlot{Slot: n} },
	"slot.mark.":   func(n int) Action { return MarkSlot{Slot: n} },
	"slot.remove.": func(n int) Action { return RemoveSlot{Slot: n} },
}
