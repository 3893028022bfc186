package keymap

import (
	"strconv"

	"github.com/dshills/tabstorm/internal/action"
)

// DefaultLeader is the token that begins every default binding.
const DefaultLeader = "space"

// Default returns the built-in binding table for the given slot count.
func Default(maxSlots int) *Table {
	bindings := []Binding{
		{Keys: "space space", Action: action.Open{}, Description: "Open search"},
		{Keys: "space t", Action: action.SearchTabs{}, Description: "Search tabs"},
		{Keys: "space o", Action: action.SearchHistory{}, Description: "Search history"},
		{Keys: "space b", Action: action.SearchBookmarks{}, Description: "Search bookmarks"},
		{Keys: "space h a", Action: action.MarkAdd{}, Description: "Pin current tab to first free slot"},
		{Keys: "space h r", Action: action.RemoveCurrent{}, Description: "Unpin current tab"},
		{Keys: "space n", Action: action.NextWorkspace{}, Description: "Next workspace"},
		{Keys: "space p", Action: action.PrevWorkspace{}, Description: "Previous workspace"},
	}

	for n := 1; n <= maxSlots; n++ {
		d := strconv.Itoa(n)
		bindings = append(bindings,
			Binding{
				Keys:        "space " + d,
				Action:      action.JumpSlot{Slot: n},
				Description: "Jump to slot " + d,
			},
			Binding{
				Keys:        "space h " + d,
				Action:      action.MarkSlot{Slot: n},
				Description: "Pin current tab to slot " + d,
			},
		)
	}

	t, err := NewTable(DefaultLeader, bindings)
	if err != nil {
		// The default table is static apart from the slot loop; a
		// failure here is a programming error.
		panic("building default keymap: " + err.Error())
	}
	return t
}
