// Package input turns raw key events into actions.
//
// The Matcher accumulates a pending key sequence and classifies it
// against a keymap table on every keystroke. A sequence only starts
// with the leader token; anything else falls through as ordinary
// typing. Sequences that stall reset after a timeout, and the matcher
// is disabled entirely while the browser's focus is in an editable
// element.
//
// # Usage
//
//	m := input.NewMatcher(input.DefaultConfig(), keymap.Default(5))
//
//	// Feed key events from the bridge.
//	consumed := m.HandleKey(input.Event{Token: "space"})
//
//	// Receive actions.
//	for act := range m.Actions() {
//	    dispatch.Execute(ctx, act)
//	}
package input
