// Package keymap maps key sequences to actions.
//
// A Table is an immutable snapshot of bindings. The matcher classifies
// its pending sequence against a Table on every keystroke; replacing the
// table (config hot swap) never mutates a snapshot an in-flight
// classification is using.
package keymap
