// Package key provides key token normalization and sequences for the
// input system.
//
// A Token is a single normalized key name as reported by the browser
// extension ("a", "space", "enter"). A Sequence is an ordered series of
// tokens forming a command, such as "space h a". Sequences are
// case-insensitive: all tokens are folded to lower case and common
// aliases ("esc", "spc", "return") are collapsed to canonical names.
package key
