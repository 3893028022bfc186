package keymap

import (
	"errors"
	"fmt"

	"github.com/dshills/tabstorm/internal/action"
	"github.com/dshills/tabstorm/internal/input/key"
)

// Table construction errors.
var (
	ErrEmptyKeys      = errors.New("binding has empty keys")
	ErrNilAction      = errors.New("binding has no action")
	ErrNoLeader       = errors.New("binding does not start with the leader token")
	ErrDuplicate      = errors.New("duplicate key sequence")
	ErrPrefixShadowed = errors.New("sequence is a prefix of another binding")
)

// Binding is a single sequence-to-action mapping.
type Binding struct {
	// Keys is the space-separated key sequence, e.g. "space h a".
	Keys string

	// Action is the command emitted when the sequence completes.
	Action action.Action

	// Description documents the binding for display surfaces.
	Description string
}

// parsedBinding carries a binding with its pre-parsed sequence.
type parsedBinding struct {
	Binding
	seq *key.Sequence
}

// MatchKind classifies a pending sequence against a table.
type MatchKind int

const (
	// MatchNone means no binding matches and none can: dead end.
	MatchNone MatchKind = iota

	// MatchPartial means the sequence is a strict prefix of at least
	// one binding.
	MatchPartial

	// MatchExact means the sequence equals a binding token-for-token.
	MatchExact
)

// String returns the match kind name.
func (k MatchKind) String() string {
	switch k {
	case MatchNone:
		return "none"
	case MatchPartial:
		return "partial"
	case MatchExact:
		return "exact"
	default:
		return "unknown"
	}
}

// Match is the result of classifying a sequence.
type Match struct {
	Kind MatchKind

	// Action is set only for MatchExact.
	Action action.Action
}

// Table is an immutable set of parsed bindings sharing one leader token.
type Table struct {
	leader   key.Token
	bindings []parsedBinding
}

// NewTable builds a table from bindings, validating each one.
//
// Every sequence must be non-empty, parse cleanly, and begin with the
// leader token. Duplicate sequences are rejected, as is any sequence
// that is a strict prefix of another binding's sequence: an exact match
// fires immediately, so the longer binding would be unreachable.
func NewTable(leader key.Token, bindings []Binding) (*Table, error) {
	t := &Table{
		leader:   leader,
		bindings: make([]parsedBinding, 0, len(bindings)),
	}

	for i, b := range bindings {
		if b.Keys == "" {
			return nil, fmt.Errorf("binding %d: %w", i, ErrEmptyKeys)
		}
		if b.Action == nil {
			return nil, fmt.Errorf("binding %d (%s): %w", i, b.Keys, ErrNilAction)
		}
		seq, err := key.ParseSequence(b.Keys)
		if err != nil {
			return nil, fmt.Errorf("binding %d (%s): %w", i, b.Keys, err)
		}
		if seq.IsEmpty() || seq.First() != leader {
			return nil, fmt.Errorf("binding %d (%s): %w", i, b.Keys, ErrNoLeader)
		}
		t.bindings = append(t.bindings, parsedBinding{Binding: b, seq: seq})
	}

	for i := range t.bindings {
		for j := range t.bindings {
			if i == j {
				continue
			}
			a, b := t.bindings[i].seq, t.bindings[j].seq
			if a.Equals(b) {
				return nil, fmt.Errorf("%w: %s", ErrDuplicate, a)
			}
			if b.HasPrefix(a) {
				return nil, fmt.Errorf("%w: %s shadows %s", ErrPrefixShadowed, a, b)
			}
		}
	}

	return t, nil
}

// Leader returns the token that must begin every bound sequence.
func (t *Table) Leader() key.Token {
	return t.leader
}

// Len returns the number of bindings in the table.
func (t *Table) Len() int {
	return len(t.bindings)
}

// Bindings returns a copy of the table's bindings.
func (t *Table) Bindings() []Binding {
	out := make([]Binding, len(t.bindings))
	for i, pb := range t.bindings {
		out[i] = pb.Binding
	}
	return out
}

// Classify matches a pending sequence against the table.
//
// Exact wins over partial: if the sequence equals a binding it fires
// even when it is also a prefix of a longer one (NewTable validation
// prevents that arrangement for config-built tables).
func (t *Table) Classify(seq *key.Sequence) Match {
	if seq == nil || seq.IsEmpty() {
		return Match{Kind: MatchNone}
	}

	partial := false
	for i := range t.bindings {
		pb := &t.bindings[i]
		if pb.seq.Equals(seq) {
			return Match{Kind: MatchExact, Action: pb.Action}
		}
		if pb.seq.Len() > seq.Len() && pb.seq.HasPrefix(seq) {
			partial = true
		}
	}

	if partial {
		return Match{Kind: MatchPartial}
	}
	return Match{Kind: MatchNone}
}
