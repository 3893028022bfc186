package key

import (
	"strings"
)

// Sequence represents a series of key tokens forming a command.
// Examples: "space space" (open search), "space h a" (pin current tab).
type Sequence struct {
	// Tokens contains the key tokens in order.
	Tokens []Token
}

// NewSequence creates an empty key sequence.
func NewSequence() *Sequence {
	return &Sequence{
		Tokens: make([]Token, 0, 4), // Most sequences are short
	}
}

// NewSequenceFrom creates a sequence from the given tokens.
func NewSequenceFrom(tokens ...Token) *Sequence {
	return &Sequence{
		Tokens: tokens,
	}
}

// Len returns the number of tokens in the sequence.
func (s *Sequence) Len() int {
	return len(s.Tokens)
}

// IsEmpty returns true if the sequence has no tokens.
func (s *Sequence) IsEmpty() bool {
	return len(s.Tokens) == 0
}

// Add appends a token to the sequence.
func (s *Sequence) Add(t Token) {
	s.Tokens = append(s.Tokens, t)
}

// Clear removes all tokens from the sequence.
func (s *Sequence) Clear() {
	s.Tokens = s.Tokens[:0]
}

// First returns the first token, or "" if empty.
func (s *Sequence) First() Token {
	if len(s.Tokens) == 0 {
		return ""
	}
	return s.Tokens[0]
}

// String returns a human-readable representation.
// Example: "space h a".
func (s *Sequence) String() string {
	if len(s.Tokens) == 0 {
		return ""
	}

	parts := make([]string, len(s.Tokens))
	for i, t := range s.Tokens {
		parts[i] = string(t)
	}
	return strings.Join(parts, " ")
}

// Equals returns true if two sequences are identical token-for-token.
func (s *Sequence) Equals(other *Sequence) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.Tokens) != len(other.Tokens) {
		return false
	}
	for i, t := range s.Tokens {
		if t != other.Tokens[i] {
			return false
		}
	}
	return true
}

// HasPrefix returns true if this sequence starts with the given prefix.
func (s *Sequence) HasPrefix(prefix *Sequence) bool {
	if prefix == nil || prefix.IsEmpty() {
		return true
	}
	if len(prefix.Tokens) > len(s.Tokens) {
		return false
	}
	for i, t := range prefix.Tokens {
		if t != s.Tokens[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the sequence.
func (s *Sequence) Clone() *Sequence {
	if s == nil {
		return nil
	}
	tokens := make([]Token, len(s.Tokens))
	copy(tokens, s.Tokens)
	return &Sequence{Tokens: tokens}
}

// ParseSequence parses a space-separated key sequence string.
// Each field is normalized, so "Space H A" and "space h a" are the same
// sequence. The space key itself is written as the word "space".
func ParseSequence(s string) (*Sequence, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NewSequence(), nil
	}

	seq := NewSequence()
	for _, part := range strings.Fields(s) {
		t, err := Normalize(part)
		if err != nil {
			return nil, err
		}
		seq.Add(t)
	}
	return seq, nil
}

// MustParseSequence parses a sequence string and panics on error.
// Use only for known-valid sequences in initialization code.
func MustParseSequence(s string) *Sequence {
	seq, err := ParseSequence(s)
	if err != nil {
		panic("invalid key sequence: " + s + ": " + err.Error())
	}
	return seq
}
