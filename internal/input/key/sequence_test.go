package key

import (
	"testing"
)

func TestParseSequence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "single token", input: "space", want: "space"},
		{name: "multi token", input: "space h a", want: "space h a"},
		{name: "case folded", input: "Space H A", want: "space h a"},
		{name: "aliases resolved", input: "spc Esc", want: "space escape"},
		{name: "extra whitespace", input: "  space   g  ", want: "space g"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := ParseSequence(tt.input)
			if err != nil {
				t.Fatalf("ParseSequence(%q) error: %v", tt.input, err)
			}
			if got := seq.String(); got != tt.want {
				t.Errorf("ParseSequence(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSequenceEquals(t *testing.T) {
	a := MustParseSequence("space h a")
	b := MustParseSequence("Space H A")
	c := MustParseSequence("space h")

	if !a.Equals(b) {
		t.Error("case variants should be equal after normalization")
	}
	if a.Equals(c) {
		t.Error("different lengths should not be equal")
	}
	if a.Equals(nil) {
		t.Error("non-nil should not equal nil")
	}
}

func TestSequenceHasPrefix(t *testing.T) {
	full := MustParseSequence("space h a")

	tests := []struct {
		name   string
		prefix string
		want   bool
	}{
		{name: "single token prefix", prefix: "space", want: true},
		{name: "two token prefix", prefix: "space h", want: true},
		{name: "whole sequence", prefix: "space h a", want: true},
		{name: "mismatched token", prefix: "space g", want: false},
		{name: "longer than sequence", prefix: "space h a x", want: false},
		{name: "empty prefix", prefix: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := MustParseSequence(tt.prefix)
			if got := full.HasPrefix(p); got != tt.want {
				t.Errorf("HasPrefix(%q) = %v, want %v", tt.prefix, got, tt.want)
			}
		})
	}
}

func TestSequenceAddClear(t *testing.T) {
	seq := NewSequence()
	if !seq.IsEmpty() {
		t.Fatal("new sequence should be empty")
	}

	seq.Add("space")
	seq.Add("h")
	if seq.Len() != 2 {
		t.Errorf("Len = %d, want 2", seq.Len())
	}
	if seq.First() != "space" {
		t.Errorf("First = %q, want %q", seq.First(), "space")
	}

	seq.Clear()
	if !seq.IsEmpty() {
		t.Error("sequence should be empty after Clear")
	}
}

func TestSequenceClone(t *testing.T) {
	orig := MustParseSequence("space g")
	clone := orig.Clone()

	clone.Add("x")
	if orig.Len() != 2 {
		t.Error("mutating clone must not affect original")
	}
}
