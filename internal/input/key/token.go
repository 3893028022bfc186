package key

import (
	"errors"
	"strings"
	"unicode"
)

// Parse errors.
var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// Token is a single normalized key name.
// Examples: "a", "3", "space", "enter", "escape", "arrowdown".
type Token string

// aliases maps alternate spellings to canonical token names. The browser
// reports KeyboardEvent.key values ("Escape", " ", "ArrowDown"); config
// files tend to use short forms ("esc", "spc").
var aliases = map[string]Token{
	" ":      "space",
	"spc":    "space",
	"esc":    "escape",
	"return": "enter",
	"cr":     "enter",
	"del":    "delete",
	"bs":     "backspace",
	"pgup":   "pageup",
	"pgdn":   "pagedown",
	"up":     "arrowup",
	"down":   "arrowdown",
	"left":   "arrowleft",
	"right":  "arrowright",
}

// Normalize converts a raw key name into a canonical Token.
// Returns an error for empty input or names containing whitespace
// (other than the single-space spelling of the space key).
func Normalize(raw string) (Token, error) {
	if raw == " " {
		return "space", nil
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrEmptySpec
	}
	s = strings.ToLower(s)
	if alias, ok := aliases[s]; ok {
		return alias, nil
	}
	for _, r := range s {
		if unicode.IsSpace(r) {
			return "", ErrInvalidSpec
		}
	}
	return Token(s), nil
}

// MustNormalize normalizes a key name and panics on error.
// Use only for known-valid names in initialization code.
func MustNormalize(raw string) Token {
	t, err := Normalize(raw)
	if err != nil {
		panic("invalid key name: " + raw + ": " + err.Error())
	}
	return t
}

// String returns the canonical token name.
func (t Token) String() string {
	return string(t)
}

// IsPrintable returns true if the token is a single printable rune.
// Printable tokens fall through as ordinary typing when unmatched.
func (t Token) IsPrintable() bool {
	runes := []rune(string(t))
	return len(runes) == 1 && unicode.IsPrint(runes[0])
}
