package query

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s in NFC form with Unicode case folding applied, so that
// "ÁO THUN" and "áo thun" compare equal regardless of how the accents were
// composed.
func Fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// Text is a case-insensitive substring pattern. The zero value matches
// everything.
type Text struct {
	folded string
}

// NewText builds a pattern. Leading and trailing whitespace is ignored and a
// blank pattern matches everything.
func NewText(pattern string) Text {
	return Text{folded: Fold(strings.TrimSpace(pattern))}
}

// IsBlank reports whether the pattern filters nothing.
func (t Text) IsBlank() bool {
	return t.folded == ""
}

// Matches reports whether any of the fields contains the pattern.
func (t Text) Matches(fields ...string) bool {
	if t.IsBlank() {
		return true
	}
	for _, f := range fields {
		if strings.Contains(Fold(f), t.folded) {
			return true
		}
	}
	return false
}
