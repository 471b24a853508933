// Package normalize canonicalizes user-supplied identifiers before they are
// validated or stored.
package normalize

import (
	"strings"
	"unicode"

	"github.com/dalemusser/waffle/pantry/text"
)

// Phone strips spaces, dashes, dots and parentheses from a phone number and
// drops a leading +91 / 91 / 0 trunk prefix when what remains is 10 digits.
func Phone(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch r {
		case ' ', '-', '.', '(', ')', '\t':
			continue
		}
		b.WriteRune(r)
	}
	p := b.String()
	p = strings.TrimPrefix(p, "+")
	if len(p) == 12 && strings.HasPrefix(p, "91") {
		p = p[2:]
	}
	if len(p) == 11 && strings.HasPrefix(p, "0") {
		p = p[1:]
	}
	return p
}

// PostalCode trims and removes interior spaces ("560 034" -> "560034").
func PostalCode(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "")
}

// Name trims and collapses internal whitespace; case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fold returns the case/diacritic-insensitive form used for name_ci fields.
func Fold(s string) string {
	return text.Fold(Name(s))
}

// Slug lowercases s, replaces every run of non-alphanumeric characters with a
// single '-', and trims leading/trailing dashes.
func Slug(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// Role lowercases and trims a role name.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
