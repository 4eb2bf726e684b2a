package source

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeName lowercases, strips diacritics, and collapses whitespace
// so provider queries match regardless of input spelling.
func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if stripped, _, err := transform.String(stripMarks, name); err == nil {
		name = stripped
	}
	return strings.Join(strings.Fields(name), " ")
}
