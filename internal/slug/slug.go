// Package slug derives URL-safe identifiers from human readable names.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Make lowercases s, folds accented letters to their base form, collapses
// every run of other characters into a single '-' and trims '-' from both
// ends. "Red Shoe!!" becomes "red-shoe". The result may be empty.
func Make(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	out := nonAlphanumeric.ReplaceAllString(strings.ToLower(folded), "-")
	return strings.Trim(out, "-")
}

var valid = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Valid reports whether s is already in the form produced by Make.
func Valid(s string) bool {
	return valid.MatchString(s)
}
