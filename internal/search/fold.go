// Package search normalizes text for accent- and case-insensitive matching
// of records. Requester names and document labels arrive with and without
// diacritics ("João" vs "Joao"), so both the stored search column and the
// user's query go through Fold before comparison.
//
// The package does no I/O and keeps no state; every function is safe for
// concurrent use.
package search

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxTerms caps how many terms of a query are matched.
const MaxTerms = 8

var (
	folder = cases.Fold()

	// termRE keeps reference codes and process numbers whole
	// ("0001234-56.2025.8.26.0100", "REF/2024-01").
	termRE = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}./\-]*`)
)

// Fold lower-cases s, strips diacritics and collapses whitespace.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = folder.String(out)
	return strings.Join(strings.Fields(out), " ")
}

// Document builds the folded search column from the searchable fields.
// Empty fields are skipped.
func Document(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = Fold(f); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " | ")
}

// Terms splits a query into folded, de-duplicated terms, at most MaxTerms.
func Terms(query string) []string {
	words := termRE.FindAllString(Fold(query), -1)
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) == MaxTerms {
			break
		}
	}
	return out
}

// EscapeLike escapes the LIKE wildcards in term using '\' as the escape
// character.
func EscapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}
