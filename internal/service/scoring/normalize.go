// Package scoring turns a raw transcript into per-word pronunciation verdicts.
//
// It has three layers, each pure and safe for concurrent use:
//
//  1. Normalize canonicalizes a word or token: diacritics are stripped,
//     the punctuation set {. , ! ?} is removed, the result is lowercased and
//     trimmed. Comparisons downstream are therefore accent- and
//     case-insensitive.
//
//  2. Similarity scores two normalized tokens in [0,1] with exact-match and
//     long-prefix shortcuts in front of a Levenshtein ratio.
//
//  3. Aligner greedily assigns transcribed tokens to expected words in the
//     order the expected words are given. Each token is claimed at most once.
package scoring

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// nonASCII drops every rune outside the ASCII range once the input has been
// decomposed, which removes combining marks along with any symbol that has no
// ASCII base.
var nonASCII = runes.Remove(runes.Predicate(func(r rune) bool {
	return r > unicode.MaxASCII
}))

var punctuation = strings.NewReplacer(".", "", ",", "", "!", "", "?", "")

// Normalize canonicalizes text for comparison. It never fails; empty input
// yields "".
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, nonASCII)
	stripped, _, err := transform.String(t, text)
	if err != nil {
		// transform only fails on invalid state; fall back to the raw text
		// with non-ASCII runes removed by hand.
		stripped = strings.Map(func(r rune) rune {
			if r > unicode.MaxASCII {
				return -1
			}
			return r
		}, text)
	}
	stripped = punctuation.Replace(stripped)
	return strings.TrimSpace(strings.ToLower(stripped))
}

// Tokenize splits text on whitespace, normalizes every token and drops the
// ones that normalize to "".
func Tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if n := Normalize(f); n != "" {
			tokens = append(tokens, n)
		}
	}
	return tokens
}
