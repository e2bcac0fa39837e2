package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

const (
	// prefixScore is the flat score given when one long token is a prefix of
	// the other.
	prefixScore = 0.95
	// prefixMinLen is the length both tokens must exceed for the prefix rule.
	prefixMinLen = 4
)

// Similarity returns a closeness score in [0,1] for two already normalized
// tokens.
//
// Equal tokens score 1 and an empty side scores 0. When both tokens are longer
// than four characters and either is a prefix of the other the score is a flat
// 0.95, even where the plain edit-distance ratio would be higher or lower.
// Otherwise the score is 1 - levenshtein(a, b) / max(len(a), len(b)).
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la > prefixMinLen && lb > prefixMinLen &&
		(strings.HasPrefix(a, b) || strings.HasPrefix(b, a)) {
		return prefixScore
	}

	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	return 1.0 - float64(matchr.Levenshtein(a, b))/float64(maxLen)
}
