package matcher

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultThreshold is the highest score still accepted as a match. It only
// lets near-exact names through.
const DefaultThreshold = 0.1

// Scorer measures how far apart two names are. Score returns 0 for
// identical names and 1 for names that share nothing.
type Scorer interface {
	Score(query, candidate string) float64
}

// LevenshteinScorer scores names by their edit distance divided by the
// length of the longer name, after Normalize.
type LevenshteinScorer struct{}

var _ Scorer = LevenshteinScorer{}

// Score implements Scorer.
func (LevenshteinScorer) Score(query, candidate string) float64 {
	a, b := Normalize(query), Normalize(candidate)
	if a == b {
		return 0
	}

	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}

// Normalize folds case, strips diacritics and collapses whitespace so that
// "Pokémon  Annie" and "pokemon annie" compare equal.
func Normalize(s string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		cases.Fold(),
		norm.NFC,
	)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(folded), " ")
}
