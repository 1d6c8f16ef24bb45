// Package similarity provides the string comparisons used to match OCR titles
// against catalog series names.
package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/cases"
)

// Fold trims and case-folds s for case-insensitive comparison.
func Fold(s string) string {
	// A Caser is stateful, so each call gets its own.
	return cases.Fold().String(strings.TrimSpace(s))
}

// Contains reports whether either string case-insensitively contains the other.
// Empty strings never match.
func Contains(a, b string) bool {
	fa, fb := Fold(a), Fold(b)
	if fa == "" || fb == "" {
		return false
	}
	return strings.Contains(fa, fb) || strings.Contains(fb, fa)
}

// Similarity returns a ratio in [0,1]:
//   - 1.0 for a case-insensitive exact match
//   - 0.85 + 0.15*(shorter/longer) when one string contains the other
//   - 1 - levenshtein/longer otherwise, floored at 0
//
// An empty input on either side scores 0.
func Similarity(a, b string) float64 {
	fa, fb := Fold(a), Fold(b)
	if fa == "" || fb == "" {
		return 0
	}
	if fa == fb {
		return 1.0
	}

	la, lb := utf8.RuneCountInString(fa), utf8.RuneCountInString(fb)
	shorter, longer := la, lb
	if shorter > longer {
		shorter, longer = longer, shorter
	}

	if strings.Contains(fa, fb) || strings.Contains(fb, fa) {
		return 0.85 + 0.15*(float64(shorter)/float64(longer))
	}

	distance := edlib.LevenshteinDistance(fa, fb)
	return max(0, 1.0-float64(distance)/float64(longer))
}

// WordOverlap returns |A∩B| / max(|A|,|B|) over the lowercase word sets of a and b.
func WordOverlap(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	denom := max(len(setA), len(setB))
	if denom == 0 {
		return 0
	}

	shared := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(denom)
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(Fold(s))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
