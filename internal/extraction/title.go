package extraction

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	titleLineWindow     = 5
	titleMaxWords       = 6
	titleConfidenceBump = 0.3
	titleConfidenceCap  = 0.95
	// ConfidenceTitleFallback applies when no line qualified and the first cover
	// line was used as-is.
	ConfidenceTitleFallback = 0.50
)

// titleStopwords are generic cover words that never identify a series.
var titleStopwords = map[string]struct{}{
	"comics":   {},
	"comic":    {},
	"presents": {},
	"annual":   {},
	"special":  {},
	"edition":  {},
	"issue":    {},
	"vol":      {},
	"volume":   {},
	"no":       {},
}

// TitleCandidate is a cover line considered as the title source.
type TitleCandidate struct {
	Line      string
	LineIndex int
	Words     []string
	Score     float64
}

// isStopword reports whether a word is dropped from title lines: a generic term,
// a pure digit string, or a single character.
func isStopword(word string) bool {
	if utf8.RuneCountInString(word) <= 1 {
		return true
	}
	bare := strings.TrimFunc(strings.ToLower(word), func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	if bare == "" {
		return true
	}
	if _, ok := titleStopwords[bare]; ok {
		return true
	}
	return strings.IndexFunc(bare, func(r rune) bool { return !unicode.IsDigit(r) }) == -1
}

func significantWords(line string) []string {
	var words []string
	for _, w := range strings.Fields(line) {
		if !isStopword(w) {
			words = append(words, w)
		}
	}
	return words
}

// scoreTitleLine weighs a line by position, surviving word count and raw length.
func scoreTitleLine(line string, index int, words []string) float64 {
	position := float64(titleLineWindow-index) / titleLineWindow
	wordScore := min(float64(len(words))/3, 1)
	lengthScore := min(float64(utf8.RuneCountInString(line))/20, 1)
	return 0.5*position + 0.3*wordScore + 0.2*lengthScore
}

// TitleCandidates scores the qualifying lines among the first cover lines of raw.
func TitleCandidates(raw string) []TitleCandidate {
	lines := Segment(raw).Cover
	if len(lines) > titleLineWindow {
		lines = lines[:titleLineWindow]
	}

	var out []TitleCandidate
	for i, line := range lines {
		count := len(strings.Fields(line))
		if count < 1 || count > titleMaxWords {
			continue
		}
		words := significantWords(line)
		if len(words) == 0 {
			continue
		}
		out = append(out, TitleCandidate{
			Line:      line,
			LineIndex: i,
			Words:     words,
			Score:     scoreTitleLine(line, i, words),
		})
	}
	return out
}

// ExtractTitle picks the best title line among the first cover lines of raw.
func ExtractTitle(raw string) ([]string, string, float64) {
	candidates := TitleCandidates(raw)
	if len(candidates) > 0 {
		best := candidates[0]
		for _, c := range candidates[1:] {
			if c.Score > best.Score {
				best = c
			}
		}
		return best.Words, strings.Join(best.Words, " "), min(best.Score+titleConfidenceBump, titleConfidenceCap)
	}

	lines := Segment(raw).Cover
	if len(lines) == 0 {
		return nil, "", 0
	}
	words := significantWords(lines[0])
	if len(words) == 0 {
		return nil, "", 0
	}
	return words, strings.Join(words, " "), ConfidenceTitleFallback
}
