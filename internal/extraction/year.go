package extraction

import (
	"regexp"
	"strconv"
)

// ConfidenceYear is the fixed confidence of a year match.
const ConfidenceYear = 0.70

// yearPattern accepts 1930 through 2039.
var yearPattern = regexp.MustCompile(`\b(19[3-9]\d|20[0-3]\d)\b`)

// ExtractYear returns the first plausible cover year in the cover lines of raw.
func ExtractYear(raw string) (*int, float64) {
	m := yearPattern.FindStringSubmatch(coverText(raw))
	if len(m) < 2 {
		return nil, 0
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, 0
	}
	return &year, ConfidenceYear
}
