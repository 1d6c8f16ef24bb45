package extraction

import (
	"regexp"
	"strconv"
)

// Issue-number confidences, fixed per rule.
const (
	ConfidenceIssueHash     = 0.95
	ConfidenceIssueNo       = 0.90
	ConfidenceIssueWord     = 0.85
	ConfidenceIssueIsolated = 0.60
)

var issueMatchers = []patternMatcher{
	{
		name:       "hash",
		pattern:    regexp.MustCompile(`#\s?(\d{1,4})\b`),
		confidence: ConfidenceIssueHash,
	},
	{
		name:       "no",
		pattern:    regexp.MustCompile(`(?i)\bno\.?\s*(\d{1,4})\b`),
		confidence: ConfidenceIssueNo,
	},
	{
		name:       "issue",
		pattern:    regexp.MustCompile(`(?i)\bissue\s*(\d{1,4})\b`),
		confidence: ConfidenceIssueWord,
	},
	{
		name:       "isolated",
		pattern:    regexp.MustCompile(`\b(\d{1,4})\b`),
		confidence: ConfidenceIssueIsolated,
		accept:     plausibleIssue,
	},
}

func plausibleIssue(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n >= 1 && n <= 9999
}

// ExtractIssueNumber finds the issue number in the cover lines of raw. The digits
// are returned as found, leading zeros included.
func ExtractIssueNumber(raw string) (*string, float64) {
	value, confidence, _, ok := firstMatch(coverText(raw), issueMatchers)
	if !ok {
		return nil, 0
	}
	return &value, confidence
}
