// Package extraction reads title, issue number, publisher and year out of raw
// OCR text from a comic cover or slab.
//
// Every extractor works only on the cover lines left after Segment drops the
// grading-label text, and degrades to an empty value with zero confidence
// instead of failing.
package extraction

import "github.com/panelvault/coverid/internal/models"

// ExtractTokens runs all extractors over one scan. It never fails; an empty or
// unreadable scan yields empty tokens with zero confidences.
func ExtractTokens(raw string) models.ExtractedTokens {
	tokens := models.ExtractedTokens{}

	tokens.TitleTokens, tokens.Title, tokens.Confidence.Title = ExtractTitle(raw)
	tokens.IssueNumber, tokens.Confidence.Issue = ExtractIssueNumber(raw)
	tokens.Publisher, tokens.Confidence.Publisher = ExtractPublisher(raw)
	tokens.Year, tokens.Confidence.Year = ExtractYear(raw)

	return tokens
}
