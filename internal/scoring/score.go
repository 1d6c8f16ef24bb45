// Package scoring compares extracted scan tokens against catalog candidates and
// ranks them.
package scoring

import (
	"github.com/panelvault/coverid/internal/models"
	"github.com/panelvault/coverid/internal/similarity"
)

// Dimension weights of the match score.
const (
	WeightTitle     = 0.45
	WeightIssue     = 0.35
	WeightPublisher = 0.10
	WeightYear      = 0.10
)

// WrongIssueCap bounds the score of a candidate whose issue number disagrees with
// the one read from the scan, so it can never reach the High tier.
const WrongIssueCap = 0.49

// Tier thresholds on the 0..1 match score.
const (
	TierHighMin   = 0.80
	TierMediumMin = 0.50
)

// TitleScore blends string similarity with word overlap of the series name.
func TitleScore(title, series string) float64 {
	return 0.7*similarity.Similarity(title, series) + 0.3*similarity.WordOverlap(title, series)
}

// IssueScore is 1 when both issue numbers agree ignoring leading zeros.
func IssueScore(extracted *string, candidate string) float64 {
	if extracted == nil || *extracted == "" {
		return 0
	}
	if models.SameIssue(*extracted, candidate) {
		return 1
	}
	return 0
}

// PublisherScore is 1 when either publisher name contains the other.
func PublisherScore(extracted *string, candidate string) float64 {
	if extracted == nil {
		return 0
	}
	if similarity.Contains(*extracted, candidate) {
		return 1
	}
	return 0
}

// YearScore decays with the distance between the scanned and cover years.
func YearScore(extracted *int, candidate models.CatalogCandidate) float64 {
	if extracted == nil {
		return 0
	}
	coverYear, ok := candidate.CoverYear()
	if !ok {
		return 0
	}

	diff := *extracted - coverYear
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff == 0:
		return 1.0
	case diff == 1:
		return 0.8
	case diff <= 2:
		return 0.5
	case diff <= 5:
		return 0.3
	default:
		return 0
	}
}

// TierFor buckets a match score.
func TierFor(score float64) models.ConfidenceTier {
	switch {
	case score >= TierHighMin:
		return models.TierHigh
	case score >= TierMediumMin:
		return models.TierMedium
	default:
		return models.TierLow
	}
}

// Score rates one candidate against the tokens of a scan.
func Score(candidate models.CatalogCandidate, tokens models.ExtractedTokens) models.ScoredCandidate {
	breakdown := models.ScoreBreakdown{
		Title:     TitleScore(tokens.Title, candidate.SeriesName),
		Issue:     IssueScore(tokens.IssueNumber, candidate.IssueNumber),
		Publisher: PublisherScore(tokens.Publisher, candidate.Publisher),
		Year:      YearScore(tokens.Year, candidate),
	}

	score := WeightTitle*breakdown.Title +
		WeightIssue*breakdown.Issue +
		WeightPublisher*breakdown.Publisher +
		WeightYear*breakdown.Year

	penalized := false
	if tokens.HasIssue() && breakdown.Issue == 0 && score > WrongIssueCap {
		score = WrongIssueCap
		penalized = true
	}
	score = min(max(score, 0), 1)

	return models.ScoredCandidate{
		CatalogCandidate: candidate,
		MatchScore:       score,
		Tier:             TierFor(score),
		Breakdown:        breakdown,
		Penalized:        penalized,
	}
}
