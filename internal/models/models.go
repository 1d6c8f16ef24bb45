package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrMalformedCandidate marks a catalog record that cannot be scored.
var ErrMalformedCandidate = errors.New("malformed catalog candidate")

// Confidence holds per-field extraction confidences, each in [0,1].
type Confidence struct {
	Title     float64 `json:"title" yaml:"title"`
	Issue     float64 `json:"issue" yaml:"issue"`
	Publisher float64 `json:"publisher" yaml:"publisher"`
	Year      float64 `json:"year" yaml:"year"`
}

// ExtractedTokens is the structured reading of one scan. Optional fields are nil
// exactly when nothing was detected, and their confidence is then 0.
type ExtractedTokens struct {
	TitleTokens []string   `json:"title_tokens" yaml:"title_tokens"`
	Title       string     `json:"title" yaml:"title"`
	IssueNumber *string    `json:"issue_number,omitempty" yaml:"issue_number,omitempty"`
	Publisher   *string    `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Year        *int       `json:"year,omitempty" yaml:"year,omitempty"`
	Confidence  Confidence `json:"confidence" yaml:"confidence"`
}

// HasIssue reports whether a non-empty issue number was extracted.
func (t ExtractedTokens) HasIssue() bool {
	return t.IssueNumber != nil && *t.IssueNumber != ""
}

// CatalogCandidate is a record returned by the catalog lookup.
type CatalogCandidate struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name,omitempty"`
	IssueNumber string   `json:"issue_number" validate:"required"`
	SeriesName  string   `json:"series_name" validate:"required"`
	Publisher   string   `json:"publisher,omitempty"`
	CoverDate   string   `json:"cover_date,omitempty"`
	CoverImages []string `json:"cover_images,omitempty"`
	// MatchPath names the catalog query that produced this record when it was not
	// the primary one.
	MatchPath string `json:"match_path,omitempty"`
}

var candidateValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate reports ErrMalformedCandidate when a required field is missing.
func (c CatalogCandidate) Validate() error {
	c.IssueNumber = strings.TrimSpace(c.IssueNumber)
	c.SeriesName = strings.TrimSpace(c.SeriesName)
	if err := candidateValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: candidate %d missing %s", ErrMalformedCandidate, c.ID, verrs[0].Field())
		}
		return fmt.Errorf("%w: %v", ErrMalformedCandidate, err)
	}
	return nil
}

// CoverYear parses the year prefix of CoverDate. ok is false when absent.
func (c CatalogCandidate) CoverYear() (int, bool) {
	date := strings.TrimSpace(c.CoverDate)
	if len(date) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0, false
	}
	return year, true
}

// SameIssue compares issue numbers ignoring leading zeros. The comparison is
// numeric when both parse as integers and exact otherwise.
func SameIssue(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	na, errA := strconv.Atoi(stripLeadingZeros(a))
	nb, errB := strconv.Atoi(stripLeadingZeros(b))
	if errA == nil && errB == nil {
		return na == nb
	}
	return a == b
}

func stripLeadingZeros(s string) string {
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" && s != "" {
		return "0"
	}
	return trimmed
}

// CoverImage returns the first cover reference, if any.
func (c CatalogCandidate) CoverImage() string {
	if len(c.CoverImages) == 0 {
		return ""
	}
	return c.CoverImages[0]
}

// ConfidenceTier buckets a match score.
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"
)

// ScoreBreakdown keeps the per-dimension sub-scores for auditing. It is never used
// for ranking.
type ScoreBreakdown struct {
	Title     float64 `json:"title" yaml:"title"`
	Issue     float64 `json:"issue" yaml:"issue"`
	Publisher float64 `json:"publisher" yaml:"publisher"`
	Year      float64 `json:"year" yaml:"year"`
}

// ScoredCandidate is a candidate with its match score against one scan.
type ScoredCandidate struct {
	CatalogCandidate
	MatchScore float64        `json:"match_score"`
	Tier       ConfidenceTier `json:"tier"`
	Breakdown  ScoreBreakdown `json:"breakdown"`
	// Penalized is set when the wrong-issue cap lowered the score.
	Penalized bool `json:"penalized,omitempty"`
}

// TopMatch is the light shape handed to the disambiguation screen.
type TopMatch struct {
	ID         int64  `json:"id"`
	Series     string `json:"series"`
	Issue      string `json:"issue"`
	Year       int    `json:"year,omitempty"`
	Publisher  string `json:"publisher,omitempty"`
	CoverImage string `json:"cover_image,omitempty"`
	Confidence int    `json:"confidence"`
	Label      string `json:"label"`
	Note       string `json:"note,omitempty"`
}
