// Package decision turns a ranked candidate list into what the scanning screen
// shows next: an automatic pick, a short list to choose from, or a prompt to
// search manually.
package decision

import (
	"math"

	"github.com/panelvault/coverid/internal/models"
)

// Display labels shown next to a candidate.
const (
	LabelHighMatch     = "High Match"
	LabelPossibleMatch = "Possible Match"
	LabelLowMatch      = "Low Match"
)

// Policy holds the caller-tunable decision thresholds. These are display and
// acceptance thresholds; they are independent of the scoring tiers.
type Policy struct {
	MaxChoices         int     `yaml:"max_choices" json:"max_choices"`
	HighMatchLabel     float64 `yaml:"high_match_label" json:"high_match_label"`
	PossibleMatchLabel float64 `yaml:"possible_match_label" json:"possible_match_label"`
	// AutoAcceptScore lets a top candidate skip user confirmation. 0 disables it.
	AutoAcceptScore float64 `yaml:"auto_accept_score" json:"auto_accept_score"`
}

// DefaultPolicy never auto-accepts and offers up to five choices.
func DefaultPolicy() Policy {
	return Policy{
		MaxChoices:         5,
		HighMatchLabel:     0.70,
		PossibleMatchLabel: 0.45,
		AutoAcceptScore:    0,
	}
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()

	if p.MaxChoices <= 0 {
		p.MaxChoices = d.MaxChoices
	}
	if p.HighMatchLabel <= 0 || p.HighMatchLabel > 1 {
		p.HighMatchLabel = d.HighMatchLabel
	}
	if p.PossibleMatchLabel <= 0 || p.PossibleMatchLabel > 1 {
		p.PossibleMatchLabel = d.PossibleMatchLabel
	}
	if p.PossibleMatchLabel > p.HighMatchLabel {
		p.HighMatchLabel = d.HighMatchLabel
		p.PossibleMatchLabel = d.PossibleMatchLabel
	}
	if p.AutoAcceptScore < 0 || p.AutoAcceptScore > 1 {
		p.AutoAcceptScore = d.AutoAcceptScore
	}

	return p
}

// Normalized returns p with out-of-range values replaced by defaults.
func (p Policy) Normalized() Policy {
	return p.normalized()
}

// Label picks the display label for a match score.
func (p Policy) Label(score float64) string {
	p = p.normalized()
	switch {
	case score >= p.HighMatchLabel:
		return LabelHighMatch
	case score >= p.PossibleMatchLabel:
		return LabelPossibleMatch
	default:
		return LabelLowMatch
	}
}

// Percent converts a match score to a whole percentage in [0,100].
func Percent(score float64) int {
	pct := int(math.Round(score * 100))
	return min(max(pct, 0), 100)
}

// TopMatch maps a scored candidate to the shape shown to the user.
func (p Policy) TopMatch(c models.ScoredCandidate) models.TopMatch {
	year, _ := c.CoverYear()
	return models.TopMatch{
		ID:         c.ID,
		Series:     c.SeriesName,
		Issue:      c.IssueNumber,
		Year:       year,
		Publisher:  c.Publisher,
		CoverImage: c.CoverImage(),
		Confidence: Percent(c.MatchScore),
		Label:      p.Label(c.MatchScore),
		Note:       c.MatchPath,
	}
}

// TopMatches maps each candidate with TopMatch.
func (p Policy) TopMatches(cs []models.ScoredCandidate) []models.TopMatch {
	out := make([]models.TopMatch, 0, len(cs))
	for _, c := range cs {
		out = append(out, p.TopMatch(c))
	}
	return out
}
