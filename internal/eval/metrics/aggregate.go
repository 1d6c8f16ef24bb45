// Package metrics scores evaluation runs against labeled scans.
package metrics

import (
	"time"

	"github.com/panelvault/coverid/internal/eval/dataset"
	"github.com/panelvault/coverid/internal/identify"
	"github.com/panelvault/coverid/internal/models"
)

// DefaultTopN is the recall cutoff used when none is given.
const DefaultTopN = 5

// Field names used in Summary.Fields.
const (
	FieldTitle     = "title"
	FieldIssue     = "issue"
	FieldPublisher = "publisher"
	FieldYear      = "year"
)

// ScanResult is the outcome of identifying one labeled scan.
type ScanResult struct {
	ID         string `yaml:"id" json:"id"`
	ExpectedID int64  `yaml:"expected_id,omitempty" json:"expected_id,omitempty"`
	Title      string `yaml:"title,omitempty" json:"title,omitempty"`
	Issue      string `yaml:"issue,omitempty" json:"issue,omitempty"`

	Outcome    string                `yaml:"outcome" json:"outcome"`
	Reason     string                `yaml:"reason,omitempty" json:"reason,omitempty"`
	Candidates int                   `yaml:"candidates" json:"candidates"`
	Choices    int                   `yaml:"choices" json:"choices"`
	HasTop     bool                  `yaml:"has_top" json:"has_top"`
	TopID      int64                 `yaml:"top_id,omitempty" json:"top_id,omitempty"`
	TopScore   float64               `yaml:"top_score" json:"top_score"`
	TopTier    models.ConfidenceTier `yaml:"top_tier,omitempty" json:"top_tier,omitempty"`
	Penalized  bool                  `yaml:"penalized,omitempty" json:"penalized,omitempty"`

	// ExpectedRank is the 1-based position of the labeled issue in the
	// ranking, or 0 when it was not ranked.
	ExpectedRank      int                    `yaml:"expected_rank" json:"expected_rank"`
	ExpectedBreakdown *models.ScoreBreakdown `yaml:"expected_breakdown,omitempty" json:"expected_breakdown,omitempty"`

	Error          string        `yaml:"error,omitempty" json:"error,omitempty"`
	ProcessingTime time.Duration `yaml:"processing_time" json:"processing_time"`
}

// NewScanResult records how res compares with the scan's label.
func NewScanResult(scan dataset.LabeledScan, res identify.Result, elapsed time.Duration) ScanResult {
	r := ScanResult{
		ID:             scan.ID,
		ExpectedID:     scan.ExpectedID,
		Title:          res.Tokens.Title,
		Outcome:        string(res.Outcome.Kind),
		Reason:         string(res.Reason),
		Candidates:     len(scan.Candidates),
		Choices:        len(res.Outcome.Choices),
		ProcessingTime: elapsed,
	}
	if res.Tokens.HasIssue() {
		r.Issue = *res.Tokens.IssueNumber
	}

	if len(res.Ranked) > 0 {
		top := res.Ranked[0]
		r.HasTop = true
		r.TopID = top.ID
		r.TopScore = top.MatchScore
		r.TopTier = top.Tier
		r.Penalized = top.Penalized
	}

	if scan.Labeled() {
		for i, c := range res.Ranked {
			if c.ID == scan.ExpectedID {
				r.ExpectedRank = i + 1
				breakdown := c.Breakdown
				r.ExpectedBreakdown = &breakdown
				break
			}
		}
	}
	return r
}

// Failed reports whether the scan could not be evaluated.
func (r ScanResult) Failed() bool { return r.Error != "" }

// Top1 reports whether the best candidate is the labeled issue.
func (r ScanResult) Top1() bool {
	return r.HasTop && r.ExpectedID > 0 && r.TopID == r.ExpectedID
}

// InTopN reports whether the labeled issue ranked within the first n.
func (r ScanResult) InTopN(n int) bool {
	return r.ExpectedRank > 0 && r.ExpectedRank <= n
}

// FieldStats summarizes one score component for the labeled candidates.
type FieldStats struct {
	Scored       int     `yaml:"scored" json:"scored"`
	FullMatches  int     `yaml:"full_matches" json:"full_matches"`
	NoMatches    int     `yaml:"no_matches" json:"no_matches"`
	AverageScore float64 `yaml:"average_score" json:"average_score"`
}

func (f *FieldStats) add(score float64) {
	f.Scored++
	switch {
	case score >= 1:
		f.FullMatches++
	case score <= 0:
		f.NoMatches++
	}
	f.AverageScore += (score - f.AverageScore) / float64(f.Scored)
}

// Summary aggregates a run.
type Summary struct {
	TotalRecords int `yaml:"total_records" json:"total_records"`
	SuccessCount int `yaml:"success_count" json:"success_count"`
	FailureCount int `yaml:"failure_count" json:"failure_count"`
	LabeledCount int `yaml:"labeled_count" json:"labeled_count"`

	TopN         int     `yaml:"top_n" json:"top_n"`
	Top1Correct  int     `yaml:"top1_correct" json:"top1_correct"`
	TopNHits     int     `yaml:"top_n_hits" json:"top_n_hits"`
	Top1Accuracy float64 `yaml:"top1_accuracy" json:"top1_accuracy"`
	TopNRecall   float64 `yaml:"top_n_recall" json:"top_n_recall"`

	Tiers        map[string]int        `yaml:"tiers" json:"tiers"`
	Outcomes     map[string]int        `yaml:"outcomes" json:"outcomes"`
	Penalized    int                   `yaml:"penalized" json:"penalized"`
	MeanTopScore float64               `yaml:"mean_top_score" json:"mean_top_score"`
	Fields       map[string]FieldStats `yaml:"fields" json:"fields"`

	AverageProcessingTime time.Duration `yaml:"average_processing_time" json:"average_processing_time"`
	TotalProcessingTime   time.Duration `yaml:"total_processing_time" json:"total_processing_time"`
}

// Aggregate summarizes results. Accuracy and recall are over labeled scans
// that did not fail; tiers and the mean top score are over scans that ranked
// at least one candidate.
func Aggregate(results []ScanResult, topN int) Summary {
	if topN <= 0 {
		topN = DefaultTopN
	}
	s := Summary{
		TotalRecords: len(results),
		TopN:         topN,
		Tiers:        map[string]int{},
		Outcomes:     map[string]int{},
		Fields:       map[string]FieldStats{},
	}

	var (
		topScoreSum float64
		withTop     int
		successTime time.Duration
		fields      = map[string]*FieldStats{
			FieldTitle:     {},
			FieldIssue:     {},
			FieldPublisher: {},
			FieldYear:      {},
		}
	)

	for _, r := range results {
		s.TotalProcessingTime += r.ProcessingTime
		if r.Failed() {
			s.FailureCount++
			continue
		}
		s.SuccessCount++
		successTime += r.ProcessingTime
		s.Outcomes[r.Outcome]++

		if r.HasTop {
			withTop++
			topScoreSum += r.TopScore
			s.Tiers[string(r.TopTier)]++
			if r.Penalized {
				s.Penalized++
			}
		}

		if r.ExpectedID <= 0 {
			continue
		}
		s.LabeledCount++
		if r.Top1() {
			s.Top1Correct++
		}
		if r.InTopN(topN) {
			s.TopNHits++
		}
		if b := r.ExpectedBreakdown; b != nil {
			fields[FieldTitle].add(b.Title)
			fields[FieldIssue].add(b.Issue)
			fields[FieldPublisher].add(b.Publisher)
			fields[FieldYear].add(b.Year)
		}
	}

	if s.LabeledCount > 0 {
		s.Top1Accuracy = float64(s.Top1Correct) / float64(s.LabeledCount)
		s.TopNRecall = float64(s.TopNHits) / float64(s.LabeledCount)
	}
	if withTop > 0 {
		s.MeanTopScore = topScoreSum / float64(withTop)
	}
	if s.SuccessCount > 0 {
		s.AverageProcessingTime = successTime / time.Duration(s.SuccessCount)
	}
	for name, f := range fields {
		if f.Scored > 0 {
			s.Fields[name] = *f
		}
	}
	return s
}
