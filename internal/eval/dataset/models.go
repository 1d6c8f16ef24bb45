// Package dataset loads labeled scans for offline evaluation.
package dataset

import (
	"strings"

	"github.com/panelvault/coverid/internal/catalog"
	"github.com/panelvault/coverid/internal/models"
)

// LabeledScan is one OCR capture with the catalog issue it should resolve to
// and the catalog records a search returned for it.
type LabeledScan struct {
	ID         string           `json:"id" parquet:"id"`
	OCRText    string           `json:"ocr_text" parquet:"ocr_text"`
	ExpectedID int64            `json:"expected_id,omitempty" parquet:"expected_id"`
	Candidates []catalog.Record `json:"candidates" parquet:"candidates,list"`
}

// Labeled reports whether the scan carries an expected answer.
func (s LabeledScan) Labeled() bool {
	return s.ExpectedID > 0
}

// CatalogCandidates maps the stored records for scoring.
func (s LabeledScan) CatalogCandidates() []models.CatalogCandidate {
	return catalog.Candidates(s.Candidates, "")
}

// Expected returns the labeled record when it is among the candidates.
func (s LabeledScan) Expected() (catalog.Record, bool) {
	if !s.Labeled() {
		return catalog.Record{}, false
	}
	for _, r := range s.Candidates {
		if r.ID == s.ExpectedID {
			return r, true
		}
	}
	return catalog.Record{}, false
}

// Preview returns the OCR text on one line, cut to maxLen runes.
func (s LabeledScan) Preview(maxLen int) string {
	flat := strings.Join(strings.Fields(s.OCRText), " ")
	runes := []rune(flat)
	if maxLen <= 3 || len(runes) <= maxLen {
		return flat
	}
	return string(runes[:maxLen-3]) + "..."
}
