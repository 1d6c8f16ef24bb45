// Package catalog supplies comic catalog records to the identification
// pipeline.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/panelvault/coverid/internal/models"
)

// ErrCatalogUnavailable means the catalog could not be searched. It is never
// reported as an empty result.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// DefaultLimit caps the records returned by one search.
const DefaultLimit = 50

// Query is a catalog search keyed by the extracted title and issue.
type Query struct {
	Title string
	Issue string
	Limit int
}

// String renders the query the way a catalog search box expects it.
func (q Query) String() string {
	title := strings.TrimSpace(q.Title)
	issue := strings.TrimSpace(q.Issue)
	if issue == "" {
		return title
	}
	return title + " #" + issue
}

// Record is one issue as stored in a catalog dump.
type Record struct {
	ID          int64    `json:"id" parquet:"id"`
	Name        string   `json:"name,omitempty" parquet:"name"`
	IssueNumber string   `json:"issue_number" parquet:"issue_number"`
	Volume      string   `json:"volume" parquet:"volume"`
	Publisher   string   `json:"publisher,omitempty" parquet:"publisher"`
	CoverDate   string   `json:"cover_date,omitempty" parquet:"cover_date"`
	Images      []string `json:"images,omitempty" parquet:"images,list"`
}

// Candidate maps the record to the pipeline's candidate shape. matchPath names
// a fallback query and is empty for the primary one.
func (r Record) Candidate(matchPath string) models.CatalogCandidate {
	return models.CatalogCandidate{
		ID:          r.ID,
		Name:        r.Name,
		IssueNumber: r.IssueNumber,
		SeriesName:  r.Volume,
		Publisher:   r.Publisher,
		CoverDate:   r.CoverDate,
		CoverImages: r.Images,
		MatchPath:   matchPath,
	}
}

// Candidates maps each record with Candidate.
func Candidates(records []Record, matchPath string) []models.CatalogCandidate {
	out := make([]models.CatalogCandidate, 0, len(records))
	for _, r := range records {
		out = append(out, r.Candidate(matchPath))
	}
	return out
}

// Source searches a catalog. Implementations wrap transport failures in
// ErrCatalogUnavailable.
type Source interface {
	Search(ctx context.Context, q Query) ([]Record, error)
}
