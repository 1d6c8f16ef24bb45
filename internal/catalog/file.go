package catalog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog/log"

	"github.com/panelvault/coverid/internal/models"
	"github.com/panelvault/coverid/internal/similarity"
)

// Title match thresholds for FileSource.
const (
	minTitleSimilarity  = 0.6
	minTitleWordOverlap = 0.6
)

// FileSource searches an in-memory copy of a catalog dump.
type FileSource struct {
	records []Record
}

// NewFileSource serves the given records.
func NewFileSource(records []Record) *FileSource {
	return &FileSource{records: records}
}

// LoadFile reads a catalog dump. JSON arrays (.json), JSON lines (.jsonl) and
// Parquet (.parquet) are supported.
func LoadFile(path string) (*FileSource, error) {
	var (
		records []Record
		err     error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		records, err = loadJSON(path)
	case ".jsonl":
		records, err = loadJSONL(path)
	case ".parquet":
		records, err = loadParquet(path)
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s (supported: .json, .jsonl, .parquet)", ext)
	}
	if err != nil {
		return nil, err
	}

	log.Debug().Str("path", path).Int("records", len(records)).Msg("loaded catalog")
	return NewFileSource(records), nil
}

func loadJSON(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return records, nil
}

func loadJSONL(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, 0, 64*1024), maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("failed to parse catalog line %d: %w", lineNum, err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading catalog: %w", err)
	}
	return records, nil
}

func loadParquet(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat catalog: %w", err)
	}
	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Record](pf)
	defer reader.Close()

	records := make([]Record, 0, pf.NumRows())
	for {
		rows := make([]Record, 128)
		n, err := reader.Read(rows)
		records = append(records, rows[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
	return records, nil
}

// Len returns the number of records served.
func (s *FileSource) Len() int { return len(s.records) }

// Search returns records whose volume resembles the query title and, when the
// query has an issue, whose issue number matches it. Records keep file order.
func (s *FileSource) Search(ctx context.Context, q Query) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	title := strings.TrimSpace(q.Title)
	if title == "" {
		return nil, nil
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	var out []Record
	for _, r := range s.records {
		if q.Issue != "" && !models.SameIssue(q.Issue, r.IssueNumber) {
			continue
		}
		if !titleMatches(title, r.Volume) {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func titleMatches(title, volume string) bool {
	if similarity.Contains(title, volume) {
		return true
	}
	if similarity.WordOverlap(title, volume) >= minTitleWordOverlap {
		return true
	}
	return similarity.Similarity(title, volume) >= minTitleSimilarity
}
