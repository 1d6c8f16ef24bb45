package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog/log"
)

// Loader reads labeled scans from a JSONL or Parquet file.
type Loader struct {
	datasetPath string
}

func NewLoader(datasetPath string) *Loader {
	return &Loader{
		datasetPath: datasetPath,
	}
}

// Load reads every scan in the file.
func (l *Loader) Load() ([]LabeledScan, error) {
	return l.LoadSample(0)
}

// LoadSample reads at most limit scans. A non-positive limit reads them all.
func (l *Loader) LoadSample(limit int) ([]LabeledScan, error) {
	switch ext := strings.ToLower(filepath.Ext(l.datasetPath)); ext {
	case ".parquet":
		return l.loadParquet(limit)
	case ".jsonl", ".json":
		return l.loadJSONL(limit)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}
}

func (l *Loader) loadJSONL(limit int) ([]LabeledScan, error) {
	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var scans []LabeledScan
	scanner := bufio.NewScanner(file)

	// OCR text plus a few dozen candidates per line
	const maxCapacity = 10 * 1024 * 1024
	scanner.Buffer(make([]byte, 0, 64*1024), maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		if limit > 0 && len(scans) >= limit {
			break
		}
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var scan LabeledScan
		if err := json.Unmarshal(line, &scan); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		if scan.ID == "" {
			scan.ID = fmt.Sprintf("line-%d", lineNum)
		}
		scans = append(scans, scan)

		if lineNum%1000 == 0 {
			log.Debug().Int("lines_read", lineNum).Msg("reading JSONL")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}

	log.Debug().Str("path", l.datasetPath).Int("scans", len(scans)).Msg("finished reading JSONL dataset")
	return scans, nil
}

func (l *Loader) loadParquet(limit int) ([]LabeledScan, error) {
	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}
	log.Debug().Int64("num_rows", pf.NumRows()).Int("num_row_groups", len(pf.RowGroups())).Msg("parquet dataset opened")

	reader := parquet.NewGenericReader[LabeledScan](pf)
	defer reader.Close()

	var scans []LabeledScan
	for limit <= 0 || len(scans) < limit {
		// fresh batch each time; the reader may reuse nested slices
		rows := make([]LabeledScan, 128)
		n, err := reader.Read(rows)
		if limit > 0 && n > limit-len(scans) {
			n = limit - len(scans)
		}
		scans = append(scans, rows[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	for i := range scans {
		if scans[i].ID == "" {
			scans[i].ID = fmt.Sprintf("row-%d", i+1)
		}
	}

	log.Debug().Str("path", l.datasetPath).Int("scans", len(scans)).Msg("finished reading parquet dataset")
	return scans, nil
}
