package evalcmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/panelvault/coverid/internal/eval/dataset"
	"github.com/panelvault/coverid/internal/extraction"
	"github.com/panelvault/coverid/internal/models"
	"github.com/panelvault/coverid/internal/tables"
)

const previewChars = 60

func executeInspect(ctx context.Context, out io.Writer, datasetPath string, limit int, showOCR bool, format string) error {
	f, err := tables.ParseFormat(format)
	if err != nil {
		return err
	}

	scans, err := dataset.NewLoader(datasetPath).LoadSample(limit)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	t, err := inspectTable(ctx, scans, showOCR)
	if err != nil {
		return err
	}
	if f == tables.FormatText {
		fmt.Fprintf(out, "Loaded %d scans from %s\n", len(scans), datasetPath)
	}
	fmt.Fprintln(out, t.Render(f))
	return nil
}

func inspectTable(ctx context.Context, scans []dataset.LabeledScan, showOCR bool) (tables.Table, error) {
	t := tables.Table{
		Title:   "Extracted Tokens",
		Headers: []string{"ID", "Title", "Issue", "Publisher", "Year", "Title conf", "Expected", "Candidates"},
	}
	if showOCR {
		t.Headers = append(t.Headers, "OCR")
	}

	for _, scan := range scans {
		if err := ctx.Err(); err != nil {
			return t, err
		}
		tokens := extraction.ExtractTokens(scan.OCRText)

		expected := "-"
		if r, ok := scan.Expected(); ok {
			expected = r.Candidate("").Name
			if expected == "" {
				expected = fmt.Sprintf("%s #%s", r.Volume, r.IssueNumber)
			}
		} else if scan.Labeled() {
			expected = fmt.Sprintf("missing (%d)", scan.ExpectedID)
		}

		row := []string{
			scan.ID,
			tokens.Title,
			optional(tokens.IssueNumber),
			optional(tokens.Publisher),
			optionalYear(tokens),
			tables.Score(tokens.Confidence.Title),
			expected,
			strconv.Itoa(len(scan.Candidates)),
		}
		if showOCR {
			row = append(row, scan.Preview(previewChars))
		}
		t.Append(row...)
	}
	return t, nil
}

func optional(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func optionalYear(tokens models.ExtractedTokens) string {
	if tokens.Year == nil {
		return "-"
	}
	return strconv.Itoa(*tokens.Year)
}
