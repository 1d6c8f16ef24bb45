package evalcmd

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/panelvault/coverid/internal/eval/metrics"
	"github.com/panelvault/coverid/internal/eval/results"
	"github.com/panelvault/coverid/internal/tables"
)

func executeReport(out io.Writer, resultsPath, format string, failuresOnly bool) error {
	run, err := results.Load(resultsPath)
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	f, err := tables.ParseFormat(format)
	if err != nil {
		return err
	}

	if f == tables.FormatText {
		fmt.Fprintf(out, "Dataset:  %s\n", run.Config.DatasetPath)
		fmt.Fprintf(out, "Run at:   %s\n\n", run.Config.Timestamp)
		fmt.Fprintln(out, summaryTable(run.Summary).Render(f))
		if len(run.Summary.Fields) > 0 {
			fmt.Fprintln(out, fieldTable(run.Summary).Render(f))
		}
	}
	fmt.Fprintln(out, resultTable(run.Results, failuresOnly).Render(f))
	return nil
}

func summaryTable(s metrics.Summary) tables.Table {
	t := tables.Table{
		Title:   "Evaluation Summary",
		Headers: []string{"Metric", "Value"},
		Aligns:  []tables.Alignment{tables.AlignLeft, tables.AlignRight},
	}
	t.Append("Records", strconv.Itoa(s.TotalRecords))
	t.Append("Failed", strconv.Itoa(s.FailureCount))
	t.Append("Labeled", strconv.Itoa(s.LabeledCount))
	t.Append("Top-1 accuracy", tables.Percent(s.Top1Accuracy))
	t.Append(fmt.Sprintf("Top-%d recall", s.TopN), tables.Percent(s.TopNRecall))
	t.Append("Mean top score", tables.Score(s.MeanTopScore))
	t.Append("Penalized top picks", strconv.Itoa(s.Penalized))
	for _, tier := range slices.Sorted(maps.Keys(s.Tiers)) {
		t.Append("Tier "+tier, strconv.Itoa(s.Tiers[tier]))
	}
	for _, outcome := range slices.Sorted(maps.Keys(s.Outcomes)) {
		t.Append("Outcome "+outcome, strconv.Itoa(s.Outcomes[outcome]))
	}
	t.Append("Avg time / scan", s.AverageProcessingTime.String())
	return t
}

func fieldTable(s metrics.Summary) tables.Table {
	t := tables.Table{
		Title:   "Labeled Candidate Components",
		Headers: []string{"Field", "Scored", "Full", "None", "Average"},
		Aligns:  []tables.Alignment{tables.AlignLeft, tables.AlignRight, tables.AlignRight, tables.AlignRight, tables.AlignRight},
	}
	for _, name := range []string{metrics.FieldTitle, metrics.FieldIssue, metrics.FieldPublisher, metrics.FieldYear} {
		f, ok := s.Fields[name]
		if !ok {
			continue
		}
		t.Append(name, strconv.Itoa(f.Scored), strconv.Itoa(f.FullMatches), strconv.Itoa(f.NoMatches), tables.Score(f.AverageScore))
	}
	return t
}

func resultTable(rs []metrics.ScanResult, failuresOnly bool) tables.Table {
	t := tables.Table{
		Title:   "Scans",
		Headers: []string{"ID", "Query", "Expected", "Top", "Score", "Tier", "Rank", "Outcome", "Note"},
		Aligns: []tables.Alignment{
			tables.AlignLeft, tables.AlignLeft, tables.AlignRight, tables.AlignRight,
			tables.AlignRight, tables.AlignLeft, tables.AlignRight,
		},
	}
	for _, r := range rs {
		if failuresOnly && !r.Failed() && (r.ExpectedID == 0 || r.Top1()) {
			continue
		}

		query := r.Title
		if r.Issue != "" {
			query += " #" + r.Issue
		}
		note := r.Error
		if note == "" {
			note = r.Reason
		}
		if note == "" && r.Penalized {
			note = "wrong issue penalty"
		}
		t.Append(
			r.ID,
			query,
			idCell(r.ExpectedID),
			topCell(r),
			tables.Score(r.TopScore),
			string(r.TopTier),
			rankCell(r.ExpectedRank),
			r.Outcome,
			note,
		)
	}
	return t
}

func idCell(id int64) string {
	if id == 0 {
		return "-"
	}
	return strconv.FormatInt(id, 10)
}

func topCell(r metrics.ScanResult) string {
	if !r.HasTop {
		return "-"
	}
	return strconv.FormatInt(r.TopID, 10)
}

func rankCell(rank int) string {
	if rank == 0 {
		return "-"
	}
	return strconv.Itoa(rank)
}
