// Package evalcmd holds the cobra commands of the evaluation harness.
package evalcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/panelvault/coverid/internal/config"
	"github.com/panelvault/coverid/internal/eval/metrics"
	"github.com/panelvault/coverid/internal/eval/results"
)

// ConfigFunc returns the loaded configuration once the root command has run.
type ConfigFunc func() config.Config

// NewRunCmd creates the run command.
func NewRunCmd(cfg ConfigFunc) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Identify every labeled scan in a dataset and score the results",
		Long: `Runs extraction, scoring and the decision policy over a labeled dataset.

Each dataset record holds the OCR text of a scan, the catalog id it should
resolve to, and the catalog records a search returned for it. No catalog or
OCR service is contacted. Results are written as YAML to the output directory.`,
		Example: `  # Evaluate the first 100 scans
  coverid eval run --dataset ./scans.jsonl --sample 100

  # Evaluate a parquet dataset with 8 workers and top-3 recall
  coverid eval run --dataset ./scans.parquet --concurrency 8 --top-n 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(opts.datasetPath); err != nil {
				return fmt.Errorf("dataset file not found: %s", opts.datasetPath)
			}
			opts.policy = cfg().Decision
			_, err := executeRun(cmd.Context(), cmd.OutOrStdout(), opts)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.datasetPath, "dataset", "", "Path to a JSONL or Parquet dataset (required)")
	cmd.Flags().StringVar(&opts.outputDir, "output", results.DefaultDir, "Directory for YAML results")
	cmd.Flags().IntVar(&opts.sampleSize, "sample", 0, "Number of scans to evaluate (0 for all)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "Parallel workers (0 uses GOMAXPROCS)")
	cmd.Flags().IntVar(&opts.topN, "top-n", metrics.DefaultTopN, "Cutoff for top-N recall")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	var resultsPath string
	var format string
	var failuresOnly bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a saved evaluation run",
		Example: `  coverid eval report --results evals/scans-2026-04-02_09-30-00.yaml
  coverid eval report --results evals/scans-2026-04-02_09-30-00.yaml --format csv --failures`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeReport(cmd.OutOrStdout(), resultsPath, format, failuresOnly)
		},
	}

	cmd.Flags().StringVar(&resultsPath, "results", "", "Path to a results YAML file (required)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, csv, markdown or json")
	cmd.Flags().BoolVar(&failuresOnly, "failures", false, "Only list scans whose top pick is wrong")
	_ = cmd.MarkFlagRequired("results")

	return cmd
}

// NewInspectCmd creates the inspect command.
func NewInspectCmd() *cobra.Command {
	var datasetPath string
	var limit int
	var showOCR bool
	var format string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the tokens extracted from each dataset scan",
		Long: `Runs only the extraction step over a dataset and prints the title, issue,
publisher and year found in each scan next to its labeled catalog issue.`,
		Example: `  coverid eval inspect --dataset ./scans.jsonl --limit 20
  coverid eval inspect --dataset ./scans.parquet --ocr=false --format markdown`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeInspect(cmd.Context(), cmd.OutOrStdout(), datasetPath, limit, showOCR, format)
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to a JSONL or Parquet dataset (required)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of scans to inspect (0 for all)")
	cmd.Flags().BoolVar(&showOCR, "ocr", true, "Show an OCR text preview")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, csv or markdown")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}
