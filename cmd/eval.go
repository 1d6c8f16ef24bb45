package cmd

import (
	"github.com/spf13/cobra"

	"github.com/panelvault/coverid/internal/evalcmd"
)

func newEvalCmd(cfg evalcmd.ConfigFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Measure identification accuracy on labeled scans",
		Long: `Evaluation tools for measuring how often the pipeline ranks the right catalog
issue first.

Datasets are JSONL or Parquet files of labeled scans, each carrying its own
catalog candidates, so runs are repeatable offline.`,
	}

	cmd.AddCommand(evalcmd.NewRunCmd(cfg))
	cmd.AddCommand(evalcmd.NewReportCmd())
	cmd.AddCommand(evalcmd.NewInspectCmd())

	return cmd
}
