package evalcmd

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/panelvault/coverid/internal/decision"
	"github.com/panelvault/coverid/internal/eval/dataset"
	"github.com/panelvault/coverid/internal/eval/metrics"
	"github.com/panelvault/coverid/internal/eval/results"
	"github.com/panelvault/coverid/internal/identify"
	"github.com/panelvault/coverid/internal/tables"
)

type runOptions struct {
	datasetPath string
	outputDir   string
	sampleSize  int
	concurrency int
	topN        int
	policy      decision.Policy
}

func executeRun(ctx context.Context, out io.Writer, opts runOptions) (string, error) {
	log.Info().Str("dataset", opts.datasetPath).Int("sample", opts.sampleSize).Msg("starting evaluation run")

	scans, err := dataset.NewLoader(opts.datasetPath).LoadSample(opts.sampleSize)
	if err != nil {
		return "", fmt.Errorf("failed to load dataset: %w", err)
	}
	log.Info().Int("scans", len(scans)).Msg("dataset loaded")

	svc := identify.NewService(nil, identify.WithPolicy(opts.policy))
	scored, err := Evaluate(ctx, svc, scans, opts.concurrency)
	if err != nil {
		return "", err
	}

	summary := metrics.Aggregate(scored, opts.topN)
	run := results.NewRun(results.EvalConfig{
		DatasetPath: opts.datasetPath,
		SampleSize:  opts.sampleSize,
		Concurrency: opts.concurrency,
		Policy:      svc.Policy(),
	}, time.Now(), summary, scored)

	path, err := results.Save(opts.outputDir, run)
	if err != nil {
		return "", err
	}

	fmt.Fprintln(out, summaryTable(summary).Render(tables.FormatText))
	fmt.Fprintf(out, "\nResults saved to: %s\n", path)
	fmt.Fprintf(out, "Generate a detailed report with:\n  coverid eval report --results %s\n", path)
	return path, nil
}

// Evaluate identifies every scan against its stored candidates. Results keep
// dataset order. A non-positive concurrency uses GOMAXPROCS.
func Evaluate(ctx context.Context, svc *identify.Service, scans []dataset.LabeledScan, concurrency int) ([]metrics.ScanResult, error) {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	out := make([]metrics.ScanResult, len(scans))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, scan := range scans {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = evaluateScan(svc, scan)
			log.Debug().
				Str("id", scan.ID).
				Int64("top_id", out[i].TopID).
				Bool("top1", out[i].Top1()).
				Str("progress", fmt.Sprintf("%d/%d", i+1, len(scans))).
				Msg("evaluated scan")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluation interrupted: %w", err)
	}
	return out, nil
}

func evaluateScan(svc *identify.Service, scan dataset.LabeledScan) metrics.ScanResult {
	start := time.Now()
	res := svc.Replay(scan.OCRText, scan.CatalogCandidates())
	r := metrics.NewScanResult(scan, res, time.Since(start))

	if scan.Labeled() {
		if _, ok := scan.Expected(); !ok {
			r.Error = fmt.Sprintf("expected id %d is not among the candidates", scan.ExpectedID)
		}
	}
	return r
}
