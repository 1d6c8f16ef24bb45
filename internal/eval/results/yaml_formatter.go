// Package results persists evaluation runs as YAML.
package results

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/panelvault/coverid/internal/decision"
	"github.com/panelvault/coverid/internal/eval/metrics"
)

// DefaultDir is where runs are written.
const DefaultDir = "evals"

const timestampLayout = "2006-01-02_15-04-05"

// EvalConfig records how a run was produced.
type EvalConfig struct {
	DatasetPath string          `yaml:"dataset_path"`
	SampleSize  int             `yaml:"sample_size"`
	Concurrency int             `yaml:"concurrency"`
	Policy      decision.Policy `yaml:"policy"`
	Timestamp   string          `yaml:"timestamp"`
}

// EvalRun is one evaluation written to disk.
type EvalRun struct {
	Config  EvalConfig           `yaml:"config"`
	Summary metrics.Summary      `yaml:"summary"`
	Results []metrics.ScanResult `yaml:"results"`
}

// NewRun stamps cfg with at and bundles it with the run's results.
func NewRun(cfg EvalConfig, at time.Time, summary metrics.Summary, results []metrics.ScanResult) EvalRun {
	cfg.Timestamp = at.Format(timestampLayout)
	return EvalRun{Config: cfg, Summary: summary, Results: results}
}

// Save writes run to dir as <dataset>-<timestamp>.yaml and returns the path.
func Save(dir string, run EvalRun) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	name := "eval"
	if run.Config.DatasetPath != "" {
		base := filepath.Base(run.Config.DatasetPath)
		name = base[:len(base)-len(filepath.Ext(base))]
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", name, run.Config.Timestamp))

	data, err := yaml.Marshal(&run)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}
	return path, nil
}

// Load reads a run written by Save.
func Load(path string) (EvalRun, error) {
	var run EvalRun
	data, err := os.ReadFile(path)
	if err != nil {
		return run, fmt.Errorf("failed to read results: %w", err)
	}
	if err := yaml.Unmarshal(data, &run); err != nil {
		return run, fmt.Errorf("failed to parse results: %w", err)
	}
	return run, nil
}
