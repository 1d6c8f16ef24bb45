package results

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelvault/coverid/internal/decision"
	"github.com/panelvault/coverid/internal/eval/metrics"
	"github.com/panelvault/coverid/internal/models"
)

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()

	scans := []metrics.ScanResult{
		{
			ID: "asm-300", ExpectedID: 300, HasTop: true, TopID: 300, TopScore: 0.95, TopTier: models.TierHigh,
			ExpectedRank: 1, ExpectedBreakdown: &models.ScoreBreakdown{Title: 1, Issue: 1},
			ProcessingTime: 1500 * time.Microsecond,
		},
		{ID: "broken", Error: "boom"},
	}
	at := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	run := NewRun(EvalConfig{DatasetPath: "data/scans.jsonl", Policy: decision.DefaultPolicy()}, at, metrics.Aggregate(scans, 5), scans)

	dir := t.TempDir()
	path, err := Save(dir, run)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "scans-2026-04-02_09-30-00.yaml"), path)

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "2026-04-02_09-30-00", got.Config.Timestamp)
	assert.Equal(t, decision.DefaultPolicy(), got.Config.Policy)
	assert.Equal(t, 1, got.Summary.Top1Correct)
	require.Len(t, got.Results, 2)
	assert.Equal(t, scans[0].ProcessingTime, got.Results[0].ProcessingTime)
	require.NotNil(t, got.Results[0].ExpectedBreakdown)
	assert.Equal(t, "boom", got.Results[1].Error)
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
