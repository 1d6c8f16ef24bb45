package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadWithEnv("", env(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 5, cfg.Decision.MaxChoices)
	assert.Zero(t, cfg.Decision.AutoAcceptScore)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "coverid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
catalog: testdata/catalog.jsonl
port: "9000"
session_ttl: 10m
decision:
  max_choices: 3
  auto_accept_score: 0.9
ocr:
  provider: gemini
  model: gemini-2.0-flash
`), 0o644))

	cfg, err := LoadWithEnv(path, env(map[string]string{
		"COVERID_PORT":         "9100",
		"COVERID_CORS_ORIGINS": "https://a.example, https://b.example",
		"GEMINI_API_KEY":       "secret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "testdata/catalog.jsonl", cfg.Catalog)
	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, 10*time.Minute, cfg.SessionTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 3, cfg.Decision.MaxChoices)
	assert.InDelta(t, 0.9, cfg.Decision.AutoAcceptScore, 1e-9)
	assert.InDelta(t, 0.70, cfg.Decision.HighMatchLabel, 1e-9)
	assert.Equal(t, "gemini", cfg.OCR.Provider)
	assert.Equal(t, "secret", cfg.OCR.GeminiAPIKey)
}

func TestEnvNormalizesPolicy(t *testing.T) {
	t.Parallel()

	cfg, err := LoadWithEnv("", env(map[string]string{
		"COVERID_MAX_CHOICES":       "0",
		"COVERID_AUTO_ACCEPT_SCORE": "3",
	}))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Decision.MaxChoices)
	assert.Zero(t, cfg.Decision.AutoAcceptScore)
}

func TestInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vars map[string]string
	}{
		{name: "provider", vars: map[string]string{"COVERID_OCR_PROVIDER": "tesseract"}},
		{name: "level", vars: map[string]string{"COVERID_LOG_LEVEL": "loud"}},
		{name: "port", vars: map[string]string{"COVERID_PORT": "http"}},
		{name: "limit", vars: map[string]string{"COVERID_CATALOG_LIMIT": "many"}},
		{name: "ttl", vars: map[string]string{"COVERID_SESSION_TTL": "soon"}},
		{name: "score", vars: map[string]string{"COVERID_AUTO_ACCEPT_SCORE": "high"}},
		{name: "ollama url", vars: map[string]string{"OLLAMA_URL": "not a url"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadWithEnv("", env(tt.vars))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadWithEnv(filepath.Join(t.TempDir(), "nope.yaml"), env(nil))
	require.Error(t, err)
}
