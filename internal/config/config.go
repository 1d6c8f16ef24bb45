// Package config loads coverid settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/panelvault/coverid/internal/decision"
)

// EnvPrefix prefixes every coverid environment variable.
const EnvPrefix = "COVERID_"

// OCR selects the image-to-text provider used for image scans.
type OCR struct {
	Provider     string  `yaml:"provider" validate:"omitempty,oneof=ollama gemini openai"`
	Model        string  `yaml:"model"`
	Temperature  float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	OllamaURL    string  `yaml:"ollama_url" validate:"omitempty,url"`
	GeminiAPIKey string  `yaml:"-"`
	OpenAIAPIKey string  `yaml:"-"`
}

// Config is the full runtime configuration.
type Config struct {
	LogLevel     string          `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	LogFile      string          `yaml:"log_file"`
	Catalog      string          `yaml:"catalog"`
	CatalogLimit int             `yaml:"catalog_limit" validate:"gte=0"`
	Port         string          `yaml:"port" validate:"required,numeric"`
	SessionTTL   time.Duration   `yaml:"session_ttl" validate:"gte=0"`
	CORSOrigins  []string        `yaml:"cors_origins"`
	Decision     decision.Policy `yaml:"decision"`
	OCR          OCR             `yaml:"ocr"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		LogLevel:     "info",
		CatalogLimit: 50,
		Port:         "8888",
		SessionTTL:   30 * time.Minute,
		CORSOrigins:  []string{"*"},
		Decision:     decision.DefaultPolicy(),
		OCR: OCR{
			Provider:  "ollama",
			OllamaURL: "http://localhost:11434",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads path (when non-empty) over the defaults, then the process
// environment.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	cfg.Decision = cfg.Decision.Normalized()

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Config{}, fmt.Errorf("invalid config: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	str(EnvPrefix+"LOG_LEVEL", &cfg.LogLevel)
	str(EnvPrefix+"LOG_FILE", &cfg.LogFile)
	str(EnvPrefix+"CATALOG", &cfg.Catalog)
	str(EnvPrefix+"PORT", &cfg.Port)
	str(EnvPrefix+"OCR_PROVIDER", &cfg.OCR.Provider)
	str(EnvPrefix+"OCR_MODEL", &cfg.OCR.Model)
	str("OLLAMA_URL", &cfg.OCR.OllamaURL)
	str("GEMINI_API_KEY", &cfg.OCR.GeminiAPIKey)
	str("OPENAI_API_KEY", &cfg.OCR.OpenAIAPIKey)

	if v, ok := lookup(EnvPrefix + "CORS_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSOrigins = origins
	}

	ints := map[string]*int{
		EnvPrefix + "CATALOG_LIMIT": &cfg.CatalogLimit,
		EnvPrefix + "MAX_CHOICES":   &cfg.Decision.MaxChoices,
	}
	for name, dst := range ints {
		if v, ok := lookup(name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		EnvPrefix + "AUTO_ACCEPT_SCORE":    &cfg.Decision.AutoAcceptScore,
		EnvPrefix + "HIGH_MATCH_LABEL":     &cfg.Decision.HighMatchLabel,
		EnvPrefix + "POSSIBLE_MATCH_LABEL": &cfg.Decision.PossibleMatchLabel,
		EnvPrefix + "OCR_TEMPERATURE":      &cfg.OCR.Temperature,
	}
	for name, dst := range floats {
		if v, ok := lookup(name); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = f
		}
	}

	if v, ok := lookup(EnvPrefix + "SESSION_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sSESSION_TTL: %w", EnvPrefix, err)
		}
		cfg.SessionTTL = d
	}

	return nil
}
