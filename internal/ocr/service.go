// Package ocr reads the printed text off a cover or slab photo using a vision
// model provider.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/panelvault/coverid/internal/config"
	"github.com/panelvault/coverid/internal/gemini"
	"github.com/panelvault/coverid/internal/ollama"
	"github.com/panelvault/coverid/internal/openai"
	"github.com/panelvault/coverid/internal/providers"
)

var ErrUnsupportedProvider = errors.New("unsupported OCR provider")

// Default models per provider.
var defaultModels = map[string]string{
	"ollama": "mistral-small3.2:24b",
	"gemini": "gemini-2.0-flash",
	"openai": "gpt-4o",
}

const prompt = `You are performing OCR on a photo of a comic book. The comic may be
sealed in a graded slab with a printed label above the cover.

Transcribe ALL visible text exactly as it appears, one line per printed line,
top to bottom. Include the label text (grading company, grade, serial number)
as well as the cover text (title, issue number, publisher, date, price).

Do not add commentary, headings or explanations. Output only the text.`

// Service routes image scans to a provider.
type Service struct {
	providers   map[string]providers.Provider
	provider    string
	model       string
	temperature float64
}

// New registers the given providers. The first one is the default.
func New(ps ...providers.Provider) *Service {
	s := &Service{providers: make(map[string]providers.Provider, len(ps))}
	for _, p := range ps {
		if s.provider == "" {
			s.provider = p.Name()
		}
		s.providers[p.Name()] = p
	}
	return s
}

// FromConfig wires every provider and selects the configured one.
func FromConfig(cfg config.OCR) *Service {
	s := New(
		ollama.New(cfg.OllamaURL),
		gemini.New(cfg.GeminiAPIKey),
		openai.New(cfg.OpenAIAPIKey, ""),
	)
	if cfg.Provider != "" {
		s.provider = cfg.Provider
	}
	s.model = cfg.Model
	s.temperature = cfg.Temperature
	return s
}

// ExtractText transcribes image. Empty provider and model use the defaults.
func (s *Service) ExtractText(ctx context.Context, image []byte, mimeType, provider, model string) (string, error) {
	if provider == "" {
		provider = s.provider
	}
	p, ok := s.providers[provider]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
	if model == "" {
		model = s.model
	}
	if model == "" {
		model = defaultModels[provider]
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}

	text, err := p.ExtractText(ctx, providers.Config{
		Model:       model,
		Temperature: s.temperature,
		Prompt:      prompt,
		Image:       image,
		MIMEType:    mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("%s OCR failed: %w", provider, err)
	}

	log.Info().Str("provider", provider).Str("model", model).Int("length", len(text)).Msg("extracted OCR text")
	return text, nil
}

// ExtractFile reads an image from disk and transcribes it.
func (s *Service) ExtractFile(ctx context.Context, path, provider, model string) (string, error) {
	image, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image for OCR: %w", err)
	}
	return s.ExtractText(ctx, image, mimeFromExt(path), provider, model)
}

func mimeFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return ""
	}
}
