package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/panelvault/coverid/internal/providers"
)

var ErrMissingAPIKey = errors.New("GEMINI_API_KEY not set")

// Gemini is a provider for Google Gemini
type Gemini struct {
	apiKey string
}

// New returns a new Gemini provider
func New(apiKey string) *Gemini {
	return &Gemini{apiKey: apiKey}
}

func (g *Gemini) Name() string { return "gemini" }

// ExtractText sends the prompt and image to Gemini and returns the text parts.
func (g *Gemini) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	if g.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(float32(config.Temperature))

	resp, err := model.GenerateContent(ctx, Parts(config)...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", providers.ErrNoText
	}
	return ResponseText(resp.Candidates[0].Content)
}

// Parts builds the request parts: the image first, then the prompt.
func Parts(config providers.Config) []genai.Part {
	var parts []genai.Part
	if len(config.Image) > 0 {
		format := strings.TrimPrefix(config.MIMEType, "image/")
		if format == "" {
			format = "jpeg"
		}
		parts = append(parts, genai.ImageData(format, config.Image))
	}
	return append(parts, genai.Text(config.Prompt))
}

// ResponseText joins the text parts of a candidate's content.
func ResponseText(content *genai.Content) (string, error) {
	if content == nil || len(content.Parts) == 0 {
		return "", providers.ErrNoText
	}

	var b strings.Builder
	for _, part := range content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	text := providers.CleanResponse(b.String())
	if text == "" {
		return "", providers.ErrNoText
	}
	return text, nil
}
