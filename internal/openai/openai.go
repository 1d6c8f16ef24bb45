package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/panelvault/coverid/internal/providers"
)

// DefaultURL is the OpenAI API root.
const DefaultURL = "https://api.openai.com/v1"

var ErrMissingAPIKey = errors.New("OPENAI_API_KEY not set")

// OpenAI is a provider for the OpenAI chat completions API.
type OpenAI struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New returns a provider using apiKey. An empty baseURL means DefaultURL.
func New(apiKey, baseURL string) *OpenAI {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &OpenAI{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 2 * time.Minute},
	}
}

func (o *OpenAI) Name() string { return "openai" }

// ExtractText sends the prompt, plus the image as a data URL, as one user message.
func (o *OpenAI) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	if o.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	content := []map[string]any{{"type": "text", "text": config.Prompt}}
	if len(config.Image) > 0 {
		mime := config.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		content = append(content, map[string]any{
			"type": "image_url",
			"image_url": map[string]string{
				"url": "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(config.Image),
			},
		})
	}

	requestBody, err := json.Marshal(map[string]any{
		"model": config.Model,
		"messages": []map[string]any{
			{"role": "user", "content": content},
		},
		"temperature": config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", providers.ErrNoText
	}
	text := providers.CleanResponse(response.Choices[0].Message.Content)
	if text == "" {
		return "", providers.ErrNoText
	}
	return text, nil
}
