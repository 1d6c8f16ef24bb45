package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/panelvault/coverid/internal/providers"
)

// DefaultURL is where a local Ollama listens.
const DefaultURL = "http://localhost:11434"

// Ollama is a provider for a local or remote Ollama server.
type Ollama struct {
	baseURL string
	client  *http.Client
}

// New returns a provider talking to baseURL. Empty means DefaultURL.
func New(baseURL string) *Ollama {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 2 * time.Minute},
	}
}

func (o *Ollama) Name() string { return "ollama" }

// ExtractText sends the prompt and image to /api/generate.
func (o *Ollama) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	body := map[string]any{
		"model":  config.Model,
		"prompt": config.Prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": config.Temperature,
		},
	}
	if len(config.Image) > 0 {
		body["images"] = []string{base64.StdEncoding.EncodeToString(config.Image)}
	}

	requestBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(respBody))
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	text := providers.CleanResponse(response.Response)
	if text == "" {
		return "", providers.ErrNoText
	}
	return text, nil
}
