// Package providers defines the vision model interface used to turn a cover
// photo into raw OCR text.
package providers

import (
	"context"
	"errors"
	"strings"
)

// ErrNoText is returned when a provider answered without any text.
var ErrNoText = errors.New("provider returned no text")

// Config is one image-to-text request.
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	Image       []byte
	// MIMEType of Image, for example "image/jpeg".
	MIMEType string
}

// Provider transcribes the text on an image.
type Provider interface {
	Name() string
	ExtractText(ctx context.Context, config Config) (string, error)
}

// CleanResponse strips the markdown fences models like to wrap output in.
func CleanResponse(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.Contains(s[:i], " ") {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
