package analyze

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/mkarwowski/adscout/internal/config"
)

// GeminiChannel is the production PromptChannel backed by the Gemini API.
type GeminiChannel struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

// NewGeminiChannel dials the Gemini API. Close must be called on shutdown.
func NewGeminiChannel(ctx context.Context, cfg config.ModelConfig) (*GeminiChannel, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("dial gemini: %w", err)
	}

	model := client.GenerativeModel(cfg.Name)
	// Low temperature keeps the JSON shape stable across records.
	model.SetTemperature(0.2)

	return &GeminiChannel{client: client, model: model, timeout: cfg.Timeout}, nil
}

// Prompt implements PromptChannel.
func (g *GeminiChannel) Prompt(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return extractText(resp)
}

// Close releases the underlying API client.
func (g *GeminiChannel) Close() error { return g.client.Close() }

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("empty model response")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("model response has no text parts")
	}
	return b.String(), nil
}
