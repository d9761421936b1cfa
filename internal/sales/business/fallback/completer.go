package fallback

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// ErrRateLimited is returned by a Completer when the provider refuses with 429.
var ErrRateLimited = errors.New("generative provider rate limited")

// Completer produces free text for a prompt.
type Completer interface {
	Complete(ctx context.Context, modelID, systemInstructions, prompt string) (string, error)
}

type GeminiCompleter struct {
	client *genai.Client
}

func NewGeminiCompleter(ctx context.Context, apiKey string) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiCompleter{client: client}, nil
}

func (g *GeminiCompleter) Complete(ctx context.Context, modelID, systemInstructions, prompt string) (string, error) {
	var cfg *genai.GenerateContentConfig
	if systemInstructions != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstructions, genai.RoleUser),
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, modelID, genai.Text(prompt), cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
		}
		return "", fmt.Errorf("gemini %s: %w", modelID, err)
	}
	return resp.Text(), nil
}
