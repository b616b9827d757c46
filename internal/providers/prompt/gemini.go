package prompt

import (
	"context"
	"errors"

	"github.com/Drmedkit/Bouw/internal/providers/genai"
)

// GeminiCompleter sends completions through the shared Gemini client.
type GeminiCompleter struct {
	client *genai.Client
}

func NewGeminiCompleter(client *genai.Client) (*GeminiCompleter, error) {
	if client == nil || !client.HasAPIKey() {
		return nil, errors.New("gemini api key is required")
	}
	return &GeminiCompleter{client: client}, nil
}

func (g *GeminiCompleter) Complete(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens(req.Purpose)
	}
	text, err := g.client.GenerateText(ctx, genai.TextRequest{
		System:    req.System,
		Turns:     chatTurns(req.Messages),
		JSON:      req.JSON,
		MaxTokens: maxTokens,
		RequestID: req.RequestID,
	})
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", emptyResponse(geminiProviderName)
	}
	return text, nil
}

var _ Completer = (*GeminiCompleter)(nil)
