package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Drmedkit/Bouw/internal/domain"
)

const (
	anthropicDefaultTimeout   = 180 * time.Second
	anthropicAPIVersion       = "2023-06-01"
	defaultAnthropicChatModel = "claude-sonnet-4-5"
	defaultAnthropicFastModel = "claude-haiku-4-5"
)

type AnthropicOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	// Models per purpose. Extraction and documents default to the larger
	// model, theme design to the fast one.
	ChatModel     string
	DocumentModel string
	ThemeModel    string
}

// AnthropicCompleter talks to the Messages API.
type AnthropicCompleter struct {
	apiKey  string
	baseURL string
	client  *http.Client
	models  map[Purpose]string
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func NewAnthropicCompleter(opts AnthropicOptions) (*AnthropicCompleter, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("anthropic api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	baseURL = strings.TrimSuffix(baseURL, "/v1")
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: anthropicDefaultTimeout}
	}
	return &AnthropicCompleter{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: baseURL,
		client:  client,
		models: map[Purpose]string{
			PurposeExtraction: coalesce(opts.ChatModel, defaultAnthropicChatModel),
			PurposeDocument:   coalesce(opts.DocumentModel, opts.ChatModel, defaultAnthropicChatModel),
			PurposeTheme:      coalesce(opts.ThemeModel, defaultAnthropicFastModel),
		},
	}, nil
}

func (a *AnthropicCompleter) model(p Purpose) string {
	if m, ok := a.models[p]; ok {
		return m
	}
	return a.models[PurposeExtraction]
}

func (a *AnthropicCompleter) Complete(ctx context.Context, req Request) (string, error) {
	turns := chatTurns(req.Messages)
	if len(turns) == 0 {
		return "", fmt.Errorf("anthropic request has no messages: %w", domain.ErrProviderFailure)
	}
	payload := anthropicRequest{
		Model:     a.model(req.Purpose),
		MaxTokens: req.MaxTokens,
		System:    strings.TrimSpace(req.System),
		Messages:  make([]anthropicMessage, 0, len(turns)),
	}
	if payload.MaxTokens <= 0 {
		payload.MaxTokens = defaultMaxTokens(req.Purpose)
	}
	for _, m := range turns {
		payload.Messages = append(payload.Messages, anthropicMessage{Role: string(m.Role), Content: m.Text})
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("encode anthropic request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", &buf)
	if err != nil {
		return "", fmt.Errorf("build anthropic request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("invoke anthropic: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", statusError(anthropicProviderName, resp)
	}
	var out anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}
	for _, block := range out.Content {
		if block.Type != "text" {
			continue
		}
		if text := strings.TrimSpace(block.Text); text != "" {
			return text, nil
		}
	}
	return "", emptyResponse(anthropicProviderName)
}

var _ Completer = (*AnthropicCompleter)(nil)
