package prompt

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Drmedkit/Bouw/internal/domain"
)

const (
	staticProviderName    = "static"
	geminiProviderName    = "gemini"
	openAIProviderName    = "openai"
	anthropicProviderName = "anthropic"
)

func defaultMaxTokens(p Purpose) int {
	switch p {
	case PurposeDocument:
		return 8192
	case PurposeTheme:
		return 1024
	default:
		return 2048
	}
}

// chatTurns drops blank turns and maps roles onto user/assistant.
func chatTurns(messages []domain.Message) []domain.Message {
	out := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		text := strings.TrimSpace(m.Text)
		if text == "" {
			continue
		}
		out = append(out, domain.Message{Role: domain.NormalizeRole(string(m.Role)), Text: text})
	}
	return out
}

func lastUserText(messages []domain.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			return strings.TrimSpace(messages[i].Text)
		}
	}
	return ""
}

func statusError(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return domain.ProviderStatusError(provider, resp.StatusCode, strings.TrimSpace(string(body)))
}

func emptyResponse(provider string) error {
	return fmt.Errorf("%s returned an empty response: %w", provider, domain.ErrProviderFailure)
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}
