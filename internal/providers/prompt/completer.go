// Package prompt adapts text-generation providers to a single completion
// contract and builds the instructions sent to them.
package prompt

import (
	"context"

	"github.com/Drmedkit/Bouw/internal/domain"
)

// Purpose tells a completer which job a request serves. Providers may pick a
// model or token budget per purpose.
type Purpose string

const (
	PurposeExtraction Purpose = "extraction"
	PurposeDocument   Purpose = "document"
	PurposeTheme      Purpose = "theme"
)

// Request is a single completion call. JSON asks the provider for a JSON
// object response where the provider supports it.
type Request struct {
	Purpose   Purpose
	System    string
	Messages  []domain.Message
	MaxTokens int
	JSON      bool
	RequestID string
}

// Completer returns the raw text of a model response. Quota and capacity
// failures wrap domain.ErrProviderTransient.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
