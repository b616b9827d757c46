package handlers

import (
	"errors"
	"net/http"

	"github.com/Drmedkit/Bouw/internal/conversation"
	"github.com/Drmedkit/Bouw/internal/domain"
	"github.com/Drmedkit/Bouw/internal/lead"
	"github.com/Drmedkit/Bouw/internal/middleware"
)

const (
	msgBudgetExceeded = "Cloud budget exceeded. Please try again later."
	msgProviderFailed = "AI service error. Please try again."
	msgInvalidPayload = "invalid payload"
)

type chatRequest struct {
	ConversationID string                `json:"conversation_id"`
	Messages       []domain.Message      `json:"messages"`
	Lead           lead.Record           `json:"lead"`
	Visitor        domain.VisitorContext `json:"visitor"`
}

// Chat handles one conversation turn.
func (a *App) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := a.decode(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	visitor := req.Visitor.WithDefaults(
		middleware.LocaleFromContext(r.Context()),
		middleware.CountryFromContext(r.Context()),
	)
	res, err := a.Conversations.Handle(r.Context(), conversation.Turn{
		ConversationID: req.ConversationID,
		Messages:       req.Messages,
		Prior:          req.Lead,
		Visitor:        visitor,
	})
	if err != nil {
		a.providerError(w, r, err, "chat turn failed", http.StatusBadGateway)
		return
	}
	a.json(w, http.StatusOK, res)
}

// providerError maps a provider failure to a response. Transient failures
// get 503 so clients can retry later.
func (a *App) providerError(w http.ResponseWriter, r *http.Request, err error, msg string, fallback int) {
	if a.Logger != nil {
		a.Logger.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg(msg)
	}
	if errors.Is(err, domain.ErrProviderTransient) {
		a.error(w, http.StatusServiceUnavailable, msgBudgetExceeded)
		return
	}
	a.error(w, fallback, msgProviderFailed)
}
