package handlers

import (
	"errors"
	"net/http"

	"github.com/Drmedkit/Bouw/internal/sanitize"
	"github.com/Drmedkit/Bouw/internal/theme"
)

type designRequest struct {
	Prompt string `json:"prompt"`
}

// Design generates a theme object from a free text style description.
func (a *App) Design(w http.ResponseWriter, r *http.Request) {
	var req designRequest
	if err := a.decode(r, &req); err != nil {
		a.error(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	style, err := a.Designer.Design(r.Context(), req.Prompt)
	switch {
	case err == nil:
		a.json(w, http.StatusOK, style)
	case errors.Is(err, theme.ErrEmptyDescription):
		a.error(w, http.StatusBadRequest, "Please describe a style.")
	case errors.Is(err, sanitize.ErrMalformedOutput):
		a.error(w, http.StatusInternalServerError, "AI returned invalid JSON. Please try again.")
	default:
		a.providerError(w, r, err, "theme design failed", http.StatusInternalServerError)
	}
}
