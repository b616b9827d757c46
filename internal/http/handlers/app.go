// Package handlers implements the HTTP endpoints of the lead capture API.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/Drmedkit/Bouw/internal/conversation"
	"github.com/Drmedkit/Bouw/internal/infra"
	"github.com/Drmedkit/Bouw/internal/jobs"
)

const maxBodyBytes = 1 << 20

// TurnHandler processes one conversation turn.
type TurnHandler interface {
	Handle(ctx context.Context, turn conversation.Turn) (conversation.Result, error)
}

// JobReader is the polling side of the job store.
type JobReader interface {
	Poll(id string) (jobs.View, error)
	Len() int
}

// JobArchive answers polls for jobs the in-memory store no longer knows,
// e.g. after a restart.
type JobArchive interface {
	Lookup(ctx context.Context, id string) (jobs.Job, error)
}

// ThemeDesigner turns a style description into a theme object.
type ThemeDesigner interface {
	Design(ctx context.Context, description string) (map[string]any, error)
}

// App carries the dependencies shared by every handler. Archive is optional.
type App struct {
	Conversations  TurnHandler
	Jobs           JobReader
	Archive        JobArchive
	Designer       ThemeDesigner
	Logger         *infra.Logger
	RequireContact bool
	Started        time.Time
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}

// decode reads a bounded JSON body. An empty body decodes to the zero value.
func (a *App) decode(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err == io.EOF {
		return nil
	}
	return err
}
