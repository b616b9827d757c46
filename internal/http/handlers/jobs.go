package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Drmedkit/Bouw/internal/domain"
	"github.com/Drmedkit/Bouw/internal/jobs"
)

type jobResponse struct {
	jobs.View
	ArtifactLocked bool `json:"artifact_locked,omitempty"`
}

// JobStatus is the polling surface. The artifact is withheld until the
// visitor has left contact details when RequireContact is set.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, err := a.Jobs.Poll(id)
	if errors.Is(err, domain.ErrNotFound) && a.Archive != nil {
		var job jobs.Job
		job, err = a.Archive.Lookup(r.Context(), id)
		if err == nil {
			view = jobs.View{ID: job.ID, Status: job.Status, ContactCollected: job.ContactCollected, Artifact: job.Artifact}
		}
	}
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		if a.Logger != nil {
			a.Logger.Error().Err(err).Str("job_id", id).Msg("job lookup failed")
		}
		a.error(w, http.StatusInternalServerError, "failed to load job")
		return
	}

	resp := jobResponse{View: view}
	if a.RequireContact && !view.ContactCollected && view.Artifact != nil {
		resp.Artifact = nil
		resp.ArtifactLocked = true
	}
	a.json(w, http.StatusOK, resp)
}
