package handlers

import (
	"net/http"
	"time"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if a.Jobs != nil {
		body["jobs"] = a.Jobs.Len()
	}
	if !a.Started.IsZero() {
		body["uptime_seconds"] = int64(time.Since(a.Started).Seconds())
	}
	a.json(w, http.StatusOK, body)
}
