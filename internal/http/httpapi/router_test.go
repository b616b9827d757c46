package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Drmedkit/Bouw/internal/catalog"
	"github.com/Drmedkit/Bouw/internal/conversation"
	"github.com/Drmedkit/Bouw/internal/http/handlers"
	"github.com/Drmedkit/Bouw/internal/infra"
	"github.com/Drmedkit/Bouw/internal/jobs"
	"github.com/Drmedkit/Bouw/internal/providers/prompt"
	"github.com/Drmedkit/Bouw/internal/storage"
	"github.com/Drmedkit/Bouw/internal/theme"
)

type harness struct {
	router http.Handler
	files  *storage.FileStore
}

func newHarness(t *testing.T) harness {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	static := prompt.NewStaticCompleter()
	store := jobs.NewStore()
	orch, err := jobs.NewOrchestrator(store, jobs.Options{Documents: static, Catalog: c})
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}
	t.Cleanup(func() { _ = orch.Shutdown(5 * time.Second) })
	turns, err := conversation.NewHandler(conversation.Options{Completer: static, Jobs: orch, Registry: conversation.NewRegistry()})
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	designer, err := theme.NewDesigner(static, c)
	if err != nil {
		t.Fatalf("designer: %v", err)
	}
	files, err := storage.NewFileStore(t.TempDir(), "http://localhost/static")
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	app := &handlers.App{
		Conversations:  turns,
		Jobs:           store,
		Designer:       designer,
		RequireContact: true,
		Started:        time.Now(),
	}
	router := NewRouter(app, Options{
		Logger:          infra.NewLogger("test"),
		CORSOrigins:     []string{"https://bouw.example"},
		RateLimitPerMin: 100,
		DefaultLocale:   "en",
		Static:          files.Handler(),
	})
	return harness{router: router, files: files}
}

func (h harness) call(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s %s: body is not json: %q", method, path, rec.Body.String())
	}
	return rec.Code, out
}

func (h harness) waitTerminal(t *testing.T, id string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		code, out := h.call(t, http.MethodGet, "/v1/jobs/"+id, "")
		if code != http.StatusOK {
			t.Fatalf("poll status = %d", code)
		}
		if out["status"] != string(jobs.StatusBuilding) {
			return out
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return nil
}

func TestConversationToPreview(t *testing.T) {
	h := newHarness(t)

	code, first := h.call(t, http.MethodPost, "/v1/chat",
		`{"messages":[{"role":"user","text":"My shop is called Acme, it's a store, keep it clean and minimal"}]}`)
	if code != http.StatusOK {
		t.Fatalf("chat status = %d (%v)", code, first)
	}
	if first["job_started"] != true {
		t.Fatalf("expected job to start: %v", first)
	}
	jobID, _ := first["job_id"].(string)
	convID, _ := first["conversation_id"].(string)
	if jobID == "" || convID == "" {
		t.Fatalf("missing ids: %v", first)
	}

	done := h.waitTerminal(t, jobID)
	if done["status"] != string(jobs.StatusDone) {
		t.Fatalf("job did not complete: %v", done)
	}
	if done["artifact_locked"] != true {
		t.Fatalf("artifact should be locked without contact: %v", done)
	}
	if _, ok := done["artifact"]; ok {
		t.Fatalf("artifact leaked before contact: %v", done)
	}

	code, second := h.call(t, http.MethodPost, "/v1/chat",
		`{"conversation_id":"`+convID+`","messages":[{"role":"user","text":"My shop is called Acme, it's a store, keep it clean and minimal"},{"role":"assistant","text":"Great!"},{"role":"user","text":"sure, it's maya@example.com"}]}`)
	if code != http.StatusOK {
		t.Fatalf("second chat status = %d", code)
	}
	if second["job_started"] == true {
		t.Fatalf("second turn must not start another job: %v", second)
	}
	if second["job_id"] != jobID {
		t.Fatalf("job id changed: %v vs %s", second["job_id"], jobID)
	}

	_, unlocked := h.call(t, http.MethodGet, "/v1/jobs/"+jobID, "")
	page, _ := unlocked["artifact"].(string)
	if !strings.Contains(strings.ToUpper(page), "<!DOCTYPE") {
		t.Fatalf("expected artifact after contact, got %v", unlocked)
	}
	if unlocked["contact_collected"] != true {
		t.Fatalf("contact flag not set: %v", unlocked)
	}
}

func TestUnknownJob(t *testing.T) {
	h := newHarness(t)
	code, out := h.call(t, http.MethodGet, "/v1/jobs/does-not-exist", "")
	if code != http.StatusNotFound || out["error"] != "job not found" {
		t.Fatalf("unexpected response %d %v", code, out)
	}
}

func TestDesignEndpoint(t *testing.T) {
	h := newHarness(t)
	code, out := h.call(t, http.MethodPost, "/v1/design", `{"prompt":"retro neon arcade"}`)
	if code != http.StatusOK {
		t.Fatalf("design status = %d (%v)", code, out)
	}
	for _, key := range []string{"name", "bg", "fg", "accent", "overlay", "labelFont", "headlineFont", "bodyFont"} {
		if _, ok := out[key]; !ok {
			t.Fatalf("theme missing %q: %v", key, out)
		}
	}

	code, out = h.call(t, http.MethodPost, "/v1/design", `{"prompt":"   "}`)
	if code != http.StatusBadRequest || out["error"] != "Please describe a style." {
		t.Fatalf("unexpected empty prompt response %d %v", code, out)
	}
}

func TestPreflightAndStatic(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/chat", nil)
	req.Header.Set("Origin", "https://bouw.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "https://bouw.example" {
		t.Fatalf("unexpected preflight response %d %v", rec.Code, rec.Header())
	}

	if _, err := h.files.Write(context.Background(), "generated/jobs/x/primary.png", []byte("png")); err != nil {
		t.Fatalf("write: %v", err)
	}
	rec = httptest.NewRecorder()
	h.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/generated/jobs/x/primary.png", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "png" {
		t.Fatalf("static file not served: %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(http.CanonicalHeaderKey("X-Request-ID")) == "" {
		t.Fatalf("request id header missing")
	}
}
