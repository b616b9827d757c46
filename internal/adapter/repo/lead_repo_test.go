package repo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Drmedkit/Bouw/internal/domain"
	"github.com/Drmedkit/Bouw/internal/infra"
	"github.com/Drmedkit/Bouw/internal/jobs"
	"github.com/Drmedkit/Bouw/internal/lead"
)

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error {
	if r.scan == nil {
		return errors.New("no row")
	}
	return r.scan(dest...)
}

type stubExecutor struct {
	query string
	args  []any
	err   error
	row   pgx.Row
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.query = query
	s.args = args
	return pgconn.CommandTag{}, s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.query = query
	s.args = args
	return s.row
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

var sampleRecord = lead.Record{
	Name:     "Maya",
	Email:    "maya@example.com",
	Business: "Luna Bistro",
	Category: lead.CategoryRestaurant,
	Style:    lead.StyleWarmElegant,
}

func TestLeadRepositoryPGUpsertArgs(t *testing.T) {
	exec := &stubExecutor{}
	repo := NewLeadRepository(exec)
	artifact := "<!DOCTYPE html><html></html>"

	if err := repo.Upsert(context.Background(), "job-1", sampleRecord, jobs.StatusDone, &artifact); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if !strings.Contains(exec.query, "on conflict (job_id)") {
		t.Fatalf("unexpected query: %s", exec.query)
	}
	if len(exec.args) != 12 {
		t.Fatalf("expected 12 args, got %d", len(exec.args))
	}
	if exec.args[0] != "job-1" || exec.args[1] != "done" {
		t.Fatalf("unexpected leading args: %v %v", exec.args[0], exec.args[1])
	}
	if exec.args[4] != "Luna Bistro" || exec.args[5] != lead.CategoryRestaurant {
		t.Fatalf("record fields out of order: %#v", exec.args)
	}
	if got, ok := exec.args[11].(*string); !ok || got == nil || *got != artifact {
		t.Fatalf("artifact arg mismatch: %#v", exec.args[11])
	}
}

func TestLeadRepositoryPGUpsertError(t *testing.T) {
	repo := NewLeadRepository(&stubExecutor{err: errors.New("boom")})
	err := repo.Upsert(context.Background(), "job-1", sampleRecord, jobs.StatusBuilding, nil)
	if err == nil || !strings.Contains(err.Error(), "job-1") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestLeadRepositoryPGLookup(t *testing.T) {
	artifact := "<!DOCTYPE html>"
	exec := &stubExecutor{row: stubRow{scan: func(dest ...any) error {
		if len(dest) != 12 {
			return errors.New("unexpected dest count")
		}
		values := []string{"job-9", "done", "Maya", "", "Luna", "Diner", lead.StyleDarkBold, "", "", "", ""}
		for i, v := range values {
			*(dest[i].(*string)) = v
		}
		*(dest[11].(**string)) = &artifact
		return nil
	}}}
	repo := NewLeadRepository(exec)

	job, err := repo.Lookup(context.Background(), "job-9")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if job.Status != jobs.StatusDone || job.Artifact == nil || *job.Artifact != artifact {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.Record.Category != "" {
		t.Fatalf("illegal category should be dropped, got %q", job.Record.Category)
	}
	if job.Record.Style != lead.StyleDarkBold {
		t.Fatalf("style mismatch: %q", job.Record.Style)
	}
	if job.ContactCollected {
		t.Fatalf("contact should not be collected without email")
	}
	if exec.args[0] != "job-9" {
		t.Fatalf("lookup arg mismatch: %v", exec.args)
	}
}

func TestLeadRepositoryPGLookupNotFound(t *testing.T) {
	repo := NewLeadRepository(&stubExecutor{row: stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}})
	_, err := repo.Lookup(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLeadRepositoryPGLookupMarkerError(t *testing.T) {
	repo := NewLeadRepository(&stubExecutor{row: stubRow{scan: func(dest ...any) error { return errors.New("sql marker missing or invalid") }}})
	_, err := repo.Lookup(context.Background(), "job")
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected non-not-found error, got %v", err)
	}
}

func TestNewLeadSQLRepositoryRejectsUnknownDialect(t *testing.T) {
	if _, err := NewLeadSQLRepository(nil, "oracle"); err == nil {
		t.Fatalf("expected error")
	}
}

func openSQLite(t *testing.T) *LeadRepositorySQL {
	t.Helper()
	ctx := context.Background()
	db, err := infra.NewSQLDB(ctx, infra.LeadStoreSQLite, t.TempDir()+"/leads.db")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo, err := NewLeadSQLRepository(infra.NewDBRunner(db, infra.NewLogger("test")), infra.LeadStoreSQLite)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo
}

func TestLeadRepositorySQLiteKeepsTerminalState(t *testing.T) {
	repo := openSQLite(t)
	ctx := context.Background()
	artifact := "<!DOCTYPE html><p>done</p>"

	if err := repo.Upsert(ctx, "job-1", sampleRecord, jobs.StatusBuilding, nil); err != nil {
		t.Fatalf("upsert building: %v", err)
	}
	if err := repo.Upsert(ctx, "job-1", sampleRecord, jobs.StatusDone, &artifact); err != nil {
		t.Fatalf("upsert done: %v", err)
	}
	// A late building write must not regress the row.
	late := sampleRecord
	late.Email = ""
	if err := repo.Upsert(ctx, "job-1", late, jobs.StatusBuilding, nil); err != nil {
		t.Fatalf("upsert late: %v", err)
	}

	job, err := repo.Lookup(ctx, "job-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if job.Status != jobs.StatusDone {
		t.Fatalf("status regressed to %q", job.Status)
	}
	if job.Artifact == nil || *job.Artifact != artifact {
		t.Fatalf("artifact lost: %v", job.Artifact)
	}
	if job.Record.Email != sampleRecord.Email || !job.ContactCollected {
		t.Fatalf("filled email was blanked: %+v", job.Record)
	}
}

func TestLeadRepositorySQLiteFillsLaterFields(t *testing.T) {
	repo := openSQLite(t)
	ctx := context.Background()

	first := sampleRecord
	first.Email = ""
	if err := repo.Upsert(ctx, "job-2", first, jobs.StatusBuilding, nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	later := first
	later.Email = "owner@luna.example"
	later.Location = "Rotterdam"
	if err := repo.Upsert(ctx, "job-2", later, jobs.StatusError, nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	job, err := repo.Lookup(ctx, "job-2")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if job.Status != jobs.StatusError || job.Artifact != nil {
		t.Fatalf("unexpected terminal row: %+v", job)
	}
	if job.Record.Email != "owner@luna.example" || job.Record.Location != "Rotterdam" {
		t.Fatalf("later fields missing: %+v", job.Record)
	}
}

func TestLeadRepositorySQLiteLookupNotFound(t *testing.T) {
	repo := openSQLite(t)
	if _, err := repo.Lookup(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
