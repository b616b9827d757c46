package repo

import (
	"context"
	"fmt"

	"github.com/Drmedkit/Bouw/internal/infra"
	"github.com/Drmedkit/Bouw/internal/jobs"
	"github.com/Drmedkit/Bouw/internal/lead"
	"github.com/Drmedkit/Bouw/internal/sqlinline"
)

type dialectQueries struct {
	create string
	upsert string
	get    string
}

var dialects = map[string]dialectQueries{
	infra.LeadStoreMySQL: {
		create: sqlinline.QCreateLeadsMySQL,
		upsert: sqlinline.QUpsertLeadMySQL,
		get:    sqlinline.QSelectLeadMySQL,
	},
	infra.LeadStoreSQLite: {
		create: sqlinline.QCreateLeadsSQLite,
		upsert: sqlinline.QUpsertLeadSQLite,
		get:    sqlinline.QSelectLeadSQLite,
	},
}

// LeadRepositorySQL mirrors jobs into a MySQL or SQLite leads table through
// database/sql.
type LeadRepositorySQL struct {
	db      infra.DBExecutor
	dialect string
	q       dialectQueries
}

// NewLeadSQLRepository returns a repository for the mysql or sqlite dialect.
func NewLeadSQLRepository(db infra.DBExecutor, dialect string) (*LeadRepositorySQL, error) {
	q, ok := dialects[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported lead store dialect %q", dialect)
	}
	return &LeadRepositorySQL{db: db, dialect: dialect, q: q}, nil
}

// Migrate creates the leads table when it is missing.
func (r *LeadRepositorySQL) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, r.q.create); err != nil {
		return fmt.Errorf("migrate %s leads: %w", r.dialect, err)
	}
	return nil
}

// Upsert implements jobs.Persister.
func (r *LeadRepositorySQL) Upsert(ctx context.Context, jobID string, record lead.Record, status jobs.Status, artifact *string) error {
	if _, err := r.db.Exec(ctx, r.q.upsert, upsertArgs(jobID, record, status, artifact)...); err != nil {
		return fmt.Errorf("upsert %s lead %s: %w", r.dialect, jobID, err)
	}
	return nil
}

// Lookup returns the stored view of a job, or domain.ErrNotFound.
func (r *LeadRepositorySQL) Lookup(ctx context.Context, jobID string) (jobs.Job, error) {
	return scanLead(r.db.QueryRow(ctx, r.q.get, jobID), jobID)
}

var _ jobs.Persister = (*LeadRepositorySQL)(nil)
