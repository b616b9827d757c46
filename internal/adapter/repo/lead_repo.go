// Package repo holds the durable mirrors of in-memory job state.
package repo

import (
	"context"
	"fmt"

	"github.com/Drmedkit/Bouw/internal/domain"
	"github.com/Drmedkit/Bouw/internal/infra"
	"github.com/Drmedkit/Bouw/internal/jobs"
	"github.com/Drmedkit/Bouw/internal/lead"
	"github.com/Drmedkit/Bouw/internal/sqlinline"
)

// LeadRepositoryPG mirrors jobs into the Postgres leads table.
type LeadRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewLeadRepository creates a lead repository over a marker-checked runner.
func NewLeadRepository(sql infra.SQLExecutor) *LeadRepositoryPG {
	return &LeadRepositoryPG{sql: sql}
}

// Migrate creates the leads table when it is missing.
func (r *LeadRepositoryPG) Migrate(ctx context.Context) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QCreateLeads); err != nil {
		return fmt.Errorf("migrate leads: %w", err)
	}
	return nil
}

// Upsert implements jobs.Persister.
func (r *LeadRepositoryPG) Upsert(ctx context.Context, jobID string, record lead.Record, status jobs.Status, artifact *string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpsertLead, upsertArgs(jobID, record, status, artifact)...)
	if err != nil {
		return fmt.Errorf("upsert lead %s: %w", jobID, err)
	}
	return nil
}

// Lookup returns the stored view of a job, or domain.ErrNotFound.
func (r *LeadRepositoryPG) Lookup(ctx context.Context, jobID string) (jobs.Job, error) {
	return scanLead(r.sql.QueryRow(ctx, sqlinline.QSelectLead, jobID), jobID)
}

func upsertArgs(jobID string, record lead.Record, status jobs.Status, artifact *string) []any {
	return []any{
		jobID,
		string(status),
		record.Name,
		record.Email,
		record.Business,
		record.Category,
		record.Style,
		record.Location,
		record.Offerings,
		record.Audience,
		record.Notes,
		artifact,
	}
}

func scanLead(row infra.Row, jobID string) (jobs.Job, error) {
	var (
		job    jobs.Job
		status string
	)
	err := row.Scan(
		&job.ID,
		&status,
		&job.Record.Name,
		&job.Record.Email,
		&job.Record.Business,
		&job.Record.Category,
		&job.Record.Style,
		&job.Record.Location,
		&job.Record.Offerings,
		&job.Record.Audience,
		&job.Record.Notes,
		&job.Artifact,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return jobs.Job{}, fmt.Errorf("lead %s: %w", jobID, domain.ErrNotFound)
		}
		return jobs.Job{}, fmt.Errorf("load lead %s: %w", jobID, err)
	}
	job.Status = jobs.Status(status)
	job.Record = lead.Sanitize(job.Record)
	job.Current = job.Record
	job.ContactCollected = job.Record.ContactCollected()
	return job, nil
}

var _ jobs.Persister = (*LeadRepositoryPG)(nil)
