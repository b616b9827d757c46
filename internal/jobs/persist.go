package jobs

import (
	"context"

	"github.com/Drmedkit/Bouw/internal/lead"
)

// Persister mirrors job state into durable storage. Calls are best effort:
// failures are logged and never change a job's outcome. Implementations must
// not move a terminal status back to building.
type Persister interface {
	Upsert(ctx context.Context, jobID string, record lead.Record, status Status, artifact *string) error
}

// Notifier announces a finished job whose contact details are known.
type Notifier interface {
	NotifyLead(ctx context.Context, job Job) error
}
