// Package jobs owns the lifecycle of page generation jobs: the in-memory
// store every caller reads through and the orchestrator that drives a job to
// a terminal state.
package jobs

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Drmedkit/Bouw/internal/domain"
	"github.com/Drmedkit/Bouw/internal/lead"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusBuilding Status = "building"
	StatusDone     Status = "done"
	StatusError    Status = "error"
)

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

var (
	// ErrTerminal is returned when transitioning a job that already finished.
	ErrTerminal = errors.New("jobs: job already in a terminal state")
	// ErrInvalidTransition rejects transitions that would expose an
	// inconsistent status and artifact pair.
	ErrInvalidTransition = errors.New("jobs: invalid transition")
)

// Job is a snapshot of one generation job. Record is the lead record the job
// was started from; Current is the latest record seen for the conversation.
type Job struct {
	ID               string      `json:"id"`
	Status           Status      `json:"status"`
	Record           lead.Record `json:"record"`
	Current          lead.Record `json:"current"`
	Artifact         *string     `json:"artifact,omitempty"`
	ContactCollected bool        `json:"contact_collected"`
	Reason           string      `json:"reason,omitempty"`
	Notified         bool        `json:"notified"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

func (j Job) clone() Job {
	if j.Artifact != nil {
		artifact := *j.Artifact
		j.Artifact = &artifact
	}
	return j
}

// View is the read-only shape exposed to pollers.
type View struct {
	ID               string  `json:"id"`
	Status           Status  `json:"status"`
	ContactCollected bool    `json:"contact_collected"`
	Artifact         *string `json:"artifact,omitempty"`
}

// Store is a concurrency-safe map of job id to job. It hands out copies so
// readers never share memory with the writer.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	now  func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job), now: time.Now}
}

// Create registers a new building job.
func (s *Store) Create(id string, record lead.Record) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidTransition)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[id]; exists {
		return fmt.Errorf("job %s: %w", id, domain.ErrDuplicateJob)
	}
	now := s.now()
	s.jobs[id] = &Job{
		ID:               id,
		Status:           StatusBuilding,
		Record:           record,
		Current:          record,
		ContactCollected: record.ContactCollected(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return nil
}

// Get returns a copy of the job.
func (s *Store) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	return job.clone(), nil
}

// Poll returns the polling view of the job.
func (s *Store) Poll(id string) (View, error) {
	job, err := s.Get(id)
	if err != nil {
		return View{}, err
	}
	return View{ID: job.ID, Status: job.Status, ContactCollected: job.ContactCollected, Artifact: job.Artifact}, nil
}

// Transition moves a building job to done or error. Status and artifact are
// written together: done requires an artifact, error clears it.
func (s *Store) Transition(id string, status Status, artifact *string, reason string) error {
	if !status.Terminal() {
		return fmt.Errorf("%w: to %q", ErrInvalidTransition, status)
	}
	if status == StatusDone && artifact == nil {
		return fmt.Errorf("%w: done without artifact", ErrInvalidTransition)
	}
	if status == StatusError {
		artifact = nil
	} else {
		copied := *artifact
		artifact = &copied
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	if job.Status.Terminal() {
		return fmt.Errorf("job %s is %s: %w", id, job.Status, ErrTerminal)
	}
	job.Status = status
	job.Artifact = artifact
	job.Reason = reason
	job.UpdatedAt = s.now()
	return nil
}

// Refresh records the latest lead record of the job's conversation and
// re-derives the contact flag. The flag never goes back to false.
func (s *Store) Refresh(id string, record lead.Record) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	job.Current = record
	job.ContactCollected = job.ContactCollected || record.ContactCollected()
	job.UpdatedAt = s.now()
	return job.clone(), nil
}

// ClaimNotification marks a finished job with a known contact as notified.
// It returns the job and true exactly once per job.
func (s *Store) ClaimNotification(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Notified || job.Status != StatusDone || !job.ContactCollected {
		return Job{}, false
	}
	job.Notified = true
	return job.clone(), true
}

// Len returns the number of jobs held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
