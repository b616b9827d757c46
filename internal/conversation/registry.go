package conversation

import (
	"sync"

	"github.com/Drmedkit/Bouw/internal/lead"
)

type entry struct {
	jobID  string
	record lead.Record
}

// Registry remembers, per conversation, the job started for it and the most
// recent lead record.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

func (r *Registry) get(id string) *entry {
	e, ok := r.entries[id]
	if !ok {
		e = &entry{}
		r.entries[id] = e
	}
	return e
}

// JobID returns the job associated with the conversation, if any.
func (r *Registry) JobID(conversationID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[conversationID]; ok {
		return e.jobID
	}
	return ""
}

// Record returns the last record remembered for the conversation.
func (r *Registry) Record(conversationID string) lead.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[conversationID]; ok {
		return e.record
	}
	return lead.Record{}
}

// Remember stores record as the conversation's latest record.
func (r *Registry) Remember(conversationID string, record lead.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.get(conversationID).record = record
}

// StartOnce calls start unless a job is already associated with the
// conversation. The lock is held across the check and the call, so
// concurrent turns of one conversation start at most one job. start may
// return an empty id to decline.
func (r *Registry) StartOnce(conversationID string, start func() (string, error)) (jobID string, started bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.get(conversationID)
	if e.jobID != "" {
		return e.jobID, false, nil
	}
	id, err := start()
	if err != nil || id == "" {
		return "", false, err
	}
	e.jobID = id
	return id, true, nil
}
