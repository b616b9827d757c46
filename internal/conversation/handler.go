// Package conversation turns one chat turn into a reply, an updated lead
// record and, once the record is viable, a page generation job.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Drmedkit/Bouw/internal/domain"
	"github.com/Drmedkit/Bouw/internal/infra"
	"github.com/Drmedkit/Bouw/internal/lead"
	"github.com/Drmedkit/Bouw/internal/providers/prompt"
	"github.com/Drmedkit/Bouw/internal/sanitize"
)

const (
	// Greeting opens a conversation that has no messages yet.
	Greeting = "Hey! I'm the studio's assistant. Tell me about your business and I'll design a website preview for you right now. What's your business called?"
	// FallbackReply stands in when the provider's answer cannot be parsed.
	FallbackReply = "Let me try that again. Tell me more about your business!"
	// DefaultReply is used when a parsed answer carries no reply text.
	DefaultReply = "Tell me more about your business!"
)

var extractionSchema = sanitize.Schema{
	Defaults: map[string]any{
		"reply": DefaultReply,
		"lead":  map[string]any{},
	},
}

// Jobs starts generation jobs and feeds them newer records. It is satisfied
// by *jobs.Orchestrator.
type Jobs interface {
	Start(ctx context.Context, record lead.Record, visitor domain.VisitorContext) (string, error)
	Refresh(ctx context.Context, jobID string, record lead.Record) error
}

// Turn is one inbound conversation turn with the client's view of the lead.
type Turn struct {
	ConversationID string
	Messages       []domain.Message
	Prior          lead.Record
	Visitor        domain.VisitorContext
}

// Result is the outcome of a turn.
type Result struct {
	ConversationID string      `json:"conversation_id"`
	Reply          string      `json:"reply"`
	Record         lead.Record `json:"lead"`
	JobStarted     bool        `json:"job_started"`
	JobID          string      `json:"job_id,omitempty"`
}

type Options struct {
	Completer prompt.Completer
	Jobs      Jobs
	Registry  *Registry
	Logger    *infra.Logger
	NewID     func() string
}

type Handler struct {
	completer prompt.Completer
	jobs      Jobs
	registry  *Registry
	logger    *infra.Logger
	newID     func() string
}

func NewHandler(opts Options) (*Handler, error) {
	if opts.Completer == nil {
		return nil, errors.New("conversation: completer is required")
	}
	if opts.Jobs == nil {
		return nil, errors.New("conversation: jobs are required")
	}
	registry := opts.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	newID := opts.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	return &Handler{
		completer: opts.Completer,
		jobs:      opts.Jobs,
		registry:  registry,
		logger:    logger,
		newID:     newID,
	}, nil
}

// Handle processes one turn. Only the extraction call is synchronous; page
// generation always runs in the background. Provider failures are returned
// as is so callers can tell transient ones apart with errors.Is.
func (h *Handler) Handle(ctx context.Context, turn Turn) (Result, error) {
	convID := strings.TrimSpace(turn.ConversationID)
	if convID == "" {
		convID = h.newID()
	}
	prior := lead.Merge(h.registry.Record(convID), lead.Normalize(turn.Prior))
	result := Result{ConversationID: convID, Record: prior, JobID: h.registry.JobID(convID)}

	messages := make([]domain.Message, 0, len(turn.Messages))
	for _, m := range turn.Messages {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		messages = append(messages, domain.Message{Role: domain.NormalizeRole(string(m.Role)), Text: m.Text})
	}
	if len(messages) == 0 {
		result.Reply = Greeting
		return result, nil
	}

	raw, err := h.completer.Complete(ctx, prompt.Request{
		Purpose:   prompt.PurposeExtraction,
		System:    prompt.ChatInstructions(prior, turn.Visitor),
		Messages:  messages,
		JSON:      true,
		RequestID: convID,
	})
	if err != nil {
		return Result{}, fmt.Errorf("conversation %s: extraction: %w", convID, err)
	}

	reply, extracted := parseExtraction(raw)
	if reply == FallbackReply {
		h.logger.Warn().Str("conversation_id", convID).Msg("conversation: malformed extraction output")
	}
	record := lead.Merge(prior, extracted)
	h.registry.Remember(convID, record)
	result.Reply = reply
	result.Record = record

	jobID, started, err := h.registry.StartOnce(convID, func() (string, error) {
		if !record.Viable() {
			return "", nil
		}
		return h.jobs.Start(ctx, record, turn.Visitor)
	})
	switch {
	case err != nil:
		h.logger.Error().Err(err).Str("conversation_id", convID).Msg("conversation: job start failed")
	case started:
		h.logger.Info().Str("conversation_id", convID).Str("job_id", jobID).Msg("conversation: job started")
	case jobID != "":
		if err := h.jobs.Refresh(ctx, jobID, record); err != nil {
			h.logger.Warn().Err(err).Str("job_id", jobID).Msg("conversation: job refresh failed")
		}
	}
	result.JobStarted = started
	result.JobID = jobID
	return result, nil
}

// parseExtraction reads {reply, lead} from raw provider text. Unparseable
// text yields the fallback reply and an empty record, which merges as a
// no-op.
func parseExtraction(raw string) (string, lead.Record) {
	obj, err := sanitize.Object(raw, extractionSchema)
	if err != nil {
		return FallbackReply, lead.Record{}
	}
	reply, _ := obj["reply"].(string)
	if strings.TrimSpace(reply) == "" {
		reply = DefaultReply
	}
	fields, _ := obj["lead"].(map[string]any)
	return strings.TrimSpace(reply), lead.FromMap(fields)
}
