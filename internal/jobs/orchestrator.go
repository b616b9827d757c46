package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Drmedkit/Bouw/internal/catalog"
	"github.com/Drmedkit/Bouw/internal/domain"
	"github.com/Drmedkit/Bouw/internal/infra"
	"github.com/Drmedkit/Bouw/internal/inject"
	"github.com/Drmedkit/Bouw/internal/lead"
	"github.com/Drmedkit/Bouw/internal/providers/image"
	"github.com/Drmedkit/Bouw/internal/providers/prompt"
	"github.com/Drmedkit/Bouw/internal/sanitize"
)

const (
	defaultPrimaryTimeout = 180 * time.Second
	defaultAssetTimeout   = 60 * time.Second
	sideEffectTimeout     = 15 * time.Second
)

var (
	// ErrTimeout marks a sub-task the orchestrator stopped waiting for.
	ErrTimeout = errors.New("jobs: sub-task timed out")
	// ErrShuttingDown is returned by Start once Shutdown has begun.
	ErrShuttingDown = errors.New("jobs: orchestrator is shutting down")
)

// Options configures an Orchestrator. Documents and Catalog are required;
// Images, Persister and Notifier are optional.
type Options struct {
	Documents      prompt.Completer
	Images         image.Generator
	Catalog        *catalog.Catalog
	Persister      Persister
	Notifier       Notifier
	Logger         *infra.Logger
	PrimaryTimeout time.Duration
	AssetTimeout   time.Duration
	NewID          func() string
}

// Orchestrator drives each job from building to done or error on its own
// goroutine. The conversation path only ever waits for Start.
type Orchestrator struct {
	store          *Store
	documents      prompt.Completer
	images         image.Generator
	catalog        *catalog.Catalog
	persister      Persister
	notifier       Notifier
	logger         *infra.Logger
	primaryTimeout time.Duration
	assetTimeout   time.Duration
	newID          func() string

	base    context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

// NewOrchestrator wires an orchestrator over store.
func NewOrchestrator(store *Store, opts Options) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("jobs: store is required")
	}
	if opts.Documents == nil {
		return nil, errors.New("jobs: document completer is required")
	}
	if opts.Catalog == nil {
		return nil, errors.New("jobs: catalog is required")
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	primary := opts.PrimaryTimeout
	if primary <= 0 {
		primary = defaultPrimaryTimeout
	}
	asset := opts.AssetTimeout
	if asset <= 0 {
		asset = defaultAssetTimeout
	}
	newID := opts.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	base, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		store:          store,
		documents:      opts.Documents,
		images:         opts.Images,
		catalog:        opts.Catalog,
		persister:      opts.Persister,
		notifier:       opts.Notifier,
		logger:         logger,
		primaryTimeout: primary,
		assetTimeout:   asset,
		newID:          newID,
		base:           base,
		cancel:         cancel,
	}, nil
}

// Store returns the store the orchestrator writes to.
func (o *Orchestrator) Store() *Store {
	return o.store
}

// Start creates a building job for record and generates its page in the
// background. It returns as soon as the job exists.
func (o *Orchestrator) Start(ctx context.Context, record lead.Record, visitor domain.VisitorContext) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closing {
		return "", ErrShuttingDown
	}

	id := o.newID()
	if err := o.store.Create(id, record); err != nil {
		return "", err
	}
	o.logger.Info().Str("job_id", id).Str("business", record.Business).Msg("jobs: job started")

	// The building upsert runs beside the job. A late write cannot regress a
	// terminal row, see Persister.
	o.wg.Add(2)
	go func() {
		defer o.wg.Done()
		o.run(id, record, visitor)
	}()
	go func() {
		defer o.wg.Done()
		o.persist(id, StatusBuilding, nil)
	}()
	return id, nil
}

// Refresh records a newer lead record for a running or finished job. When the
// contact field arrives after the page is done, the lead notification fires.
func (o *Orchestrator) Refresh(ctx context.Context, id string, record lead.Record) error {
	job, err := o.store.Refresh(id, record)
	if err != nil {
		return err
	}
	o.mu.Lock()
	closing := o.closing
	if !closing {
		o.wg.Add(1)
	}
	o.mu.Unlock()
	if closing {
		return nil
	}
	go func() {
		defer o.wg.Done()
		o.persist(id, job.Status, job.Artifact)
		o.notify(id)
	}()
	return nil
}

// run drives one job. Whatever happens, including a panic, the job ends in
// exactly one terminal state.
func (o *Orchestrator) run(id string, record lead.Record, visitor domain.VisitorContext) {
	status := StatusError
	var artifact *string
	reason := ""
	log := o.logger.With().Str("job_id", id).Logger()
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			status, artifact, reason = StatusError, nil, fmt.Sprintf("panic: %v", r)
			log.Error().Interface("panic", r).Msg("jobs: job panicked")
		}
		o.finish(id, status, artifact, reason)
		log.Info().
			Str("status", string(status)).
			Dur("elapsed", time.Since(started)).
			Msg("jobs: job finished")
	}()

	page, err := o.generate(o.base, id, record, visitor, &log)
	if err != nil {
		reason = err.Error()
		log.Warn().Err(err).Msg("jobs: page generation failed")
		return
	}
	status, artifact = StatusDone, &page
}

func (o *Orchestrator) generate(ctx context.Context, id string, record lead.Record, visitor domain.VisitorContext, log *zerolog.Logger) (string, error) {
	brief := prompt.NewBrief(record, visitor, o.catalog)
	document := launch(ctx, o.primaryTimeout, func(ctx context.Context) (string, error) {
		return o.documents.Complete(ctx, prompt.Request{
			Purpose:   prompt.PurposeDocument,
			System:    prompt.DocumentInstructions(),
			Messages:  []domain.Message{{Role: domain.RoleUser, Text: brief.String()}},
			RequestID: id,
		})
	})

	var assets []pendingAsset
	if o.images != nil {
		for _, role := range inject.Roles {
			req := image.ForRole(role, record, id, visitor.Locale)
			assets = append(assets, pendingAsset{
				role: role,
				pending: launch(ctx, o.assetTimeout, func(ctx context.Context) (image.Asset, error) {
					return o.images.Generate(ctx, req)
				}),
			})
		}
	}

	raw, err := document.await()
	if err != nil {
		return "", fmt.Errorf("document: %w", err)
	}
	page, err := sanitize.Document(raw, o.catalog.Document.Marker)
	if err != nil {
		return "", fmt.Errorf("document: %w", err)
	}

	return inject.Inject(page, o.collectAssets(assets, log), o.catalog.Document.PlaceholderPrefix), nil
}

type pendingAsset struct {
	role    inject.Role
	pending pending[image.Asset]
}

// collectAssets waits for every asset within its own deadline. Failures only
// drop the asset for that role.
func (o *Orchestrator) collectAssets(assets []pendingAsset, log *zerolog.Logger) []inject.Asset {
	results := make([]inject.Asset, len(assets))
	var g errgroup.Group
	for i, a := range assets {
		g.Go(func() error {
			asset, err := a.pending.await()
			if err == nil && strings.TrimSpace(asset.URL) == "" {
				err = errors.New("empty asset url")
			}
			if err != nil {
				log.Warn().Err(err).Str("role", string(a.role)).Msg("jobs: asset skipped")
				return nil
			}
			results[i] = inject.Asset{Role: a.role, URL: asset.URL}
			return nil
		})
	}
	_ = g.Wait()

	out := results[:0]
	for _, r := range results {
		if r.URL != "" {
			out = append(out, r)
		}
	}
	return out
}

func (o *Orchestrator) finish(id string, status Status, artifact *string, reason string) {
	if err := o.store.Transition(id, status, artifact, reason); err != nil {
		o.logger.Error().Err(err).Str("job_id", id).Msg("jobs: transition failed")
		return
	}
	o.persist(id, status, artifact)
	o.notify(id)
}

func (o *Orchestrator) persist(id string, status Status, artifact *string) {
	if o.persister == nil {
		return
	}
	job, err := o.store.Get(id)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()
	if err := o.persister.Upsert(ctx, id, job.Current, status, artifact); err != nil {
		o.logger.Warn().Err(err).Str("job_id", id).Str("status", string(status)).Msg("jobs: persist failed")
	}
}

func (o *Orchestrator) notify(id string) {
	if o.notifier == nil {
		return
	}
	job, ok := o.store.ClaimNotification(id)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()
	if err := o.notifier.NotifyLead(ctx, job); err != nil {
		o.logger.Warn().Err(err).Str("job_id", id).Msg("jobs: lead notification failed")
		return
	}
	o.logger.Info().Str("job_id", id).Msg("jobs: lead notified")
}

// Shutdown stops accepting jobs and waits up to timeout for running ones.
// Jobs still running afterwards have their provider calls cancelled.
func (o *Orchestrator) Shutdown(timeout time.Duration) error {
	o.mu.Lock()
	o.closing = true
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		o.cancel()
		o.logger.Info().Msg("jobs: all jobs finished")
		return nil
	case <-time.After(timeout):
		o.cancel()
		return fmt.Errorf("jobs: shutdown timed out after %v", timeout)
	}
}

type outcome[T any] struct {
	value T
	err   error
}

// pending is a sub-task result that may or may not arrive before deadline.
type pending[T any] struct {
	ch       <-chan outcome[T]
	deadline time.Time
}

// launch runs call on its own goroutine against a deadline starting now. The
// call's context expires at the deadline too, but await never relies on the
// call honouring it: a late result is dropped into the buffered channel and
// discarded.
func launch[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (T, error)) pending[T] {
	ch := make(chan outcome[T], 1)
	deadline := time.Now().Add(timeout)
	go func() {
		callCtx, cancel := context.WithDeadline(ctx, deadline)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome[T]{err: fmt.Errorf("sub-task panicked: %v", r)}
			}
		}()
		value, err := call(callCtx)
		ch <- outcome[T]{value: value, err: err}
	}()
	return pending[T]{ch: ch, deadline: deadline}
}

func (p pending[T]) await() (T, error) {
	// A result that is already in wins over an expired deadline.
	select {
	case r := <-p.ch:
		return r.value, r.err
	default:
	}
	timer := time.NewTimer(time.Until(p.deadline))
	defer timer.Stop()
	select {
	case r := <-p.ch:
		return r.value, r.err
	case <-timer.C:
		var zero T
		return zero, ErrTimeout
	}
}
