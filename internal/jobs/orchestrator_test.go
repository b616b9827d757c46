package jobs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Drmedkit/Bouw/internal/catalog"
	"github.com/Drmedkit/Bouw/internal/domain"
	"github.com/Drmedkit/Bouw/internal/inject"
	"github.com/Drmedkit/Bouw/internal/lead"
	"github.com/Drmedkit/Bouw/internal/providers/image"
	"github.com/Drmedkit/Bouw/internal/providers/prompt"
)

const twoPlaceholderPage = `<!DOCTYPE html><html><body>` +
	`<img src="https://images.unsplash.com/photo-hero?w=1200&h=800">` +
	`<img src="https://images.unsplash.com/photo-feature?w=1200&h=800">` +
	`</body></html>`

type generatorFunc func(ctx context.Context, req image.Request) (image.Asset, error)

func (f generatorFunc) Generate(ctx context.Context, req image.Request) (image.Asset, error) {
	return f(ctx, req)
}

type recordingPersister struct {
	mu       sync.Mutex
	statuses []Status
	records  []lead.Record
	err      error
}

func (p *recordingPersister) Upsert(ctx context.Context, jobID string, record lead.Record, status Status, artifact *string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, status)
	p.records = append(p.records, record)
	return p.err
}

func (p *recordingPersister) snapshot() []Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Status(nil), p.statuses...)
}

type recordingNotifier struct {
	mu   sync.Mutex
	jobs []Job
}

func (n *recordingNotifier) NotifyLead(ctx context.Context, job Job) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.jobs = append(n.jobs, job)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.jobs)
}

func staticDocument(page string) prompt.Completer {
	return prompt.CompleterFunc(func(ctx context.Context, req prompt.Request) (string, error) {
		return page, nil
	})
}

func newOrchestrator(t *testing.T, opts Options) (*Orchestrator, *Store) {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	opts.Catalog = c
	store := NewStore()
	o, err := NewOrchestrator(store, opts)
	require.NoError(t, err)
	return o, store
}

// runJob starts a job and waits for every background goroutine to finish.
func runJob(t *testing.T, o *Orchestrator, record lead.Record) Job {
	t.Helper()
	id, err := o.Start(context.Background(), record, domain.VisitorContext{Locale: "en"})
	require.NoError(t, err)
	require.NoError(t, o.Shutdown(5*time.Second))
	job, err := o.Store().Get(id)
	require.NoError(t, err)
	return job
}

func TestOrchestratorInjectsGeneratedAssets(t *testing.T) {
	var briefs []string
	var mu sync.Mutex
	docs := prompt.CompleterFunc(func(ctx context.Context, req prompt.Request) (string, error) {
		mu.Lock()
		briefs = append(briefs, req.Messages[0].Text)
		mu.Unlock()
		assert.Equal(t, prompt.PurposeDocument, req.Purpose)
		return "```html\n" + twoPlaceholderPage + "\n```", nil
	})
	images := generatorFunc(func(ctx context.Context, req image.Request) (image.Asset, error) {
		return image.Asset{URL: "https://cdn.test/" + req.Key + ".png"}, nil
	})
	o, _ := newOrchestrator(t, Options{Documents: docs, Images: images, NewID: func() string { return "job-1" }})

	job := runJob(t, o, viableRecord())
	require.Equal(t, StatusDone, job.Status)
	require.NotNil(t, job.Artifact)
	assert.Contains(t, *job.Artifact, `src="https://cdn.test/generated/jobs/job-1/primary.png"`)
	assert.Contains(t, *job.Artifact, `src="https://cdn.test/generated/jobs/job-1/secondary.png"`)
	assert.NotContains(t, *job.Artifact, "```")
	require.Len(t, briefs, 1)
	assert.Contains(t, briefs[0], `"business": "Acme"`)
}

func TestOrchestratorInvalidDocumentFailsJob(t *testing.T) {
	o, _ := newOrchestrator(t, Options{Documents: staticDocument("<html><body>no doctype</body></html>")})

	job := runJob(t, o, viableRecord())
	assert.Equal(t, StatusError, job.Status)
	assert.Nil(t, job.Artifact)
	assert.Contains(t, job.Reason, "document")
}

func TestOrchestratorProviderErrorFailsJob(t *testing.T) {
	docs := prompt.CompleterFunc(func(ctx context.Context, req prompt.Request) (string, error) {
		return "", domain.ErrProviderTransient
	})
	o, _ := newOrchestrator(t, Options{Documents: docs})

	job := runJob(t, o, viableRecord())
	assert.Equal(t, StatusError, job.Status)
	assert.Nil(t, job.Artifact)
}

func TestOrchestratorAssetFailureKeepsDocument(t *testing.T) {
	images := generatorFunc(func(ctx context.Context, req image.Request) (image.Asset, error) {
		return image.Asset{}, errors.New("image backend down")
	})
	o, _ := newOrchestrator(t, Options{Documents: staticDocument(twoPlaceholderPage), Images: images})

	job := runJob(t, o, viableRecord())
	require.Equal(t, StatusDone, job.Status)
	assert.Equal(t, twoPlaceholderPage, *job.Artifact)
}

func TestOrchestratorSecondaryOnlyFailure(t *testing.T) {
	images := generatorFunc(func(ctx context.Context, req image.Request) (image.Asset, error) {
		if strings.HasSuffix(req.Key, string(inject.RoleSecondary)) {
			panic("secondary exploded")
		}
		return image.Asset{URL: "https://cdn.test/hero.png"}, nil
	})
	o, _ := newOrchestrator(t, Options{Documents: staticDocument(twoPlaceholderPage), Images: images})

	job := runJob(t, o, viableRecord())
	require.Equal(t, StatusDone, job.Status)
	assert.Contains(t, *job.Artifact, "https://cdn.test/hero.png")
	assert.Contains(t, *job.Artifact, "https://images.unsplash.com/photo-feature")
}

func TestOrchestratorPrimaryTimeoutIgnoresUncooperativeProvider(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	docs := prompt.CompleterFunc(func(ctx context.Context, req prompt.Request) (string, error) {
		<-release
		return twoPlaceholderPage, nil
	})
	o, _ := newOrchestrator(t, Options{Documents: docs, PrimaryTimeout: 20 * time.Millisecond})

	job := runJob(t, o, viableRecord())
	assert.Equal(t, StatusError, job.Status)
	assert.Contains(t, job.Reason, ErrTimeout.Error())
}

func TestOrchestratorAssetTimeoutIsAdvisory(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	images := generatorFunc(func(ctx context.Context, req image.Request) (image.Asset, error) {
		<-release
		return image.Asset{URL: "https://cdn.test/late.png"}, nil
	})
	o, _ := newOrchestrator(t, Options{
		Documents:    staticDocument(twoPlaceholderPage),
		Images:       images,
		AssetTimeout: 20 * time.Millisecond,
	})

	job := runJob(t, o, viableRecord())
	require.Equal(t, StatusDone, job.Status)
	assert.Equal(t, twoPlaceholderPage, *job.Artifact)
}

func TestOrchestratorRecoversFromPanickingCompleter(t *testing.T) {
	docs := prompt.CompleterFunc(func(ctx context.Context, req prompt.Request) (string, error) {
		panic("provider bug")
	})
	o, _ := newOrchestrator(t, Options{Documents: docs})

	job := runJob(t, o, viableRecord())
	assert.Equal(t, StatusError, job.Status)
	assert.Contains(t, job.Reason, "panicked")
}

func TestOrchestratorPersistenceIsBestEffort(t *testing.T) {
	persister := &recordingPersister{err: errors.New("db down")}
	o, _ := newOrchestrator(t, Options{Documents: staticDocument(twoPlaceholderPage), Persister: persister})

	job := runJob(t, o, viableRecord())
	assert.Equal(t, StatusDone, job.Status)
	assert.ElementsMatch(t, []Status{StatusBuilding, StatusDone}, persister.snapshot())
}

func TestOrchestratorNotifiesOnceWhenContactArrives(t *testing.T) {
	notifier := &recordingNotifier{}
	persister := &recordingPersister{}
	o, store := newOrchestrator(t, Options{
		Documents: staticDocument(twoPlaceholderPage),
		Notifier:  notifier,
		Persister: persister,
		NewID:     func() string { return "job-1" },
	})

	id, err := o.Start(context.Background(), viableRecord(), domain.VisitorContext{})
	require.NoError(t, err)

	// Wait for the job itself without shutting down.
	require.Eventually(t, func() bool {
		job, _ := store.Get(id)
		return job.Status.Terminal()
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, notifier.count(), "no contact yet")

	withEmail := viableRecord()
	withEmail.Email = "ada@example.com"
	require.NoError(t, o.Refresh(context.Background(), id, withEmail))
	require.NoError(t, o.Refresh(context.Background(), id, withEmail))
	require.NoError(t, o.Shutdown(5*time.Second))

	require.Equal(t, 1, notifier.count())
	assert.Equal(t, "ada@example.com", notifier.jobs[0].Current.Email)
	job, _ := store.Get(id)
	assert.True(t, job.ContactCollected)
}

func TestOrchestratorRejectsStartAfterShutdown(t *testing.T) {
	o, store := newOrchestrator(t, Options{Documents: staticDocument(twoPlaceholderPage)})
	require.NoError(t, o.Shutdown(time.Second))

	_, err := o.Start(context.Background(), viableRecord(), domain.VisitorContext{})
	assert.ErrorIs(t, err, ErrShuttingDown)
	assert.Equal(t, 0, store.Len())
}

func TestOrchestratorStartDoesNotBlockOnGeneration(t *testing.T) {
	release := make(chan struct{})
	docs := prompt.CompleterFunc(func(ctx context.Context, req prompt.Request) (string, error) {
		<-release
		return twoPlaceholderPage, nil
	})
	o, store := newOrchestrator(t, Options{Documents: docs})

	id, err := o.Start(context.Background(), viableRecord(), domain.VisitorContext{})
	require.NoError(t, err)
	view, err := store.Poll(id)
	require.NoError(t, err)
	assert.Equal(t, StatusBuilding, view.Status)
	assert.Nil(t, view.Artifact)

	close(release)
	require.NoError(t, o.Shutdown(5*time.Second))
	view, _ = store.Poll(id)
	assert.Equal(t, StatusDone, view.Status)
}

func TestOrchestratorKeepsAssetsFinishedBeforeSlowDocument(t *testing.T) {
	docs := prompt.CompleterFunc(func(ctx context.Context, req prompt.Request) (string, error) {
		time.Sleep(30 * time.Millisecond)
		return twoPlaceholderPage, nil
	})
	images := generatorFunc(func(ctx context.Context, req image.Request) (image.Asset, error) {
		return image.Asset{URL: "https://cdn.test/" + req.Key + ".png"}, nil
	})

	for i := 0; i < 20; i++ {
		o, _ := newOrchestrator(t, Options{Documents: docs, Images: images, AssetTimeout: 10 * time.Millisecond})
		job := runJob(t, o, viableRecord())
		require.Equal(t, StatusDone, job.Status)
		require.NotNil(t, job.Artifact)
		assert.NotContains(t, *job.Artifact, "images.unsplash.com", "run %d lost a finished asset", i)
	}
}

type blockingPersister struct {
	release chan struct{}
	mu      sync.Mutex
	calls   int
}

func (p *blockingPersister) Upsert(ctx context.Context, jobID string, record lead.Record, status Status, artifact *string) error {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if status == StatusBuilding {
		<-p.release
	}
	return nil
}

func TestOrchestratorGenerationDoesNotWaitForPersistence(t *testing.T) {
	persister := &blockingPersister{release: make(chan struct{})}
	o, store := newOrchestrator(t, Options{Documents: staticDocument(twoPlaceholderPage), Persister: persister})

	id, err := o.Start(context.Background(), viableRecord(), domain.VisitorContext{})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		job, _ := store.Get(id)
		return job.Status == StatusDone
	}, 5*time.Second, 5*time.Millisecond, "job stalled behind the building upsert")

	close(persister.release)
	require.NoError(t, o.Shutdown(5*time.Second))
	persister.mu.Lock()
	defer persister.mu.Unlock()
	assert.Equal(t, 2, persister.calls)
}

func TestNewOrchestratorValidatesOptions(t *testing.T) {
	_, err := NewOrchestrator(nil, Options{})
	assert.Error(t, err)
	_, err = NewOrchestrator(NewStore(), Options{})
	assert.Error(t, err)
	_, err = NewOrchestrator(NewStore(), Options{Documents: staticDocument("")})
	assert.Error(t, err, "catalog is required")
}
