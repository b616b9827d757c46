package jobs

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Drmedkit/Bouw/internal/domain"
	"github.com/Drmedkit/Bouw/internal/lead"
)

func viableRecord() lead.Record {
	return lead.Record{Business: "Acme", Category: lead.CategoryOnlineStore, Style: lead.StyleCleanMinimal}
}

func TestStoreLifecycle(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Create("j1", viableRecord()))

	job, err := s.Get("j1")
	require.NoError(t, err)
	assert.Equal(t, StatusBuilding, job.Status)
	assert.Nil(t, job.Artifact)
	assert.False(t, job.ContactCollected)

	page := "<!DOCTYPE html>"
	require.NoError(t, s.Transition("j1", StatusDone, &page, ""))
	page = "mutated by caller"

	view, err := s.Poll("j1")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, view.Status)
	require.NotNil(t, view.Artifact)
	assert.Equal(t, "<!DOCTYPE html>", *view.Artifact)

	*view.Artifact = "mutated by reader"
	again, _ := s.Get("j1")
	assert.Equal(t, "<!DOCTYPE html>", *again.Artifact)
	assert.Equal(t, 1, s.Len())
}

func TestStoreTransitionIsOneWay(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Create("j1", viableRecord()))
	require.NoError(t, s.Transition("j1", StatusError, nil, "boom"))

	page := "x"
	err := s.Transition("j1", StatusDone, &page, "")
	assert.ErrorIs(t, err, ErrTerminal)

	job, _ := s.Get("j1")
	assert.Equal(t, StatusError, job.Status)
	assert.Nil(t, job.Artifact)
	assert.Equal(t, "boom", job.Reason)
}

func TestStoreRejectsInconsistentTransitions(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Create("j1", viableRecord()))

	assert.ErrorIs(t, s.Transition("j1", StatusDone, nil, ""), ErrInvalidTransition)
	assert.ErrorIs(t, s.Transition("j1", StatusBuilding, nil, ""), ErrInvalidTransition)

	page := "ignored"
	require.NoError(t, s.Transition("j1", StatusError, &page, "bad"))
	job, _ := s.Get("j1")
	assert.Nil(t, job.Artifact, "error jobs never carry an artifact")
}

func TestStoreUnknownAndDuplicateIDs(t *testing.T) {
	s := NewStore()
	_, err := s.Get("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Poll("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.Transition("missing", StatusError, nil, ""), domain.ErrNotFound)

	require.NoError(t, s.Create("j1", viableRecord()))
	assert.ErrorIs(t, s.Create("j1", viableRecord()), domain.ErrDuplicateJob)
	assert.Error(t, s.Create("", viableRecord()))
}

func TestStoreRefreshKeepsStartSnapshot(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Create("j1", viableRecord()))

	newer := viableRecord()
	newer.Email = "ada@example.com"
	job, err := s.Refresh("j1", newer)
	require.NoError(t, err)
	assert.True(t, job.ContactCollected)
	assert.Equal(t, "", job.Record.Email)
	assert.Equal(t, "ada@example.com", job.Current.Email)

	job, err = s.Refresh("j1", viableRecord())
	require.NoError(t, err)
	assert.True(t, job.ContactCollected, "contact flag never regresses")
	job, _ = s.Get("j1")
	assert.True(t, job.ContactCollected)
}

func TestStoreClaimNotificationOnce(t *testing.T) {
	s := NewStore()
	record := viableRecord()
	record.Email = "ada@example.com"
	require.NoError(t, s.Create("j1", record))

	_, ok := s.ClaimNotification("j1")
	assert.False(t, ok, "building jobs are not notified")

	page := "<!DOCTYPE html>"
	require.NoError(t, s.Transition("j1", StatusDone, &page, ""))
	job, ok := s.ClaimNotification("j1")
	assert.True(t, ok)
	assert.True(t, job.Notified)
	_, ok = s.ClaimNotification("j1")
	assert.False(t, ok)
}

func TestStoreConcurrentReadersSeeConsistentPairs(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Create("j1", viableRecord()))

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				view, err := s.Poll("j1")
				if err != nil {
					errs <- err
					return
				}
				if (view.Status == StatusDone) != (view.Artifact != nil) {
					errs <- errors.New("status and artifact out of step")
					return
				}
				if view.Status.Terminal() {
					return
				}
			}
		}()
	}
	page := "<!DOCTYPE html>"
	require.NoError(t, s.Transition("j1", StatusDone, &page, ""))
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
