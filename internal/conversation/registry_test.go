package conversation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Drmedkit/Bouw/internal/lead"
)

func TestRegistryStartOnce(t *testing.T) {
	r := NewRegistry()
	calls := 0
	start := func() (string, error) {
		calls++
		return "job-1", nil
	}

	id, started, err := r.StartOnce("c", start)
	require.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, "job-1", id)

	id, started, err = r.StartOnce("c", start)
	require.NoError(t, err)
	assert.False(t, started)
	assert.Equal(t, "job-1", id)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "job-1", r.JobID("c"))
}

func TestRegistryDeclineAndErrorLeaveSlotEmpty(t *testing.T) {
	r := NewRegistry()
	_, started, err := r.StartOnce("c", func() (string, error) { return "", nil })
	require.NoError(t, err)
	assert.False(t, started)

	_, _, err = r.StartOnce("c", func() (string, error) { return "", errors.New("boom") })
	assert.Error(t, err)
	assert.Empty(t, r.JobID("c"))

	_, started, _ = r.StartOnce("c", func() (string, error) { return "job-2", nil })
	assert.True(t, started)
}

func TestRegistryRemembersRecord(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.Record("c").IsZero())
	r.Remember("c", lead.Record{Business: "Acme"})
	assert.Equal(t, "Acme", r.Record("c").Business)
}
