package operations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharkclean/internal/errors"
)

func TestMemoryJobStore_CRUD(t *testing.T) {
	store := NewMemoryJobStore()
	job := &Job{ID: "a", Input: "GSAF5.xlsx", Status: JobStatusPending, CreatedAt: time.Now()}

	require.NoError(t, store.CreateJob(job))
	assert.Equal(t, errors.ErrTypeConflict, errors.TypeOf(store.CreateJob(job)))

	got, err := store.GetJob("a")
	require.NoError(t, err)
	got.Status = JobStatusRunning

	again, err := store.GetJob("a")
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, again.Status, "callers get copies")

	require.NoError(t, store.UpdateJob(got))
	again, _ = store.GetJob("a")
	assert.Equal(t, JobStatusRunning, again.Status)

	require.NoError(t, store.DeleteJob("a"))
	_, err = store.GetJob("a")
	assert.Equal(t, errors.ErrTypeNotFound, errors.TypeOf(err))
	assert.Equal(t, errors.ErrTypeNotFound, errors.TypeOf(store.DeleteJob("a")))
	assert.Equal(t, errors.ErrTypeNotFound, errors.TypeOf(store.UpdateJob(got)))
}

func TestMemoryJobStore_ListJobs(t *testing.T) {
	store := NewMemoryJobStore()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, st := range []JobStatus{JobStatusCompleted, JobStatusPending, JobStatusCompleted} {
		require.NoError(t, store.CreateJob(&Job{
			ID:        string(rune('a' + i)),
			Status:    st,
			Source:    SourceAPI,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := store.ListJobs(JobFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID, "newest first")

	done, _ := store.ListJobs(JobFilter{Status: JobStatusCompleted, Limit: 1})
	require.Len(t, done, 1)
	assert.Equal(t, "c", done[0].ID)

	recent, _ := store.ListJobs(JobFilter{Since: base.Add(30 * time.Second)})
	assert.Len(t, recent, 2)

	scheduled, _ := store.ListJobs(JobFilter{Source: SourceSchedule})
	assert.Empty(t, scheduled)
}

func TestMemoryJobStore_PruneJobs(t *testing.T) {
	store := NewMemoryJobStore()
	old := time.Now().Add(-2 * time.Hour)
	recent := time.Now()

	require.NoError(t, store.CreateJob(&Job{ID: "old", Status: JobStatusCompleted, CompletedAt: &old}))
	require.NoError(t, store.CreateJob(&Job{ID: "new", Status: JobStatusFailed, CompletedAt: &recent}))
	require.NoError(t, store.CreateJob(&Job{ID: "queued", Status: JobStatusPending}))

	assert.Equal(t, 1, store.PruneJobs(time.Now().Add(-time.Hour)))
	_, err := store.GetJob("old")
	assert.Error(t, err)
	_, err = store.GetJob("queued")
	assert.NoError(t, err)
}

func TestJob_Clone(t *testing.T) {
	now := time.Now()
	j := &Job{ID: "x", Outputs: []string{"a.xlsx"}, StartedAt: &now}
	c := j.Clone()
	c.Outputs[0] = "b.xlsx"
	*c.StartedAt = now.Add(time.Hour)

	assert.Equal(t, "a.xlsx", j.Outputs[0])
	assert.Equal(t, now, *j.StartedAt)
}
