package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peteski22/hubgraph/internal/jobs"
)

func TestMemoryJobStore(t *testing.T) {
	t.Parallel()

	store := NewMemoryJobStore()
	ctx := context.Background()
	base := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	_, err := store.Job(ctx, "missing")
	require.ErrorIs(t, err, jobs.ErrJobNotFound)

	for i, id := range []string{"first", "second", "third"} {
		require.NoError(t, store.Save(ctx, &jobs.Job{
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			ID:        id,
			Status:    jobs.StatusQueued,
		}))
	}

	list, err := store.Jobs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "third", list[0].ID)
	require.Equal(t, "second", list[1].ID)

	require.Error(t, store.Save(ctx, &jobs.Job{}))
}

func TestMemoryJobStore_ReturnsCopies(t *testing.T) {
	t.Parallel()

	store := NewMemoryJobStore()
	ctx := context.Background()

	job := &jobs.Job{ID: "job-1", Status: jobs.StatusQueued}
	require.NoError(t, store.Save(ctx, job))

	// Mutating the caller's value after Save must not change the stored job.
	job.Status = jobs.StatusRunning

	got, err := store.Job(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, jobs.StatusQueued, got.Status)

	got.Status = jobs.StatusFailed

	again, err := store.Job(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, jobs.StatusQueued, again.Status)
}
