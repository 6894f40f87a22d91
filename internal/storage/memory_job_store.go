package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/peteski22/hubgraph/internal/jobs"
)

// MemoryJobStore keeps jobs in process memory. Jobs are lost on restart.
type MemoryJobStore struct {
	jobs map[string]jobs.Job
	mu   sync.RWMutex
}

// NewMemoryJobStore creates an empty in-memory job store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]jobs.Job)}
}

// Job returns a copy of the job with the given ID, or jobs.ErrJobNotFound.
func (s *MemoryJobStore) Job(_ context.Context, id string) (*jobs.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", jobs.ErrJobNotFound, id)
	}

	return &job, nil
}

// Jobs returns copies of up to limit jobs, most recently created first.
func (s *MemoryJobStore) Jobs(_ context.Context, limit int) ([]*jobs.Job, error) {
	s.mu.RLock()
	results := make([]*jobs.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		j := job
		results = append(results, &j)
	}
	s.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].ID > results[j].ID
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// Save stores a copy of the job, replacing any existing job with the same ID.
func (s *MemoryJobStore) Save(_ context.Context, job *jobs.Job) error {
	if job == nil || job.ID == "" {
		return errors.New("job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.ID] = *job

	return nil
}
