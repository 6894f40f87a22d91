// Package jobs runs sync requests one at a time in the background and tracks their outcome.
package jobs

import (
	"context"
	"errors"
	"time"

	hubsync "github.com/peteski22/hubgraph/internal/sync"
)

var (
	// ErrJobNotFound is returned when no job exists with the requested ID.
	ErrJobNotFound = errors.New("job not found")

	// ErrQueueFull is returned when the queue cannot accept another job.
	ErrQueueFull = errors.New("job queue is full")
)

// Status is the lifecycle state of a job.
type Status string

// Job statuses.
const (
	StatusFailed    Status = "failed"
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusFailed || s == StatusSucceeded
}

// Job is one requested sync run.
type Job struct {
	// CreatedAt is when the job was enqueued.
	CreatedAt time.Time `json:"createdAt"`

	// Error describes why the job failed.
	Error string `json:"error,omitempty"`

	// FinishedAt is when the job reached a terminal status.
	FinishedAt *time.Time `json:"finishedAt,omitempty"`

	// ID is the unique job identifier.
	ID string `json:"id"`

	// StartedAt is when the worker picked the job up.
	StartedAt *time.Time `json:"startedAt,omitempty"`

	// Stats is the outcome of the sync run once it has finished.
	Stats *hubsync.Stats `json:"stats,omitempty"`

	// Status is the current lifecycle state.
	Status Status `json:"status"`
}

// Runner executes one sync run.
type Runner interface {
	Run(ctx context.Context) (*hubsync.Stats, error)
}

// Store persists jobs.
type Store interface {
	// Job returns the job with the given ID, or ErrJobNotFound.
	Job(ctx context.Context, id string) (*Job, error)

	// Jobs returns up to limit jobs, most recently created first.
	Jobs(ctx context.Context, limit int) ([]*Job, error)

	// Save creates or replaces a job.
	Save(ctx context.Context, job *Job) error
}
