package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// defaultCapacity is the number of jobs that may wait behind the running one.
	defaultCapacity = 10

	// defaultListLimit is the number of jobs returned by Jobs.
	defaultListLimit = 50
)

// Config holds the configuration for creating a Queue.
type Config struct {
	// Capacity is the number of jobs that may wait to run. Defaults to 10.
	Capacity int

	// Logger is the structured logger for the queue.
	Logger *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Runner executes sync runs.
	Runner Runner

	// Store persists jobs.
	Store Store
}

// validate checks that all required Config fields are set.
func (c *Config) validate() error {
	var errs []error
	if c.Runner == nil {
		errs = append(errs, errors.New("runner is required"))
	}
	if c.Store == nil {
		errs = append(errs, errors.New("store is required"))
	}
	if c.Capacity < 0 {
		errs = append(errs, fmt.Errorf("capacity must not be negative, got %d", c.Capacity))
	}
	return errors.Join(errs...)
}

// Queue accepts sync jobs and runs them sequentially on a single worker.
type Queue struct {
	logger  *slog.Logger
	now     func() time.Time
	pending chan string
	runner  Runner
	store   Store
}

// NewQueue creates a new job queue. Call Start to begin processing.
func NewQueue(cfg Config) (*Queue, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	capacity := cfg.Capacity
	if capacity == 0 {
		capacity = defaultCapacity
	}

	return &Queue{
		logger:  logger,
		now:     now,
		pending: make(chan string, capacity),
		runner:  cfg.Runner,
		store:   cfg.Store,
	}, nil
}

// Enqueue records a new queued job and schedules it.
// Returns ErrQueueFull when capacity jobs are already waiting.
func (q *Queue) Enqueue(ctx context.Context) (*Job, error) {
	job := &Job{
		CreatedAt: q.now().UTC(),
		ID:        uuid.NewString(),
		Status:    StatusQueued,
	}

	if err := q.store.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("saving job: %w", err)
	}

	select {
	case q.pending <- job.ID:
	default:
		q.finish(ctx, job, StatusFailed, ErrQueueFull)
		return nil, ErrQueueFull
	}

	q.logger.Info("sync job queued", "job_id", job.ID)
	return job, nil
}

// Job returns the job with the given ID.
func (q *Queue) Job(ctx context.Context, id string) (*Job, error) {
	return q.store.Job(ctx, id)
}

// Jobs returns the most recent jobs, newest first.
func (q *Queue) Jobs(ctx context.Context) ([]*Job, error) {
	return q.store.Jobs(ctx, defaultListLimit)
}

// Start runs queued jobs until ctx is cancelled. It blocks.
// A job in progress when ctx is cancelled sees the cancellation and fails.
func (q *Queue) Start(ctx context.Context) {
	q.logger.Info("job worker started")
	defer q.logger.Info("job worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case id := <-q.pending:
			q.run(ctx, id)
		}
	}
}

// finish moves a job to a terminal status and persists it.
func (q *Queue) finish(ctx context.Context, job *Job, status Status, runErr error) {
	finished := q.now().UTC()
	job.FinishedAt = &finished
	job.Status = status
	if runErr != nil {
		job.Error = runErr.Error()
	}

	// The job outcome is recorded even when the run was cancelled.
	if err := q.store.Save(context.WithoutCancel(ctx), job); err != nil {
		q.logger.Error("failed to save job", "job_id", job.ID, "status", status, "error", err)
	}
}

// run executes one job.
func (q *Queue) run(ctx context.Context, id string) {
	job, err := q.store.Job(ctx, id)
	if err != nil {
		q.logger.Error("failed to load queued job", "job_id", id, "error", err)
		return
	}

	started := q.now().UTC()
	job.StartedAt = &started
	job.Status = StatusRunning
	if err := q.store.Save(ctx, job); err != nil {
		q.logger.Error("failed to save job", "job_id", id, "status", job.Status, "error", err)
	}

	q.logger.Info("sync job started", "job_id", id)

	stats, runErr := q.runner.Run(ctx)
	job.Stats = stats

	status := StatusSucceeded
	if runErr == nil && ctx.Err() != nil {
		runErr = ctx.Err()
	}
	if runErr != nil {
		status = StatusFailed
	}

	q.finish(ctx, job, status, runErr)
	q.logger.Info("sync job finished", "job_id", id, "status", status)
}
