package ports

import (
	"context"
	"time"

	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/domain/model/kernel"
)

// JobRepository defines the persistence contract for job aggregates.
// It provides the queue primitives the worker and the maintenance jobs rely
// on: atomic claiming of due work, stale-claim discovery, and retention
// cleanup.
type JobRepository interface {
	// Add persists a new job aggregate to storage.
	Add(ctx context.Context, aggregate *job.Job) error

	// Update persists changes to an existing job aggregate.
	Update(ctx context.Context, aggregate *job.Job) error

	// Get retrieves a job aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*job.Job, error)

	// ClaimNext atomically claims the oldest due Queued job for the given
	// worker and returns it in Running state. Concurrent callers never claim
	// the same job. Returns ObjectNotFoundError when no job is due.
	ClaimNext(ctx context.Context, workerID string, now time.Time) (*job.Job, error)

	// GetActiveByBookAndType retrieves a Queued or Running job of the given
	// type for a book, used to reject duplicate enqueues.
	// Returns ObjectNotFoundError when none exists.
	GetActiveByBookAndType(ctx context.Context, bookID kernel.UUID, jobType job.Type) (*job.Job, error)

	// GetStaleRunning retrieves all Running jobs whose claim was taken before
	// the deadline, meaning their worker likely died.
	GetStaleRunning(ctx context.Context, deadline time.Time) ([]*job.Job, error)

	// DeleteCompletedBefore removes Completed jobs that reached their terminal
	// state before the cutoff. Returns the number of deleted rows.
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
