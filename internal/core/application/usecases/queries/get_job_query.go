// Package queries contains read operations for retrieving system state.
// Implements the Query pattern for read operations in the CQRS architecture.
// Queries return optimized read models for specific use cases.
package queries

import (
	"errors"
	"time"

	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/domain/model/kernel"
	"storyforge/internal/pkg/guard"
)

var ErrGetJobQueryIsNotConstructed = errors.New(
	"GetJobQuery must be created via NewGetJobQuery constructor",
)

// GetJobQuery retrieves a single job by its identifier, including claim and
// retry bookkeeping that the list view omits.
type GetJobQuery struct {
	jobID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetJobQuery creates a query to retrieve one job.
func NewGetJobQuery(jobID kernel.UUID) (GetJobQuery, error) {
	if err := jobID.Validate(); err != nil {
		return GetJobQuery{}, err
	}

	return GetJobQuery{
		jobID: jobID,
		guard: guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetJobQuery) Validate() error {
	return q.guard.Validate(ErrGetJobQueryIsNotConstructed)
}

// JobID returns the identifier of the job to fetch.
func (q GetJobQuery) JobID() kernel.UUID {
	return q.jobID
}

// GetJobQueryResponse is the full read model for a single job.
type GetJobQueryResponse struct {
	ID          kernel.UUID
	BookID      kernel.UUID
	JobType     job.Type
	Status      job.Status
	Attempts    int
	MaxAttempts int
	ScheduledAt time.Time
	ClaimedBy   string
	ClaimedAt   *time.Time
	LastError   string
	CompletedAt *time.Time
}
