package queries

import (
	"errors"
	"time"

	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/domain/model/kernel"
	"storyforge/internal/pkg/guard"
)

var ErrListJobsQueryIsNotConstructed = errors.New(
	"ListJobsQuery must be created via NewListJobsQuery constructor",
)

const (
	// DefaultListJobsLimit bounds the list view when callers pass no limit.
	DefaultListJobsLimit = 50

	// MaxListJobsLimit caps how many jobs one list request may return.
	MaxListJobsLimit = 500
)

// ListJobsQuery retrieves jobs newest first, optionally filtered by status
// and pipeline stage. Built for the admin dashboard's queue view.
type ListJobsQuery struct {
	status  *job.Status
	jobType *job.Type
	limit   int

	guard guard.ConstructorGuard
}

// NewListJobsQuery creates a query to list jobs.
// Nil filters match everything. A non-positive limit falls back to
// DefaultListJobsLimit and limits above MaxListJobsLimit are clamped.
func NewListJobsQuery(status *job.Status, jobType *job.Type, limit int) (ListJobsQuery, error) {
	if status != nil {
		if err := status.Validate(); err != nil {
			return ListJobsQuery{}, err
		}
	}
	if jobType != nil {
		if err := jobType.Validate(); err != nil {
			return ListJobsQuery{}, err
		}
	}

	if limit <= 0 {
		limit = DefaultListJobsLimit
	}
	if limit > MaxListJobsLimit {
		limit = MaxListJobsLimit
	}

	return ListJobsQuery{
		status:  status,
		jobType: jobType,
		limit:   limit,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q ListJobsQuery) Validate() error {
	return q.guard.Validate(ErrListJobsQueryIsNotConstructed)
}

// Status returns the status filter, nil when unfiltered.
func (q ListJobsQuery) Status() *job.Status {
	return q.status
}

// JobType returns the pipeline stage filter, nil when unfiltered.
func (q ListJobsQuery) JobType() *job.Type {
	return q.jobType
}

// Limit returns the maximum number of jobs to return.
func (q ListJobsQuery) Limit() int {
	return q.limit
}

// ListJobsQueryResponse is the condensed per-job read model for list views.
type ListJobsQueryResponse struct {
	ID          kernel.UUID
	BookID      kernel.UUID
	JobType     job.Type
	Status      job.Status
	Attempts    int
	MaxAttempts int
	ScheduledAt time.Time
	LastError   string
}
