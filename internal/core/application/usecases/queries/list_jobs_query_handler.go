package queries

import (
	"context"

	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListJobsQueryHandler retrieves job lists from the database.
// Uses direct SQL queries for optimal read performance in the CQRS pattern.
type ListJobsQueryHandler struct {
	db *gorm.DB
}

// NewListJobsQueryHandler creates a handler for job list queries.
// Requires a GORM database connection for query execution.
func NewListJobsQueryHandler(db *gorm.DB) ListJobsQueryHandler {
	return ListJobsQueryHandler{db: db}
}

// Handle executes the list query.
// Jobs are ordered newest scheduled first so fresh work tops the dashboard.
func (h ListJobsQueryHandler) Handle(
	ctx context.Context,
	query ListJobsQuery,
) ([]ListJobsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	sql := `
		SELECT
			id,
			book_id,
			job_type,
			status,
			attempts,
			max_attempts,
			scheduled_at,
			last_error
		FROM jobs
	`
	where := ""
	args := make([]any, 0, 3)

	if status := query.Status(); status != nil {
		where = " WHERE status = ?"
		args = append(args, int(*status))
	}
	if jobType := query.JobType(); jobType != nil {
		if where == "" {
			where = " WHERE job_type = ?"
		} else {
			where += " AND job_type = ?"
		}
		args = append(args, jobType.String())
	}

	sql += where + " ORDER BY scheduled_at DESC, id LIMIT ?"
	args = append(args, query.Limit())

	rows, err := h.db.WithContext(ctx).Raw(sql, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]ListJobsQueryResponse, 0)

	for rows.Next() {
		var (
			response ListJobsQueryResponse
			id       uuid.UUID
			bookID   uuid.UUID
			jobType  string
			status   int
		)

		err = rows.Scan(
			&id,
			&bookID,
			&jobType,
			&status,
			&response.Attempts,
			&response.MaxAttempts,
			&response.ScheduledAt,
			&response.LastError,
		)
		if err != nil {
			return nil, err
		}

		jobID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		response.ID = jobID

		jobBookID, idErr := kernel.UUIDFromBytes(bookID[:])
		if idErr != nil {
			return nil, idErr
		}
		response.BookID = jobBookID

		response.JobType = job.Type(jobType)
		response.Status = job.Status(status)
		jobs = append(jobs, response)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return jobs, nil
}
