package queries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/domain/model/kernel"
	"storyforge/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetJobQueryHandler retrieves a single job read model from the database.
// Uses direct SQL for optimal read performance in the CQRS pattern.
type GetJobQueryHandler struct {
	db *gorm.DB
}

// NewGetJobQueryHandler creates a handler for single-job retrieval.
// Requires a GORM database connection for query execution.
func NewGetJobQueryHandler(db *gorm.DB) GetJobQueryHandler {
	return GetJobQueryHandler{db: db}
}

// Handle executes the query for one job.
// Returns an ObjectNotFoundError when no job exists under the identifier.
func (h GetJobQueryHandler) Handle(
	ctx context.Context,
	query GetJobQuery,
) (GetJobQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetJobQueryResponse{}, err
	}

	row := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			book_id,
			job_type,
			status,
			attempts,
			max_attempts,
			scheduled_at,
			claimed_by,
			claimed_at,
			last_error,
			completed_at
		FROM jobs
		WHERE id = ?
	`, query.JobID().Bytes()).Row()

	var (
		response    GetJobQueryResponse
		id          uuid.UUID
		bookID      uuid.UUID
		jobType     string
		status      int
		claimedAt   sql.NullTime
		completedAt sql.NullTime
	)

	err := row.Scan(
		&id,
		&bookID,
		&jobType,
		&status,
		&response.Attempts,
		&response.MaxAttempts,
		&response.ScheduledAt,
		&response.ClaimedBy,
		&claimedAt,
		&response.LastError,
		&completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return GetJobQueryResponse{}, errs.NewObjectNotFoundError("job", query.JobID().String())
	}
	if err != nil {
		return GetJobQueryResponse{}, err
	}

	jobID, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return GetJobQueryResponse{}, err
	}
	response.ID = jobID

	jobBookID, err := kernel.UUIDFromBytes(bookID[:])
	if err != nil {
		return GetJobQueryResponse{}, err
	}
	response.BookID = jobBookID

	response.JobType = job.Type(jobType)
	response.Status = job.Status(status)
	response.ClaimedAt = nullableTime(claimedAt)
	response.CompletedAt = nullableTime(completedAt)

	return response, nil
}

func nullableTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	value := t.Time
	return &value
}
