package queries

import (
	"context"
	"database/sql"
	"time"

	"storyforge/internal/core/domain/model/job"

	"gorm.io/gorm"
)

// QueueStatsQueryHandler computes queue statistics from the database.
// Uses direct SQL aggregation for optimal read performance in the CQRS pattern.
type QueueStatsQueryHandler struct {
	db *gorm.DB
}

// NewQueueStatsQueryHandler creates a handler for queue statistics queries.
// Requires a GORM database connection for query execution.
func NewQueueStatsQueryHandler(db *gorm.DB) QueueStatsQueryHandler {
	return QueueStatsQueryHandler{db: db}
}

// Handle executes the statistics query.
// The oldest-queued age only counts jobs that are already due, so jobs
// parked in the future by retry backoff do not alarm the dashboard.
func (h QueueStatsQueryHandler) Handle(
	ctx context.Context,
	query QueueStatsQuery,
) (QueueStatsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return QueueStatsQueryResponse{}, err
	}

	var response QueueStatsQueryResponse

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT status, COUNT(*)
		FROM jobs
		GROUP BY status
	`).Rows()
	if err != nil {
		return QueueStatsQueryResponse{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status int
			count  int64
		)
		if err = rows.Scan(&status, &count); err != nil {
			return QueueStatsQueryResponse{}, err
		}

		switch job.Status(status) {
		case job.Queued:
			response.Queued = count
		case job.Running:
			response.Running = count
		case job.Completed:
			response.Completed = count
		case job.Failed:
			response.Failed = count
		case job.Cancelled:
			response.Cancelled = count
		}
	}

	if err = rows.Err(); err != nil {
		return QueueStatsQueryResponse{}, err
	}

	var oldest sql.NullTime

	now := time.Now()
	err = h.db.WithContext(ctx).Raw(`
		SELECT MIN(scheduled_at)
		FROM jobs
		WHERE status = ? AND scheduled_at <= ?
	`, int(job.Queued), now).Row().Scan(&oldest)
	if err != nil {
		return QueueStatsQueryResponse{}, err
	}

	if oldest.Valid {
		response.OldestQueuedAge = now.Sub(oldest.Time)
	}

	return response, nil
}
