package queries

import (
	"errors"
	"time"

	"storyforge/internal/pkg/guard"
)

var ErrQueueStatsQueryIsNotConstructed = errors.New(
	"QueueStatsQuery must be created via NewQueueStatsQuery constructor",
)

// QueueStatsQuery retrieves aggregate queue health numbers.
// Per-status counts plus the age of the oldest due Queued job, which is the
// first number to look at when the queue appears stuck.
type QueueStatsQuery struct {
	guard guard.ConstructorGuard
}

// NewQueueStatsQuery creates a query to retrieve queue statistics.
func NewQueueStatsQuery() QueueStatsQuery {
	return QueueStatsQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
func (q QueueStatsQuery) Validate() error {
	return q.guard.Validate(ErrQueueStatsQueryIsNotConstructed)
}

// QueueStatsQueryResponse represents aggregate queue state.
// OldestQueuedAge is zero when nothing is waiting.
type QueueStatsQueryResponse struct {
	Queued          int64
	Running         int64
	Completed       int64
	Failed          int64
	Cancelled       int64
	OldestQueuedAge time.Duration
}
