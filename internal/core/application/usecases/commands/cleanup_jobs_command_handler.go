package commands

import (
	"context"
	"time"
)

// CleanupJobsCommandHandler prunes Completed jobs past the retention window.
// Keeps the jobs table small so the claim query's status/scheduled_at scan
// stays fast.
type CleanupJobsCommandHandler struct {
	uowFactory JobUoWFactory
	retention  time.Duration
}

// NewCleanupJobsCommandHandler creates a handler that deletes Completed jobs
// older than the retention duration.
func NewCleanupJobsCommandHandler(uowFactory JobUoWFactory, retention time.Duration) CleanupJobsCommandHandler {
	return CleanupJobsCommandHandler{
		uowFactory: uowFactory,
		retention:  retention,
	}
}

// Handle deletes expired Completed jobs and returns how many rows were removed.
func (h *CleanupJobsCommandHandler) Handle(ctx context.Context, cmd CleanupJobsCommand) (int64, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	deleted, err := uow.JobRepository().DeleteCompletedBefore(ctx, time.Now().Add(-h.retention))
	if err != nil {
		return 0, err
	}

	if err = uow.Commit(ctx); err != nil {
		return 0, err
	}

	return deleted, nil
}
