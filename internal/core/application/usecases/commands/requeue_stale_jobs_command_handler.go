package commands

import (
	"context"
	"time"
)

// RequeueStaleJobsCommandHandler recovers jobs stranded by dead workers.
// A Running job whose claim is older than the staleness deadline is released
// back to Queued so another worker can pick it up. The attempt spent by the
// dead worker stays consumed, bounding how often a poisonous job cycles; a
// job that went stale with no attempts left terminally fails instead.
type RequeueStaleJobsCommandHandler struct {
	uowFactory JobUoWFactory
	staleAfter time.Duration
}

// NewRequeueStaleJobsCommandHandler creates a handler that treats claims
// older than staleAfter as abandoned.
func NewRequeueStaleJobsCommandHandler(uowFactory JobUoWFactory, staleAfter time.Duration) RequeueStaleJobsCommandHandler {
	return RequeueStaleJobsCommandHandler{
		uowFactory: uowFactory,
		staleAfter: staleAfter,
	}
}

// Handle releases every stale Running job in one transaction and returns how
// many were requeued.
func (h *RequeueStaleJobsCommandHandler) Handle(ctx context.Context, cmd RequeueStaleJobsCommand) (int, error) {
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

	now := time.Now()
	jobRepo := uow.JobRepository()

	stale, err := jobRepo.GetStaleRunning(ctx, now.Add(-h.staleAfter))
	if err != nil {
		return 0, err
	}

	for _, j := range stale {
		if err = j.Release(now); err != nil {
			return 0, err
		}
		if err = jobRepo.Update(ctx, j); err != nil {
			return 0, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return 0, err
	}

	return len(stale), nil
}
