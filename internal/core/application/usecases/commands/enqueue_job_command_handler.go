package commands

import (
	"context"
	"errors"
	"time"

	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/pkg/errs"
)

// ErrDuplicateActiveJob is returned when a Queued or Running job of the same
// type already exists for the book. Duplicate pipeline runs would race on the
// book's step state, so the queue keeps at most one active job per stage.
var ErrDuplicateActiveJob = errors.New("an active job of this type already exists for the book")

// EnqueueJobCommandHandler handles the business logic for queueing pipeline work.
// Verifies the target book exists, rejects duplicate active jobs for the same
// stage, and persists the job in Queued status.
type EnqueueJobCommandHandler struct {
	uowFactory UoWFactory
}

// NewEnqueueJobCommandHandler creates a handler for job enqueue operations.
// Requires a UoWFactory because the handler reads books and writes jobs in
// one transaction.
func NewEnqueueJobCommandHandler(uowFactory UoWFactory) EnqueueJobCommandHandler {
	return EnqueueJobCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle processes the enqueue command.
// The new job is immediately due; callers wanting the worker to pick it up
// without waiting for the next poll wake the worker after the commit.
func (h *EnqueueJobCommandHandler) Handle(ctx context.Context, cmd EnqueueJobCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if _, err := uow.BookRepository().Get(ctx, cmd.BookID()); err != nil {
		return err
	}

	jobRepo := uow.JobRepository()
	_, err := jobRepo.GetActiveByBookAndType(ctx, cmd.BookID(), cmd.JobType())
	if err == nil {
		return ErrDuplicateActiveJob
	}
	if !errors.Is(err, errs.ErrObjectNotFound) {
		return err
	}

	newJob, err := job.NewJob(
		cmd.JobID(),
		cmd.BookID(),
		cmd.JobType(),
		cmd.Payload(),
		cmd.MaxAttempts(),
		time.Now(),
	)
	if err != nil {
		return err
	}

	if err = jobRepo.Add(ctx, newJob); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
