package jobs

import (
	"context"
	"log/slog"

	"storyforge/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// JobCleanup periodically deletes finished queue rows past their retention
// window so the jobs table stays small enough for the claim index to matter.
type JobCleanup struct {
	handler commands.CleanupJobsCommandHandler
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewJobCleanup creates the cleanup job. The retention window lives in the
// command handler.
func NewJobCleanup(handler commands.CleanupJobsCommandHandler, logger *slog.Logger) *JobCleanup {
	return &JobCleanup{
		handler: handler,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With("component", "job_cleanup"),
	}
}

// Start schedules the cleanup to run hourly.
func (j *JobCleanup) Start() error {
	_, err := j.cron.AddFunc("0 0 * * * *", func() {
		ctx := context.Background()
		cmd := commands.NewCleanupJobsCommand()

		deleted, err := j.handler.Handle(ctx, cmd)
		if err != nil {
			j.logger.ErrorContext(ctx, "Job cleanup failed", "error", err)
			return
		}

		if deleted > 0 {
			j.logger.InfoContext(ctx, "Deleted finished jobs past retention", "count", deleted)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Job cleanup started (running hourly)")
	return nil
}

// Stop stops the cleanup job.
func (j *JobCleanup) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Job cleanup stopped")
}
