package jobs

import (
	"context"
	"log/slog"

	"storyforge/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// StaleJobReaper periodically releases jobs whose worker died mid-run.
// A released job returns to the queue with its claim cleared and is picked up
// by the next poll.
type StaleJobReaper struct {
	handler commands.RequeueStaleJobsCommandHandler
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewStaleJobReaper creates the reaper. It runs once a minute; the staleness
// threshold lives in the command handler.
func NewStaleJobReaper(handler commands.RequeueStaleJobsCommandHandler, logger *slog.Logger) *StaleJobReaper {
	return &StaleJobReaper{
		handler: handler,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With("component", "stale_job_reaper"),
	}
}

// Start schedules the reaper to run every minute.
func (j *StaleJobReaper) Start() error {
	_, err := j.cron.AddFunc("0 * * * * *", func() {
		ctx := context.Background()
		cmd := commands.NewRequeueStaleJobsCommand()

		released, err := j.handler.Handle(ctx, cmd)
		if err != nil {
			j.logger.ErrorContext(ctx, "Stale job reaper failed", "error", err)
			return
		}

		if released > 0 {
			j.logger.WarnContext(ctx, "Released stale jobs back to the queue", "count", released)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Stale job reaper started (running every minute)")
	return nil
}

// Stop stops the reaper.
func (j *StaleJobReaper) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Stale job reaper stopped")
}
