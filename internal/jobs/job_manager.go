package jobs

import (
	"fmt"
	"log/slog"

	"storyforge/internal/core/application/usecases/commands"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	staleJobReaper *StaleJobReaper
	jobCleanup     *JobCleanup
}

// NewJobManager creates a new job manager with all required jobs.
// Takes command handlers as dependencies to wire up the job execution.
func NewJobManager(
	requeueStaleJobsHandler commands.RequeueStaleJobsCommandHandler,
	cleanupJobsHandler commands.CleanupJobsCommandHandler,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		staleJobReaper: NewStaleJobReaper(requeueStaleJobsHandler, logger),
		jobCleanup:     NewJobCleanup(cleanupJobsHandler, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.staleJobReaper.Start(); err != nil {
		return fmt.Errorf("failed to start stale job reaper: %w", err)
	}

	if err := jm.jobCleanup.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.staleJobReaper.Stop()
		return fmt.Errorf("failed to start job cleanup: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.jobCleanup.Stop()
	jm.staleJobReaper.Stop()
}
