// Package jobs provides scheduled background tasks for the fulfillment
// service.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to handle periodic queue maintenance.
//
// # Available Jobs
//
// 1. StaleJobReaper - Runs every minute to release jobs whose worker died mid-run
// 2. JobCleanup - Runs hourly to delete finished jobs past their retention window
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	// Create job manager with required handlers
//	jobManager := jobs.NewJobManager(requeueStaleJobsHandler, cleanupJobsHandler, logger)
//
//	// Start all jobs
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	// Stop all jobs when shutting down
//	defer jobManager.StopAll()
//
// # Error Handling
//
// - Both jobs log failures and keep their schedule; a failed run is retried
//   on the next tick
// - Failed job starts will stop any already running jobs
package jobs
