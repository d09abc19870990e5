package commands

import (
	"errors"

	"storyforge/internal/pkg/guard"
)

var ErrCleanupJobsCommandIsNotConstructed = errors.New(
	"CleanupJobsCommand must be created via NewCleanupJobsCommand constructor",
)

// CleanupJobsCommand represents a request to delete Completed jobs past the
// retention window. Failed and Cancelled jobs are kept for triage.
type CleanupJobsCommand struct {
	guard guard.ConstructorGuard
}

// NewCleanupJobsCommand creates a command to prune old completed jobs.
func NewCleanupJobsCommand() CleanupJobsCommand {
	return CleanupJobsCommand{
		guard: guard.NewConstructorGuard(),
	}
}

// Validate ensures the command was created through the constructor.
func (c CleanupJobsCommand) Validate() error {
	return c.guard.Validate(ErrCleanupJobsCommandIsNotConstructed)
}
