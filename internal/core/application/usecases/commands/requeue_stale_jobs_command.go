package commands

import (
	"errors"

	"storyforge/internal/pkg/guard"
)

var ErrRequeueStaleJobsCommandIsNotConstructed = errors.New(
	"RequeueStaleJobsCommand must be created via NewRequeueStaleJobsCommand constructor",
)

// RequeueStaleJobsCommand represents a request to release all Running jobs
// whose worker claim expired, typically because a worker process died
// mid-pipeline.
type RequeueStaleJobsCommand struct {
	guard guard.ConstructorGuard
}

// NewRequeueStaleJobsCommand creates a command to release stale claims.
func NewRequeueStaleJobsCommand() RequeueStaleJobsCommand {
	return RequeueStaleJobsCommand{
		guard: guard.NewConstructorGuard(),
	}
}

// Validate ensures the command was created through the constructor.
func (c RequeueStaleJobsCommand) Validate() error {
	return c.guard.Validate(ErrRequeueStaleJobsCommandIsNotConstructed)
}
