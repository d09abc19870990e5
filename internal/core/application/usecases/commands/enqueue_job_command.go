package commands

import (
	"encoding/json"
	"errors"

	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/domain/model/kernel"
	"storyforge/internal/pkg/guard"
)

var (
	ErrEnqueueJobCommandIsNotConstructed = errors.New(
		"EnqueueJobCommand must be created via NewEnqueueJobCommand constructor",
	)
)

// EnqueueJobCommand represents a request to queue one pipeline stage for a book.
// The payload is an opaque JSON document the pipeline interprets; callers that
// have nothing stage-specific to pass leave it empty.
type EnqueueJobCommand struct { //nolint:recvcheck //using for validation
	jobID       kernel.UUID
	bookID      kernel.UUID
	jobType     job.Type
	payload     json.RawMessage
	maxAttempts int

	guard guard.ConstructorGuard
}

// NewEnqueueJobCommand creates a command to queue a pipeline stage.
// Validates that both identifiers are valid and the job type names a known
// pipeline. A non-positive maxAttempts falls back to the queue default.
func NewEnqueueJobCommand(
	jobID kernel.UUID,
	bookID kernel.UUID,
	jobType job.Type,
	payload json.RawMessage,
	maxAttempts int,
) (EnqueueJobCommand, error) {
	cmd := EnqueueJobCommand{
		payload:     payload,
		maxAttempts: maxAttempts,
		guard:       guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setJobID(jobID),
		cmd.setBookID(bookID),
		cmd.setJobType(jobType),
	); err != nil {
		return EnqueueJobCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c EnqueueJobCommand) Validate() error {
	return c.guard.Validate(ErrEnqueueJobCommandIsNotConstructed)
}

// JobID returns the identifier the new job will be stored under.
func (c EnqueueJobCommand) JobID() kernel.UUID {
	return c.jobID
}

// BookID returns the book the job works on.
func (c EnqueueJobCommand) BookID() kernel.UUID {
	return c.bookID
}

// JobType returns the pipeline stage to execute.
func (c EnqueueJobCommand) JobType() job.Type {
	return c.jobType
}

// Payload returns the opaque stage payload.
func (c EnqueueJobCommand) Payload() json.RawMessage {
	return c.payload
}

// MaxAttempts returns the requested retry bound.
func (c EnqueueJobCommand) MaxAttempts() int {
	return c.maxAttempts
}

func (c *EnqueueJobCommand) setJobID(jobID kernel.UUID) error {
	if err := jobID.Validate(); err != nil {
		return err
	}

	c.jobID = jobID
	return nil
}

func (c *EnqueueJobCommand) setBookID(bookID kernel.UUID) error {
	if err := bookID.Validate(); err != nil {
		return err
	}

	c.bookID = bookID
	return nil
}

func (c *EnqueueJobCommand) setJobType(jobType job.Type) error {
	if err := jobType.Validate(); err != nil {
		return err
	}

	c.jobType = jobType
	return nil
}
