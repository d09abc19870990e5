package commands

import (
	"errors"

	"storyforge/internal/core/domain/model/kernel"
	"storyforge/internal/pkg/guard"
)

var ErrMarkBookPrintedCommandIsNotConstructed = errors.New(
	"MarkBookPrintedCommand must be created via NewMarkBookPrintedCommand constructor",
)

// MarkBookPrintedCommand represents a request to record the print hand-off of
// a Ready book.
type MarkBookPrintedCommand struct { //nolint:recvcheck //using for validation
	bookID kernel.UUID

	guard guard.ConstructorGuard
}

// NewMarkBookPrintedCommand creates a command to mark a book as printed.
func NewMarkBookPrintedCommand(bookID kernel.UUID) (MarkBookPrintedCommand, error) {
	cmd := MarkBookPrintedCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cmd.setBookID(bookID); err != nil {
		return MarkBookPrintedCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c MarkBookPrintedCommand) Validate() error {
	return c.guard.Validate(ErrMarkBookPrintedCommandIsNotConstructed)
}

// BookID returns the identifier of the book to mark as printed.
func (c MarkBookPrintedCommand) BookID() kernel.UUID {
	return c.bookID
}

func (c *MarkBookPrintedCommand) setBookID(bookID kernel.UUID) error {
	if err := bookID.Validate(); err != nil {
		return err
	}

	c.bookID = bookID
	return nil
}
