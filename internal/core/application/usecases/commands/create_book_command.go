package commands

import (
	"errors"

	"storyforge/internal/core/domain/model/book"
	"storyforge/internal/core/domain/model/kernel"
	"storyforge/internal/pkg/guard"
)

var ErrCreateBookCommandIsNotConstructed = errors.New(
	"CreateBookCommand must be created via NewCreateBookCommand constructor",
)

// CreateBookCommand represents a request to register a personalized book
// configuration for a storefront order, ready for its generation pipeline.
type CreateBookCommand struct { //nolint:recvcheck //using for validation
	bookID         kernel.UUID
	orderReference string
	childName      string
	title          string
	pageCount      int
	printSpec      book.PrintSpec

	guard guard.ConstructorGuard
}

// NewCreateBookCommand creates a command to register a book configuration.
// The print spec must be a constructed value; pass book.DefaultPrintSpec()
// for the standard square picture-book format.
func NewCreateBookCommand(
	bookID kernel.UUID,
	orderReference string,
	childName string,
	title string,
	pageCount int,
	printSpec book.PrintSpec,
) (CreateBookCommand, error) {
	cmd := CreateBookCommand{
		orderReference: orderReference,
		childName:      childName,
		title:          title,
		pageCount:      pageCount,
		guard:          guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setBookID(bookID),
		cmd.setPrintSpec(printSpec),
	); err != nil {
		return CreateBookCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateBookCommand) Validate() error {
	return c.guard.Validate(ErrCreateBookCommandIsNotConstructed)
}

// BookID returns the identifier the book will be stored under.
func (c CreateBookCommand) BookID() kernel.UUID {
	return c.bookID
}

// OrderReference returns the storefront order number.
func (c CreateBookCommand) OrderReference() string {
	return c.orderReference
}

// ChildName returns the personalization name.
func (c CreateBookCommand) ChildName() string {
	return c.childName
}

// Title returns the book title.
func (c CreateBookCommand) Title() string {
	return c.title
}

// PageCount returns the number of interior pages.
func (c CreateBookCommand) PageCount() int {
	return c.pageCount
}

// PrintSpec returns the physical print geometry.
func (c CreateBookCommand) PrintSpec() book.PrintSpec {
	return c.printSpec
}

func (c *CreateBookCommand) setBookID(bookID kernel.UUID) error {
	if err := bookID.Validate(); err != nil {
		return err
	}

	c.bookID = bookID
	return nil
}

func (c *CreateBookCommand) setPrintSpec(printSpec book.PrintSpec) error {
	if err := printSpec.Validate(); err != nil {
		return err
	}

	c.printSpec = printSpec
	return nil
}
