package commands

import (
	"context"
	"time"

	"storyforge/internal/core/domain/model/book"
)

// CreateBookCommandHandler handles the business logic for book registration.
// Creates the book in Draft status with every pipeline step pending; the
// remaining field validation (name, title, page count) happens in the domain
// constructor.
type CreateBookCommandHandler struct {
	uowFactory BookUoWFactory
}

// NewCreateBookCommandHandler creates a handler for book registration.
func NewCreateBookCommandHandler(uowFactory BookUoWFactory) CreateBookCommandHandler {
	return CreateBookCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle processes the book registration command inside a transaction.
func (h *CreateBookCommandHandler) Handle(ctx context.Context, cmd CreateBookCommand) error {
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

	newBook, err := book.NewBook(
		cmd.BookID(),
		cmd.OrderReference(),
		cmd.ChildName(),
		cmd.Title(),
		cmd.PageCount(),
		cmd.PrintSpec(),
		time.Now(),
	)
	if err != nil {
		return err
	}

	if err = uow.BookRepository().Add(ctx, newBook); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
