package commands

import (
	"context"
)

// MarkBookPrintedCommandHandler handles the business logic for the print
// hand-off. Only Ready books can move to Printed; the domain state machine
// rejects the rest, which surfaces as a conflict to API callers.
type MarkBookPrintedCommandHandler struct {
	uowFactory BookUoWFactory
}

// NewMarkBookPrintedCommandHandler creates a handler for the print hand-off.
func NewMarkBookPrintedCommandHandler(uowFactory BookUoWFactory) MarkBookPrintedCommandHandler {
	return MarkBookPrintedCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle processes the mark-printed command inside a transaction.
func (h *MarkBookPrintedCommandHandler) Handle(ctx context.Context, cmd MarkBookPrintedCommand) error {
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

	bookRepo := uow.BookRepository()
	b, err := bookRepo.Get(ctx, cmd.BookID())
	if err != nil {
		return err
	}

	if err = b.MarkPrinted(); err != nil {
		return err
	}

	if err = bookRepo.Update(ctx, b); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
