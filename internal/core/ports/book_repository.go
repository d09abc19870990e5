package ports

import (
	"context"

	"storyforge/internal/core/domain/model/book"
	"storyforge/internal/core/domain/model/kernel"
)

// BookRepository defines the persistence contract for book aggregates.
type BookRepository interface {
	// Add persists a new book aggregate to storage.
	Add(ctx context.Context, aggregate *book.Book) error

	// Update persists changes to an existing book aggregate.
	Update(ctx context.Context, aggregate *book.Book) error

	// Get retrieves a book aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*book.Book, error)

	// GetByOrderReference retrieves the book registered for a storefront
	// order number. Returns ObjectNotFoundError when none exists.
	GetByOrderReference(ctx context.Context, orderReference string) (*book.Book, error)
}
