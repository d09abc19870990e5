package queries

import (
	"errors"
	"time"

	"storyforge/internal/core/domain/model/book"
	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/domain/model/kernel"
	"storyforge/internal/pkg/guard"
)

var ErrGetBookQueryIsNotConstructed = errors.New(
	"GetBookQuery must be created via NewGetBookQuery constructor",
)

// GetBookQuery retrieves a book configuration with its per-stage pipeline
// progress for the admin book detail view.
type GetBookQuery struct {
	bookID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetBookQuery creates a query to retrieve one book.
func NewGetBookQuery(bookID kernel.UUID) (GetBookQuery, error) {
	if err := bookID.Validate(); err != nil {
		return GetBookQuery{}, err
	}

	return GetBookQuery{
		bookID: bookID,
		guard:  guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetBookQuery) Validate() error {
	return q.guard.Validate(ErrGetBookQueryIsNotConstructed)
}

// BookID returns the identifier of the book to fetch.
func (q GetBookQuery) BookID() kernel.UUID {
	return q.bookID
}

// GetBookQueryStep is the read model for one pipeline stage of a book.
type GetBookQueryStep struct {
	Name        job.Type
	Status      book.StepStatus
	ArtifactKey string
	Error       string
	UpdatedAt   time.Time
}

// GetBookQueryResponse is the read model for a book and its pipeline progress.
type GetBookQueryResponse struct {
	ID             kernel.UUID
	OrderReference string
	ChildName      string
	Title          string
	Status         book.Status
	PageCount      int
	TrimWidthCM    float64
	TrimHeightCM   float64
	BleedCM        float64
	DPI            int
	Steps          []GetBookQueryStep
}
