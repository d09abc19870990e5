package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"storyforge/internal/core/domain/model/book"
	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/domain/model/kernel"
	"storyforge/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetBookQueryHandler retrieves a book read model from the database.
// Uses direct SQL for optimal read performance in the CQRS pattern.
type GetBookQueryHandler struct {
	db *gorm.DB
}

// NewGetBookQueryHandler creates a handler for book retrieval queries.
// Requires a GORM database connection for query execution.
func NewGetBookQueryHandler(db *gorm.DB) GetBookQueryHandler {
	return GetBookQueryHandler{db: db}
}

// stepDocument mirrors the JSON layout of the steps column.
type stepDocument struct {
	Name        string    `json:"name"`
	Status      int       `json:"status"`
	ArtifactKey string    `json:"artifact_key"`
	Error       string    `json:"error"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Handle executes the query for one book.
// Returns an ObjectNotFoundError when no book exists under the identifier.
func (h GetBookQueryHandler) Handle(
	ctx context.Context,
	query GetBookQuery,
) (GetBookQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetBookQueryResponse{}, err
	}

	row := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			order_reference,
			child_name,
			title,
			status,
			page_count,
			print_trim_width_cm,
			print_trim_height_cm,
			print_bleed_cm,
			print_dpi,
			steps
		FROM books
		WHERE id = ?
	`, query.BookID().Bytes()).Row()

	var (
		response GetBookQueryResponse
		id       uuid.UUID
		status   int
		rawSteps []byte
	)

	err := row.Scan(
		&id,
		&response.OrderReference,
		&response.ChildName,
		&response.Title,
		&status,
		&response.PageCount,
		&response.TrimWidthCM,
		&response.TrimHeightCM,
		&response.BleedCM,
		&response.DPI,
		&rawSteps,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return GetBookQueryResponse{}, errs.NewObjectNotFoundError("book", query.BookID().String())
	}
	if err != nil {
		return GetBookQueryResponse{}, err
	}

	bookID, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return GetBookQueryResponse{}, err
	}
	response.ID = bookID
	response.Status = book.Status(status)

	var documents []stepDocument
	if err = json.Unmarshal(rawSteps, &documents); err != nil {
		return GetBookQueryResponse{}, err
	}

	response.Steps = make([]GetBookQueryStep, 0, len(documents))
	for _, doc := range documents {
		response.Steps = append(response.Steps, GetBookQueryStep{
			Name:        job.Type(doc.Name),
			Status:      book.StepStatus(doc.Status),
			ArtifactKey: doc.ArtifactKey,
			Error:       doc.Error,
			UpdatedAt:   doc.UpdatedAt,
		})
	}

	return response, nil
}
