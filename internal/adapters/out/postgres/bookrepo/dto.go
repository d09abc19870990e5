// Package bookrepo provides data transfer objects and mapping functions for book persistence.
// This package implements the repository pattern for the book domain aggregate, handling
// the conversion between domain entities and database representations.
package bookrepo

import (
	"encoding/json"
	"time"

	"storyforge/internal/core/domain/model/book"
	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// BookDTO represents the database structure for persisting book aggregates.
// Pipeline step progress is stored as an ordered JSON document rather than a
// child table; steps are always read and written with their book.
type BookDTO struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderReference string    `gorm:"uniqueIndex"`
	ChildName      string
	Title          string
	Status         int `gorm:"index"`
	PageCount      int
	Print          PrintSpecDTO   `gorm:"embedded;embeddedPrefix:print_"`
	Steps          datatypes.JSON `gorm:"type:jsonb"`
}

// TableName specifies the database table name for book entities.
// Overrides GORM's default naming convention to use "books".
func (BookDTO) TableName() string {
	return "books"
}

// PrintSpecDTO represents the embedded physical print geometry within the book table.
type PrintSpecDTO struct {
	TrimWidthCM  float64 `gorm:"column:trim_width_cm"`
	TrimHeightCM float64 `gorm:"column:trim_height_cm"`
	BleedCM      float64 `gorm:"column:bleed_cm"`
	DPI          int     `gorm:"column:dpi"`
}

// StepDTO is the JSON layout of one pipeline step inside the steps column.
type StepDTO struct {
	Name        string    `json:"name"`
	Status      int       `json:"status"`
	ArtifactKey string    `json:"artifact_key"`
	Error       string    `json:"error"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// fromDomain converts a book domain aggregate to its database representation.
func fromDomain(aggregate *book.Book) (BookDTO, error) {
	steps := aggregate.Steps()
	stepDTOs := make([]StepDTO, 0, len(steps))
	for _, step := range steps {
		stepDTOs = append(stepDTOs, StepDTO{
			Name:        step.Name.String(),
			Status:      int(step.Status),
			ArtifactKey: step.ArtifactKey,
			Error:       step.Error,
			UpdatedAt:   step.UpdatedAt,
		})
	}

	rawSteps, err := json.Marshal(stepDTOs)
	if err != nil {
		return BookDTO{}, err
	}

	spec := aggregate.PrintSpec()
	return BookDTO{
		ID:             aggregate.ID().Bytes(),
		OrderReference: aggregate.OrderReference(),
		ChildName:      aggregate.ChildName(),
		Title:          aggregate.Title(),
		Status:         int(aggregate.Status()),
		PageCount:      aggregate.PageCount(),
		Print: PrintSpecDTO{
			TrimWidthCM:  spec.TrimWidthCM(),
			TrimHeightCM: spec.TrimHeightCM(),
			BleedCM:      spec.BleedCM(),
			DPI:          spec.DPI(),
		},
		Steps: datatypes.JSON(rawSteps),
	}, nil
}

// toDomain converts a database DTO to a book domain aggregate.
// Reconstructs the complete aggregate including step progress using RestoreBook.
func toDomain(dto BookDTO) (*book.Book, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	spec, err := book.NewPrintSpec(
		dto.Print.TrimWidthCM,
		dto.Print.TrimHeightCM,
		dto.Print.BleedCM,
		dto.Print.DPI,
	)
	if err != nil {
		return nil, err
	}

	var stepDTOs []StepDTO
	if err = json.Unmarshal([]byte(dto.Steps), &stepDTOs); err != nil {
		return nil, err
	}

	steps := make([]book.Step, 0, len(stepDTOs))
	for _, stepDTO := range stepDTOs {
		steps = append(steps, book.Step{
			Name:        job.Type(stepDTO.Name),
			Status:      book.StepStatus(stepDTO.Status),
			ArtifactKey: stepDTO.ArtifactKey,
			Error:       stepDTO.Error,
			UpdatedAt:   stepDTO.UpdatedAt,
		})
	}

	return book.RestoreBook(
		id,
		dto.OrderReference,
		dto.ChildName,
		dto.Title,
		book.Status(dto.Status),
		dto.PageCount,
		spec,
		steps,
	)
}
