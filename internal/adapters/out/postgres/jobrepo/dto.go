// Package jobrepo provides data transfer objects and mapping functions for job persistence.
// This package implements the repository pattern for the job domain aggregate, handling
// the conversion between domain entities and database representations.
package jobrepo

import (
	"encoding/json"
	"time"

	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// JobDTO represents the database structure for persisting job aggregates.
// The claim query filters on status and scheduled_at, so both columns carry
// indexes; together they form the hot path of the queue.
type JobDTO struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	BookID      uuid.UUID      `gorm:"type:uuid;index"`
	JobType     string         `gorm:"index"`
	Payload     datatypes.JSON `gorm:"type:jsonb"`
	Status      int            `gorm:"index:idx_jobs_status_scheduled_at,priority:1"`
	Attempts    int
	MaxAttempts int
	ScheduledAt time.Time `gorm:"index:idx_jobs_status_scheduled_at,priority:2"`
	ClaimedBy   string
	ClaimedAt   *time.Time
	LastError   string
	CompletedAt *time.Time
}

// TableName specifies the database table name for job entities.
// Overrides GORM's default naming convention to use "jobs".
func (JobDTO) TableName() string {
	return "jobs"
}

// fromDomain converts a job domain aggregate to its database representation.
func fromDomain(aggregate *job.Job) JobDTO {
	return JobDTO{
		ID:          aggregate.ID().Bytes(),
		BookID:      aggregate.BookID().Bytes(),
		JobType:     aggregate.Type().String(),
		Payload:     datatypes.JSON(aggregate.Payload()),
		Status:      int(aggregate.Status()),
		Attempts:    aggregate.Attempts(),
		MaxAttempts: aggregate.MaxAttempts(),
		ScheduledAt: aggregate.ScheduledAt(),
		ClaimedBy:   aggregate.ClaimedBy(),
		ClaimedAt:   aggregate.ClaimedAt(),
		LastError:   aggregate.LastError(),
		CompletedAt: aggregate.CompletedAt(),
	}
}

// toDomain converts a database DTO to a job domain aggregate.
// Reconstructs the complete aggregate including claim state using RestoreJob.
func toDomain(dto JobDTO) (*job.Job, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	bookID, err := kernel.UUIDFromBytes(dto.BookID[:])
	if err != nil {
		return nil, err
	}

	return job.RestoreJob(
		id,
		bookID,
		job.Type(dto.JobType),
		json.RawMessage(dto.Payload),
		job.Status(dto.Status),
		dto.Attempts,
		dto.MaxAttempts,
		dto.ScheduledAt,
		dto.ClaimedBy,
		dto.ClaimedAt,
		dto.LastError,
		dto.CompletedAt,
	)
}
