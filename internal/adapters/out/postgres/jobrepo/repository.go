package jobrepo

import (
	"context"
	"errors"
	"time"

	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/domain/model/kernel"
	"storyforge/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormJobRepository implements JobRepository using GORM.
type GormJobRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormJobRepository creates a new GORM job repository.
func NewGormJobRepository(db *gorm.DB, tracker aggregateTracker) *GormJobRepository {
	return &GormJobRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new job to the database.
func (r *GormJobRepository) Add(ctx context.Context, aggregate *job.Job) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update saves an existing job to the database.
func (r *GormJobRepository) Update(ctx context.Context, aggregate *job.Job) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	// Updates skips zero values, which would lose claim resets. Select("*")
	// forces every column to be written.
	result := r.db.WithContext(ctx).Model(&JobDTO{}).Where("id = ?", dto.ID).Select("*").Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves a job by ID.
func (r *GormJobRepository) Get(ctx context.Context, id kernel.UUID) (*job.Job, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto JobDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("job", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// ClaimNext atomically claims the oldest due Queued job for the given worker.
// Row locking with SKIP LOCKED lets concurrent workers claim different jobs
// without blocking each other; the claim is only durable once the surrounding
// transaction commits.
func (r *GormJobRepository) ClaimNext(ctx context.Context, workerID string, now time.Time) (*job.Job, error) {
	var dto JobDTO
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ? AND scheduled_at <= ?", int(job.Queued), now).
		Order("scheduled_at").
		First(&dto).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewObjectNotFoundError("job", "next due queued")
	}
	if err != nil {
		return nil, err
	}

	aggregate, err := toDomain(dto)
	if err != nil {
		return nil, err
	}

	if err = aggregate.Claim(workerID, now); err != nil {
		return nil, err
	}

	if err = r.Update(ctx, aggregate); err != nil {
		return nil, err
	}

	return aggregate, nil
}

// GetActiveByBookAndType retrieves the Queued or Running job of the given
// pipeline stage for a book, if one exists.
func (r *GormJobRepository) GetActiveByBookAndType(
	ctx context.Context,
	bookID kernel.UUID,
	jobType job.Type,
) (*job.Job, error) {
	if err := bookID.Validate(); err != nil {
		return nil, err
	}
	if err := jobType.Validate(); err != nil {
		return nil, err
	}

	var dto JobDTO
	err := r.db.WithContext(ctx).
		Where("book_id = ? AND job_type = ? AND status IN ?",
			bookID.Bytes(), jobType.String(), []int{int(job.Queued), int(job.Running)}).
		First(&dto).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.NewObjectNotFoundError("job", "active for book and type")
	}
	if err != nil {
		return nil, err
	}

	return toDomain(dto)
}

// GetStaleRunning retrieves all Running jobs claimed before the deadline.
func (r *GormJobRepository) GetStaleRunning(ctx context.Context, deadline time.Time) ([]*job.Job, error) {
	var dtos []JobDTO
	err := r.db.WithContext(ctx).
		Where("status = ? AND claimed_at < ?", int(job.Running), deadline).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	jobs := make([]*job.Job, 0, len(dtos))
	for _, dto := range dtos {
		j, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}

	return jobs, nil
}

// DeleteCompletedBefore removes Completed jobs that finished before the cutoff.
// Returns the number of deleted rows.
func (r *GormJobRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status = ? AND completed_at < ?", int(job.Completed), cutoff).
		Delete(&JobDTO{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
