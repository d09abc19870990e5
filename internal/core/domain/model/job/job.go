package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storyforge/internal/core/domain/model/kernel"
	"storyforge/internal/pkg/errs"
)

var (
	// ErrJobIsNotConstructed is returned when a Job instance was not created
	// through NewJob or RestoreJob. This ensures all jobs are properly validated.
	ErrJobIsNotConstructed = errors.New("Job must be created via NewJob or RestoreJob constructor")

	// ErrWorkerIDIsRequired is returned when a claim is attempted without a worker id.
	ErrWorkerIDIsRequired = errors.New("worker ID is required to claim a job")
)

const (
	// DefaultMaxAttempts bounds how often a job is retried before it reaches
	// the final Failed state.
	DefaultMaxAttempts = 3

	// retryBackoffBase is the delay before the first retry. Each further
	// retry doubles the delay up to retryBackoffCap.
	retryBackoffBase = 30 * time.Second
	retryBackoffCap  = 15 * time.Minute
)

// Job is the queue's unit of work: one pipeline stage to run for one book.
// It is the aggregate root that manages the claim/complete/fail lifecycle the
// worker and the queue maintenance rely on.
//
// Job follows these invariants:
//   - Must have a valid unique identifier and book identifier
//   - Type must name a known pipeline
//   - attempts never exceeds maxAttempts, and maxAttempts is positive
//   - A worker claim (claimedBy/claimedAt) is present exactly while Running
//   - completedAt is set exactly when the job reached a terminal status
//   - Can only be created through NewJob or RestoreJob
type Job struct {
	id          kernel.UUID
	bookID      kernel.UUID
	jobType     Type
	payload     json.RawMessage
	status      Status
	attempts    int
	maxAttempts int
	scheduledAt time.Time
	claimedBy   string
	claimedAt   *time.Time
	lastError   string
	completedAt *time.Time

	isConstructed bool
}

// NewJob creates a Queued job for the given book and pipeline stage.
// The payload is an opaque JSON document interpreted by the pipeline; nil is
// normalized to an empty object. maxAttempts values below 1 fall back to
// DefaultMaxAttempts. scheduledAt controls the earliest claim time.
func NewJob(
	id kernel.UUID,
	bookID kernel.UUID,
	jobType Type,
	payload json.RawMessage,
	maxAttempts int,
	scheduledAt time.Time,
) (*Job, error) {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	j := &Job{
		status:        Queued,
		payload:       payload,
		maxAttempts:   maxAttempts,
		scheduledAt:   scheduledAt,
		isConstructed: true,
	}

	if err := errors.Join(
		j.setID(id),
		j.setBookID(bookID),
		j.setType(jobType),
	); err != nil {
		return nil, err
	}

	return j, nil
}

// RestoreJob reconstructs a job from persistence. All state is taken as-is
// after validating identifiers, type, status, and the claim/status consistency
// rules.
func RestoreJob(
	id kernel.UUID,
	bookID kernel.UUID,
	jobType Type,
	payload json.RawMessage,
	status Status,
	attempts int,
	maxAttempts int,
	scheduledAt time.Time,
	claimedBy string,
	claimedAt *time.Time,
	lastError string,
	completedAt *time.Time,
) (*Job, error) {
	j := &Job{
		payload:       payload,
		attempts:      attempts,
		maxAttempts:   maxAttempts,
		scheduledAt:   scheduledAt,
		claimedBy:     claimedBy,
		claimedAt:     claimedAt,
		lastError:     lastError,
		completedAt:   completedAt,
		isConstructed: true,
	}

	if err := errors.Join(
		j.setID(id),
		j.setBookID(bookID),
		j.setType(jobType),
		status.Validate(),
		status.ValidateCanHaveClaim(claimedBy != ""),
	); err != nil {
		return nil, err
	}
	j.status = status

	if maxAttempts < 1 {
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"maxAttempts is invalid",
			fmt.Errorf("%d is not greater than 0", maxAttempts),
		)
	}
	if attempts < 0 || attempts > maxAttempts {
		return nil, errs.NewValueIsOutOfRangeError("attempts", attempts, 0, maxAttempts)
	}

	return j, nil
}

// Validate ensures the Job was constructed through NewJob or RestoreJob.
func (j *Job) Validate() error {
	if j == nil || !j.isConstructed {
		return ErrJobIsNotConstructed
	}

	return nil
}

// IsEqual compares two jobs by their unique identifiers.
func (j *Job) IsEqual(other *Job) bool {
	return other != nil && j.id.IsEqual(other.id)
}

// ID returns the job's unique identifier.
func (j *Job) ID() kernel.UUID {
	return j.id
}

// BookID returns the identifier of the book the job works on.
func (j *Job) BookID() kernel.UUID {
	return j.bookID
}

// Type returns the pipeline stage the job executes.
func (j *Job) Type() Type {
	return j.jobType
}

// Payload returns the opaque JSON payload interpreted by the pipeline.
func (j *Job) Payload() json.RawMessage {
	return j.payload
}

// Status returns the current lifecycle state.
func (j *Job) Status() Status {
	return j.status
}

// Attempts returns how many times the job has been claimed.
func (j *Job) Attempts() int {
	return j.attempts
}

// MaxAttempts returns the retry bound.
func (j *Job) MaxAttempts() int {
	return j.maxAttempts
}

// ScheduledAt returns the earliest time the job may be claimed.
func (j *Job) ScheduledAt() time.Time {
	return j.scheduledAt
}

// ClaimedBy returns the claiming worker's identifier, empty when unclaimed.
func (j *Job) ClaimedBy() string {
	return j.claimedBy
}

// ClaimedAt returns when the current claim was taken, nil when unclaimed.
func (j *Job) ClaimedAt() *time.Time {
	return j.claimedAt
}

// LastError returns the message recorded by the most recent failure.
func (j *Job) LastError() string {
	return j.lastError
}

// CompletedAt returns when the job reached a terminal status, nil otherwise.
func (j *Job) CompletedAt() *time.Time {
	return j.completedAt
}

// Claim transitions the job to Running on behalf of a worker.
// It records the worker identity and claim time and consumes one attempt.
// Only Queued jobs whose scheduled time is due can be claimed; the repository
// query enforces due-ness, the state machine enforces the status.
func (j *Job) Claim(workerID string, now time.Time) error {
	if workerID == "" {
		return ErrWorkerIDIsRequired
	}
	if j.attempts >= j.maxAttempts {
		return errs.NewValueIsInvalidErrorWithCause(
			"attempts is invalid",
			fmt.Errorf("job already consumed all %d attempts", j.maxAttempts),
		)
	}

	newStatus, err := j.status.Claim()
	if err != nil {
		return err
	}

	j.status = newStatus
	j.attempts++
	j.claimedBy = workerID
	j.claimedAt = &now
	return nil
}

// Complete marks the claimed job as successfully finished. Final state.
func (j *Job) Complete(now time.Time) error {
	newStatus, err := j.status.Complete()
	if err != nil {
		return err
	}

	j.status = newStatus
	j.clearClaim()
	j.completedAt = &now
	return nil
}

// Fail records a pipeline failure. While attempts remain the job returns to
// Queued with its scheduled time pushed back by an exponential backoff;
// otherwise it reaches the final Failed state.
func (j *Job) Fail(cause string, now time.Time) error {
	attemptsLeft := j.attempts < j.maxAttempts

	newStatus, err := j.status.Fail(attemptsLeft)
	if err != nil {
		return err
	}

	j.status = newStatus
	j.lastError = cause
	j.clearClaim()

	if attemptsLeft {
		j.scheduledAt = now.Add(retryBackoff(j.attempts))
		return nil
	}

	j.completedAt = &now
	return nil
}

// FailPermanently moves a Running job straight to Failed regardless of
// remaining attempts. Used when retrying cannot help, such as an unknown job
// type or an unparseable payload.
func (j *Job) FailPermanently(cause string, now time.Time) error {
	if _, err := j.status.Fail(false); err != nil {
		return err
	}

	j.status = Failed
	j.lastError = cause
	j.clearClaim()
	j.completedAt = &now
	return nil
}

// Cancel withdraws a Queued job before any worker claims it. Final state.
func (j *Job) Cancel(now time.Time) error {
	newStatus, err := j.status.Cancel()
	if err != nil {
		return err
	}

	j.status = newStatus
	j.completedAt = &now
	return nil
}

// Release returns a Running job with an expired claim to the queue.
// The attempt spent by the dead worker stays consumed. A job that goes stale
// with no attempts left can never be claimed again, so it terminally fails
// here instead of sitting Queued at the head of the claim order.
func (j *Job) Release(now time.Time) error {
	cause := fmt.Sprintf("claim by worker %q expired", j.claimedBy)

	if j.attempts >= j.maxAttempts {
		newStatus, err := j.status.Fail(false)
		if err != nil {
			return err
		}

		j.status = newStatus
		j.lastError = cause
		j.clearClaim()
		j.completedAt = &now
		return nil
	}

	newStatus, err := j.status.Release()
	if err != nil {
		return err
	}

	j.status = newStatus
	j.lastError = cause
	j.clearClaim()
	j.scheduledAt = now
	return nil
}

// IsStale reports whether the job is Running under a claim taken before the
// given deadline.
func (j *Job) IsStale(deadline time.Time) bool {
	return j.status == Running && j.claimedAt != nil && j.claimedAt.Before(deadline)
}

func (j *Job) clearClaim() {
	j.claimedBy = ""
	j.claimedAt = nil
}

// retryBackoff returns the delay before retry number attempt (1-based count
// of claims already consumed): 30s, 60s, 120s, ... capped at 15 minutes.
func retryBackoff(attempt int) time.Duration {
	d := retryBackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= retryBackoffCap {
			return retryBackoffCap
		}
	}
	return d
}

func (j *Job) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	j.id = id
	return nil
}

func (j *Job) setBookID(bookID kernel.UUID) error {
	if err := bookID.Validate(); err != nil {
		return err
	}
	j.bookID = bookID
	return nil
}

func (j *Job) setType(jobType Type) error {
	if err := jobType.Validate(); err != nil {
		return err
	}
	j.jobType = jobType
	return nil
}
