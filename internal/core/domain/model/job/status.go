package job

import (
	"fmt"
	"strings"

	"storyforge/internal/pkg/errs"
)

// Status represents the lifecycle state of a queued job.
// It implements a state machine with defined transitions so that jobs always
// follow the claim/complete/fail workflow enforced by the queue.
//
// State transitions:
//
//	Queued ──claim──> Running ──complete──> Completed
//	   │ ▲               │
//	   │ └──fail (attempts left)──┘
//	   │                 │
//	   │                 └──fail (attempts exhausted)──> Failed
//	   └──cancel──> Cancelled
//
// Completed, Failed, and Cancelled are final states.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Queued is the initial status. Jobs in this status wait to be claimed by
	// a worker once their scheduled time is due.
	Queued

	// Running indicates the job has been claimed by a worker and its pipeline
	// is executing.
	Running

	// Completed indicates the pipeline finished successfully. Final state.
	Completed

	// Failed indicates the job exhausted its attempts. Final state.
	Failed

	// Cancelled indicates the job was withdrawn before being claimed. Final state.
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "Unknown",
		Queued:    "Queued",
		Running:   "Running",
		Completed: "Completed",
		Failed:    "Failed",
		Cancelled: "Cancelled",
	}
}

func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // Unknown is intentionally excluded as it's invalid
	return map[Status]string{
		Queued:    "Queued",
		Running:   "Running",
		Completed: "Completed",
		Failed:    "Failed",
		Cancelled: "Cancelled",
	}
}

// Validate checks that the Status is one of the defined lifecycle states.
// Unknown (0) and out-of-range values are invalid.
func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the human-readable name of the status.
// It implements fmt.Stringer and is safe on any value, including invalid ones.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// StatusFromString parses a status by its human-readable name.
// Matching is case-insensitive so API filters accept "queued" and "Queued" alike.
func StatusFromString(s string) (Status, error) {
	for status, name := range getValidStatusStrings() {
		if strings.EqualFold(name, s) {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause(
		"status is invalid",
		fmt.Errorf("%q is not a valid status", s),
	)
}

// IsTerminal reports whether the status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Failed || s == Cancelled
}

// Claim transitions the status to Running.
// Only Queued jobs can be claimed.
func (s Status) Claim() (Status, error) {
	if s != Queued {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to claim", s.String()),
		)
	}

	return Running, nil
}

// Complete transitions the status to Completed.
// Only Running jobs can complete.
func (s Status) Complete() (Status, error) {
	if s != Running {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to complete", s.String()),
		)
	}

	return Completed, nil
}

// Fail transitions the status after a pipeline failure.
// Running jobs return to Queued while attempts remain, otherwise they reach
// the final Failed state.
func (s Status) Fail(attemptsLeft bool) (Status, error) {
	if s != Running {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to fail", s.String()),
		)
	}

	if attemptsLeft {
		return Queued, nil
	}
	return Failed, nil
}

// Cancel transitions the status to Cancelled.
// Only Queued jobs can be cancelled; claimed work must run to completion.
func (s Status) Cancel() (Status, error) {
	if s != Queued {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to cancel", s.String()),
		)
	}

	return Cancelled, nil
}

// Release transitions the status back to Queued when a worker claim went
// stale. Only Running jobs can be released.
func (s Status) Release() (Status, error) {
	if s != Running {
		return 0, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to release", s.String()),
		)
	}

	return Queued, nil
}

// ValidateCanHaveClaim validates the consistency between job status and the
// presence of a worker claim. Only Running jobs carry a claim.
func (s Status) ValidateCanHaveClaim(claimed bool) error {
	if claimed && s != Running {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to have a worker claim", s.String()),
		)
	}

	if !claimed && s == Running {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to have no worker claim", s.String()),
		)
	}

	return nil
}
