package book

import (
	"fmt"
	"time"

	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/pkg/errs"
)

// StepStatus represents the state of one generation stage for a book.
//
// State transitions:
//
//	Pending ──> Running ──> Done
//	               │
//	               └──> StepFailed ──> Running   (retried by the queue)
type StepStatus int

const (
	// StepUnknown represents an invalid or undefined step status.
	StepUnknown StepStatus = iota

	// StepPending is the initial state before the stage's job ran.
	StepPending

	// StepRunning indicates the stage's pipeline is executing.
	StepRunning

	// StepDone indicates the stage produced its artifact.
	StepDone

	// StepFailed indicates the most recent pipeline run for the stage failed.
	StepFailed
)

func getStepStatusStrings() map[StepStatus]string {
	return map[StepStatus]string{
		StepUnknown: "Unknown",
		StepPending: "Pending",
		StepRunning: "Running",
		StepDone:    "Done",
		StepFailed:  "Failed",
	}
}

// String returns the human-readable name of the step status.
func (s StepStatus) String() string {
	if str, ok := getStepStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// Validate checks that the step status is one of the defined states.
func (s StepStatus) Validate() error {
	if s < StepPending || s > StepFailed {
		return errs.NewValueIsInvalidErrorWithCause(
			"step status is invalid",
			fmt.Errorf("%d is not a valid step status", s),
		)
	}
	return nil
}

// Step records the progress of one generation stage for a book. A step that
// finished keeps the file-store key of its produced artifact; a step that
// failed keeps the error message of the latest run.
type Step struct {
	Name        job.Type
	Status      StepStatus
	ArtifactKey string
	Error       string
	UpdatedAt   time.Time
}

// newPendingSteps builds the full pipeline step list in execution order.
func newPendingSteps(now time.Time) []Step {
	order := job.PipelineOrder()
	steps := make([]Step, 0, len(order))
	for _, name := range order {
		steps = append(steps, Step{
			Name:      name,
			Status:    StepPending,
			UpdatedAt: now,
		})
	}
	return steps
}
