package book

import (
	"errors"
	"fmt"
	"time"

	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/domain/model/kernel"
	"storyforge/internal/pkg/errs"
)

var (
	// ErrBookIsNotConstructed is returned when a Book instance was not created
	// through NewBook or RestoreBook. This ensures all books are properly validated.
	ErrBookIsNotConstructed = errors.New("Book must be created via NewBook or RestoreBook constructor")

	// ErrOrderReferenceIsRequired is returned when the storefront order
	// reference is missing.
	ErrOrderReferenceIsRequired = errors.New("order reference is required")

	// ErrChildNameIsRequired is returned when the personalization name is missing.
	ErrChildNameIsRequired = errors.New("child name is required")

	// ErrTitleIsRequired is returned when the book title is missing.
	ErrTitleIsRequired = errors.New("title is required")

	// ErrStepsNotDone is returned by MarkReady while generation work remains.
	ErrStepsNotDone = errors.New("all generation steps must be done before the book is ready")
)

// Page count bounds accepted by the print shop for the picture-book format.
const (
	MinPageCount = 4
	MaxPageCount = 60
)

// Book represents one personalized children's book ordered through the
// storefront. It is the aggregate root the generation pipelines operate on,
// tracking production status, print geometry, and per-stage step progress.
//
// Book follows these invariants:
//   - Must have a valid unique identifier and a non-empty order reference
//   - Page count lies within the printable range
//   - Steps cover every pipeline stage in execution order
//   - A step can start only when every earlier stage is Done
//   - The book becomes Ready only when every step is Done
//   - Can only be created through NewBook or RestoreBook
type Book struct {
	id             kernel.UUID
	orderReference string
	childName      string
	title          string
	status         Status
	pageCount      int
	printSpec      PrintSpec
	steps          []Step

	isConstructed bool
}

// NewBook registers a Draft book configuration with all pipeline steps pending.
func NewBook(
	id kernel.UUID,
	orderReference string,
	childName string,
	title string,
	pageCount int,
	printSpec PrintSpec,
	now time.Time,
) (*Book, error) {
	b := &Book{
		status:        Draft,
		steps:         newPendingSteps(now),
		isConstructed: true,
	}

	if err := errors.Join(
		b.setID(id),
		b.setOrderReference(orderReference),
		b.setChildName(childName),
		b.setTitle(title),
		b.setPageCount(pageCount),
		b.setPrintSpec(printSpec),
	); err != nil {
		return nil, err
	}

	return b, nil
}

// RestoreBook reconstructs a book from persistence.
// Steps must cover every pipeline stage; missing stages are rejected rather
// than silently backfilled.
func RestoreBook(
	id kernel.UUID,
	orderReference string,
	childName string,
	title string,
	status Status,
	pageCount int,
	printSpec PrintSpec,
	steps []Step,
) (*Book, error) {
	b := &Book{
		isConstructed: true,
	}

	if err := errors.Join(
		b.setID(id),
		b.setOrderReference(orderReference),
		b.setChildName(childName),
		b.setTitle(title),
		b.setPageCount(pageCount),
		b.setPrintSpec(printSpec),
		status.Validate(),
	); err != nil {
		return nil, err
	}
	b.status = status

	order := job.PipelineOrder()
	if len(steps) != len(order) {
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"steps are invalid",
			fmt.Errorf("expected %d pipeline steps, got %d", len(order), len(steps)),
		)
	}
	for i, step := range steps {
		if step.Name != order[i] {
			return nil, errs.NewValueIsInvalidErrorWithCause(
				"steps are invalid",
				fmt.Errorf("step %d is %q, expected %q", i, step.Name, order[i]),
			)
		}
		if err := step.Status.Validate(); err != nil {
			return nil, err
		}
	}
	b.steps = append([]Step(nil), steps...)

	return b, nil
}

// Validate ensures the Book was constructed through NewBook or RestoreBook.
func (b *Book) Validate() error {
	if b == nil || !b.isConstructed {
		return ErrBookIsNotConstructed
	}

	return nil
}

// IsEqual compares two books by their unique identifiers.
func (b *Book) IsEqual(other *Book) bool {
	return other != nil && b.id.IsEqual(other.id)
}

// ID returns the book's unique identifier.
func (b *Book) ID() kernel.UUID {
	return b.id
}

// OrderReference returns the storefront order number the book belongs to.
func (b *Book) OrderReference() string {
	return b.orderReference
}

// ChildName returns the personalization name printed throughout the story.
func (b *Book) ChildName() string {
	return b.childName
}

// Title returns the book title.
func (b *Book) Title() string {
	return b.title
}

// Status returns the current production state.
func (b *Book) Status() Status {
	return b.status
}

// PageCount returns the number of interior pages.
func (b *Book) PageCount() int {
	return b.pageCount
}

// PrintSpec returns the physical print geometry.
func (b *Book) PrintSpec() PrintSpec {
	return b.printSpec
}

// Steps returns a copy of the pipeline step list in execution order.
func (b *Book) Steps() []Step {
	return append([]Step(nil), b.steps...)
}

// Step returns the step for a pipeline stage.
func (b *Book) Step(name job.Type) (Step, error) {
	idx := b.stepIndex(name)
	if idx < 0 {
		return Step{}, errs.NewObjectNotFoundError("step", name.String())
	}
	return b.steps[idx], nil
}

// StartStep marks a pipeline stage as running. A stage can start only when
// every earlier stage is Done; re-running a failed or done stage is allowed,
// matching the queue's retry behavior. Starting the first stage moves a Draft
// book to Generating.
func (b *Book) StartStep(name job.Type, now time.Time) error {
	idx := b.stepIndex(name)
	if idx < 0 {
		return errs.NewObjectNotFoundError("step", name.String())
	}

	for i := 0; i < idx; i++ {
		if b.steps[i].Status != StepDone {
			return errs.NewValueIsInvalidErrorWithCause(
				"step order is invalid",
				fmt.Errorf("step %q cannot start before %q is done", name, b.steps[i].Name),
			)
		}
	}

	b.steps[idx].Status = StepRunning
	b.steps[idx].Error = ""
	b.steps[idx].UpdatedAt = now

	if b.status == Draft {
		b.status = Generating
	}
	return nil
}

// CompleteStep marks a running stage as done, recording the artifact key of
// its output.
func (b *Book) CompleteStep(name job.Type, artifactKey string, now time.Time) error {
	idx := b.stepIndex(name)
	if idx < 0 {
		return errs.NewObjectNotFoundError("step", name.String())
	}
	if b.steps[idx].Status != StepRunning {
		return errs.NewValueIsInvalidErrorWithCause(
			"step status is invalid",
			fmt.Errorf("step %q is %s, not Running", name, b.steps[idx].Status),
		)
	}
	if artifactKey == "" {
		return errs.NewValueIsRequiredError("artifact key")
	}

	b.steps[idx].Status = StepDone
	b.steps[idx].ArtifactKey = artifactKey
	b.steps[idx].Error = ""
	b.steps[idx].UpdatedAt = now
	return nil
}

// FailStep marks a running stage as failed with the latest error message.
func (b *Book) FailStep(name job.Type, cause string, now time.Time) error {
	idx := b.stepIndex(name)
	if idx < 0 {
		return errs.NewObjectNotFoundError("step", name.String())
	}
	if b.steps[idx].Status != StepRunning {
		return errs.NewValueIsInvalidErrorWithCause(
			"step status is invalid",
			fmt.Errorf("step %q is %s, not Running", name, b.steps[idx].Status),
		)
	}

	b.steps[idx].Status = StepFailed
	b.steps[idx].Error = cause
	b.steps[idx].UpdatedAt = now
	return nil
}

// MarkReady moves a Generating book whose steps are all Done to Ready.
func (b *Book) MarkReady() error {
	if b.status != Generating {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to mark ready", b.status),
		)
	}
	for _, step := range b.steps {
		if step.Status != StepDone {
			return ErrStepsNotDone
		}
	}

	b.status = Ready
	return nil
}

// MarkPrinted records the print hand-off of a Ready book. Final state.
func (b *Book) MarkPrinted() error {
	if b.status != Ready {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to mark printed", b.status),
		)
	}

	b.status = Printed
	return nil
}

func (b *Book) stepIndex(name job.Type) int {
	for i, step := range b.steps {
		if step.Name == name {
			return i
		}
	}
	return -1
}

func (b *Book) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	b.id = id
	return nil
}

func (b *Book) setOrderReference(orderReference string) error {
	if orderReference == "" {
		return ErrOrderReferenceIsRequired
	}
	b.orderReference = orderReference
	return nil
}

func (b *Book) setChildName(childName string) error {
	if childName == "" {
		return ErrChildNameIsRequired
	}
	b.childName = childName
	return nil
}

func (b *Book) setTitle(title string) error {
	if title == "" {
		return ErrTitleIsRequired
	}
	b.title = title
	return nil
}

func (b *Book) setPageCount(pageCount int) error {
	if pageCount < MinPageCount || pageCount > MaxPageCount {
		return errs.NewValueIsOutOfRangeError("page count", pageCount, MinPageCount, MaxPageCount)
	}
	b.pageCount = pageCount
	return nil
}

func (b *Book) setPrintSpec(printSpec PrintSpec) error {
	if err := printSpec.Validate(); err != nil {
		return err
	}
	b.printSpec = printSpec
	return nil
}
