package book

import (
	"fmt"

	"storyforge/internal/pkg/errs"
)

// Status represents the production state of a personalized book.
//
// State transitions:
//
//	Draft ──> Generating ──> Ready ──> Printed
//
// Draft books have no generation work started yet; Generating books have at
// least one pipeline stage running or finished; Ready books have all print
// files produced; Printed is the final state after print hand-off.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	Unknown Status = iota

	// Draft is the initial status after the book configuration is registered.
	Draft

	// Generating indicates at least one generation stage has started.
	Generating

	// Ready indicates all pipeline stages are done and print files exist.
	Ready

	// Printed indicates the book was handed off to the printer. Final state.
	Printed
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:    "Unknown",
		Draft:      "Draft",
		Generating: "Generating",
		Ready:      "Ready",
		Printed:    "Printed",
	}
}

func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // Unknown is intentionally excluded as it's invalid
	return map[Status]string{
		Draft:      "Draft",
		Generating: "Generating",
		Ready:      "Ready",
		Printed:    "Printed",
	}
}

// Validate checks that the Status is one of the defined production states.
func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the human-readable name of the status.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}
