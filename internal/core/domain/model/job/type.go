package job

import (
	"fmt"

	"storyforge/internal/pkg/errs"
)

// Type identifies which pipeline a job executes. The set is closed: jobs with
// an unrecognized type never reach a worker.
type Type string

const (
	// TypeCharacterReference generates the character reference image for a
	// book's protagonist from the uploaded child photo and description.
	TypeCharacterReference Type = "character_reference"

	// TypeScenePrompts generates the per-page scene prompts for a book.
	TypeScenePrompts Type = "scene_prompts"

	// TypeSceneImages renders the per-page scene images from the prompts and
	// the character reference.
	TypeSceneImages Type = "scene_images"

	// TypePrintFiles assembles the print-ready interior and cover PDFs.
	TypePrintFiles Type = "print_files"
)

// PipelineOrder lists all job types in pipeline execution order. Each stage
// depends on the artifacts of every stage before it.
func PipelineOrder() []Type {
	return []Type{
		TypeCharacterReference,
		TypeScenePrompts,
		TypeSceneImages,
		TypePrintFiles,
	}
}

// Validate checks that the type names a known pipeline.
func (t Type) Validate() error {
	for _, known := range PipelineOrder() {
		if t == known {
			return nil
		}
	}
	return errs.NewValueIsInvalidErrorWithCause("job type is invalid", fmt.Errorf("%q is not a known job type", string(t)))
}

// String returns the wire name of the job type.
func (t Type) String() string {
	return string(t)
}

// StageIndex returns the position of the type within the pipeline order.
// It returns -1 for unknown types.
func (t Type) StageIndex() int {
	for i, known := range PipelineOrder() {
		if t == known {
			return i
		}
	}
	return -1
}
