package pipelines

import (
	"context"
	"encoding/json"
	"fmt"

	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/ports"
)

// CharacterReferencePayload is the job payload for the character reference
// stage: where the child's photo lives and how to describe them.
type CharacterReferencePayload struct {
	PhotoKey    string `json:"photo_key"`
	Description string `json:"description"`
}

// CharacterReference renders the consistent protagonist image every later
// scene is conditioned on.
type CharacterReference struct {
	uowFactory ports.UnitOfWorkFactory
	generator  ports.Generator
	files      ports.FileStore
}

// NewCharacterReference creates the character reference pipeline.
func NewCharacterReference(
	uowFactory ports.UnitOfWorkFactory,
	generator ports.Generator,
	files ports.FileStore,
) *CharacterReference {
	return &CharacterReference{
		uowFactory: uowFactory,
		generator:  generator,
		files:      files,
	}
}

// Run executes the pipeline for one claimed job.
func (p *CharacterReference) Run(ctx context.Context, j *job.Job) error {
	var payload CharacterReferencePayload
	if err := json.Unmarshal(j.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	b, err := startStep(ctx, p.uowFactory, j.BookID(), job.TypeCharacterReference)
	if err != nil {
		return err
	}

	imageData, err := p.generator.GenerateCharacterReference(ctx, ports.CharacterReferenceRequest{
		BookID:      b.ID(),
		ChildName:   b.ChildName(),
		PhotoKey:    payload.PhotoKey,
		Description: payload.Description,
	})
	if err != nil {
		err = fmt.Errorf("generate character reference: %w", err)
		failStep(p.uowFactory, b.ID(), job.TypeCharacterReference, err)
		return err
	}

	key := characterReferenceKey(b.ID())
	if err = p.files.Put(ctx, key, imageData); err != nil {
		err = fmt.Errorf("store character reference: %w", err)
		failStep(p.uowFactory, b.ID(), job.TypeCharacterReference, err)
		return err
	}

	return completeStep(ctx, p.uowFactory, b.ID(), job.TypeCharacterReference, key, false)
}
