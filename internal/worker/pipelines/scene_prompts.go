package pipelines

import (
	"context"
	"encoding/json"
	"fmt"

	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/ports"
)

// ScenePromptsPayload is the job payload for the scene prompts stage.
type ScenePromptsPayload struct {
	StoryText string `json:"story_text"`
}

// ScenePrompts turns the story into one illustration prompt per scene and
// stores the result as a JSON artifact the later stages read.
type ScenePrompts struct {
	uowFactory ports.UnitOfWorkFactory
	generator  ports.Generator
	files      ports.FileStore
}

// NewScenePrompts creates the scene prompts pipeline.
func NewScenePrompts(
	uowFactory ports.UnitOfWorkFactory,
	generator ports.Generator,
	files ports.FileStore,
) *ScenePrompts {
	return &ScenePrompts{
		uowFactory: uowFactory,
		generator:  generator,
		files:      files,
	}
}

// Run executes the pipeline for one claimed job.
func (p *ScenePrompts) Run(ctx context.Context, j *job.Job) error {
	var payload ScenePromptsPayload
	if err := json.Unmarshal(j.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	b, err := startStep(ctx, p.uowFactory, j.BookID(), job.TypeScenePrompts)
	if err != nil {
		return err
	}

	want := sceneCount(b)
	prompts, err := p.generator.GenerateScenePrompts(ctx, ports.ScenePromptsRequest{
		BookID:    b.ID(),
		ChildName: b.ChildName(),
		Title:     b.Title(),
		PageCount: want,
		StoryText: payload.StoryText,
	})
	if err != nil {
		err = fmt.Errorf("generate scene prompts: %w", err)
		failStep(p.uowFactory, b.ID(), job.TypeScenePrompts, err)
		return err
	}

	if len(prompts) != want {
		err = fmt.Errorf("generator returned %d prompts, book needs %d", len(prompts), want)
		failStep(p.uowFactory, b.ID(), job.TypeScenePrompts, err)
		return err
	}

	document, err := json.Marshal(prompts)
	if err != nil {
		failStep(p.uowFactory, b.ID(), job.TypeScenePrompts, err)
		return err
	}

	key := scenePromptsKey(b.ID())
	if err = p.files.Put(ctx, key, document); err != nil {
		err = fmt.Errorf("store scene prompts: %w", err)
		failStep(p.uowFactory, b.ID(), job.TypeScenePrompts, err)
		return err
	}

	return completeStep(ctx, p.uowFactory, b.ID(), job.TypeScenePrompts, key, false)
}
