package pipelines

import (
	"context"
	"encoding/json"
	"fmt"

	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/ports"
)

// SceneImages renders one illustration per scene, conditioned on the stored
// character reference. Pages render sequentially in page order; the
// generation service rate-limits aggressively enough that fanning out buys
// nothing.
type SceneImages struct {
	uowFactory ports.UnitOfWorkFactory
	generator  ports.Generator
	files      ports.FileStore
}

// NewSceneImages creates the scene images pipeline.
func NewSceneImages(
	uowFactory ports.UnitOfWorkFactory,
	generator ports.Generator,
	files ports.FileStore,
) *SceneImages {
	return &SceneImages{
		uowFactory: uowFactory,
		generator:  generator,
		files:      files,
	}
}

// Run executes the pipeline for one claimed job.
func (p *SceneImages) Run(ctx context.Context, j *job.Job) error {
	b, err := startStep(ctx, p.uowFactory, j.BookID(), job.TypeSceneImages)
	if err != nil {
		return err
	}

	document, err := p.files.Get(ctx, scenePromptsKey(b.ID()))
	if err != nil {
		err = fmt.Errorf("load scene prompts: %w", err)
		failStep(p.uowFactory, b.ID(), job.TypeSceneImages, err)
		return err
	}

	var prompts []ports.ScenePrompt
	if err = json.Unmarshal(document, &prompts); err != nil {
		err = fmt.Errorf("decode scene prompts: %w", err)
		failStep(p.uowFactory, b.ID(), job.TypeSceneImages, err)
		return err
	}

	widthPx, heightPx := scenePixels(b.PrintSpec())
	referenceKey := characterReferenceKey(b.ID())

	for _, prompt := range prompts {
		imageData, genErr := p.generator.GenerateSceneImage(ctx, ports.SceneImageRequest{
			BookID:                b.ID(),
			Page:                  prompt.Page,
			Prompt:                prompt.Prompt,
			CharacterReferenceKey: referenceKey,
			WidthPx:               widthPx,
			HeightPx:              heightPx,
		})
		if genErr != nil {
			genErr = fmt.Errorf("page %d: generate scene image: %w", prompt.Page, genErr)
			failStep(p.uowFactory, b.ID(), job.TypeSceneImages, genErr)
			return genErr
		}

		if putErr := p.files.Put(ctx, sceneImageKey(b.ID(), prompt.Page), imageData); putErr != nil {
			putErr = fmt.Errorf("page %d: store scene image: %w", prompt.Page, putErr)
			failStep(p.uowFactory, b.ID(), job.TypeSceneImages, putErr)
			return putErr
		}
	}

	// The artifact of this stage is the scene directory; the key of the
	// first page stands in for it.
	key := sceneImageKey(b.ID(), 1)
	return completeStep(ctx, p.uowFactory, b.ID(), job.TypeSceneImages, key, false)
}
