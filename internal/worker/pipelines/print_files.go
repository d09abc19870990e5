package pipelines

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storyforge/internal/core/domain/model/book"
	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/domain/model/kernel"
	"storyforge/internal/core/ports"
	"storyforge/internal/pkg/errs"
	"storyforge/internal/print"
)

// PrintFiles composes the interior and cover PDFs from the stored scene
// prompts and images, validates both, and marks the book ready for print.
type PrintFiles struct {
	uowFactory ports.UnitOfWorkFactory
	files      ports.FileStore
}

// NewPrintFiles creates the print files pipeline.
func NewPrintFiles(uowFactory ports.UnitOfWorkFactory, files ports.FileStore) *PrintFiles {
	return &PrintFiles{
		uowFactory: uowFactory,
		files:      files,
	}
}

// Run executes the pipeline for one claimed job.
func (p *PrintFiles) Run(ctx context.Context, j *job.Job) error {
	b, err := startStep(ctx, p.uowFactory, j.BookID(), job.TypePrintFiles)
	if err != nil {
		return err
	}

	scenes, err := p.loadScenes(ctx, b.ID())
	if err != nil {
		failStep(p.uowFactory, b.ID(), job.TypePrintFiles, err)
		return err
	}

	spec := b.PrintSpec()

	interior, err := print.BuildInterior(spec, scenes)
	if err != nil {
		err = fmt.Errorf("build interior: %w", err)
		failStep(p.uowFactory, b.ID(), job.TypePrintFiles, err)
		return err
	}

	if err = print.Validate(interior, 2*len(scenes)); err != nil {
		err = fmt.Errorf("validate interior: %w", err)
		failStep(p.uowFactory, b.ID(), job.TypePrintFiles, err)
		return err
	}

	cover, err := p.buildCover(ctx, b.ID(), b.Title(), spec, scenes)
	if err != nil {
		failStep(p.uowFactory, b.ID(), job.TypePrintFiles, err)
		return err
	}

	if err = p.files.Put(ctx, interiorPDFKey(b.ID()), interior); err != nil {
		err = fmt.Errorf("store interior pdf: %w", err)
		failStep(p.uowFactory, b.ID(), job.TypePrintFiles, err)
		return err
	}

	if err = p.files.Put(ctx, coverPDFKey(b.ID()), cover); err != nil {
		err = fmt.Errorf("store cover pdf: %w", err)
		failStep(p.uowFactory, b.ID(), job.TypePrintFiles, err)
		return err
	}

	return completeStep(ctx, p.uowFactory, b.ID(), job.TypePrintFiles, interiorPDFKey(b.ID()), true)
}

// loadScenes pairs each stored scene prompt text with its rendered image,
// in page order.
func (p *PrintFiles) loadScenes(ctx context.Context, bookID kernel.UUID) ([]print.Scene, error) {
	document, err := p.files.Get(ctx, scenePromptsKey(bookID))
	if err != nil {
		return nil, fmt.Errorf("load scene prompts: %w", err)
	}

	var prompts []ports.ScenePrompt
	if err = json.Unmarshal(document, &prompts); err != nil {
		return nil, fmt.Errorf("decode scene prompts: %w", err)
	}

	if len(prompts) == 0 {
		return nil, fmt.Errorf("no scene prompts stored for book %s", bookID)
	}

	scenes := make([]print.Scene, 0, len(prompts))

	for _, prompt := range prompts {
		imageData, getErr := p.files.Get(ctx, sceneImageKey(bookID, prompt.Page))
		if getErr != nil {
			return nil, fmt.Errorf("page %d: load scene image: %w", prompt.Page, getErr)
		}

		scenes = append(scenes, print.Scene{
			Text:  prompt.Text,
			Image: imageData,
		})
	}

	return scenes, nil
}

// buildCover prefers a dedicated cover illustration and falls back to the
// first scene image when none was generated.
func (p *PrintFiles) buildCover(
	ctx context.Context,
	bookID kernel.UUID,
	title string,
	spec book.PrintSpec,
	scenes []print.Scene,
) ([]byte, error) {
	coverImage, err := p.files.Get(ctx, coverImageKey(bookID))
	if err != nil {
		if !errors.Is(err, errs.ErrObjectNotFound) {
			return nil, fmt.Errorf("load cover image: %w", err)
		}

		coverImage = scenes[0].Image
	}

	cover, err := print.BuildCover(spec, title, coverImage)
	if err != nil {
		return nil, fmt.Errorf("build cover: %w", err)
	}

	if err = print.Validate(cover, 1); err != nil {
		return nil, fmt.Errorf("validate cover: %w", err)
	}

	return cover, nil
}
