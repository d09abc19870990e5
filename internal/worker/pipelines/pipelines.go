// Package pipelines contains the per-stage generation pipelines the worker
// dispatches jobs to. Each pipeline moves one book step from Pending through
// Running to Done or Failed, storing its artifact in the file store under a
// key derived from the book ID.
package pipelines

import (
	"context"
	"fmt"
	"time"

	"storyforge/internal/core/domain/model/book"
	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/domain/model/kernel"
	"storyforge/internal/core/ports"
)

// Artifact key layout under the file store root.
func characterReferenceKey(bookID kernel.UUID) string {
	return fmt.Sprintf("books/%s/character-reference.png", bookID)
}

func scenePromptsKey(bookID kernel.UUID) string {
	return fmt.Sprintf("books/%s/scene-prompts.json", bookID)
}

func sceneImageKey(bookID kernel.UUID, page int) string {
	return fmt.Sprintf("books/%s/scenes/page-%02d.png", bookID, page)
}

func coverImageKey(bookID kernel.UUID) string {
	return fmt.Sprintf("books/%s/cover.png", bookID)
}

func interiorPDFKey(bookID kernel.UUID) string {
	return fmt.Sprintf("books/%s/print/interior.pdf", bookID)
}

func coverPDFKey(bookID kernel.UUID) string {
	return fmt.Sprintf("books/%s/print/cover.pdf", bookID)
}

// startStep marks the book step Running in its own transaction and returns
// the book so the pipeline can read its configuration.
func startStep(
	ctx context.Context,
	uowFactory ports.UnitOfWorkFactory,
	bookID kernel.UUID,
	step job.Type,
) (*book.Book, error) {
	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	b, err := uow.BookRepository().Get(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if err = b.StartStep(step, time.Now()); err != nil {
		return nil, err
	}

	if err = uow.BookRepository().Update(ctx, b); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return b, nil
}

// completeStep marks the book step Done with its artifact key. When finalize
// is set the book is also marked Ready, which requires every step Done.
func completeStep(
	ctx context.Context,
	uowFactory ports.UnitOfWorkFactory,
	bookID kernel.UUID,
	step job.Type,
	artifactKey string,
	finalize bool,
) error {
	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	b, err := uow.BookRepository().Get(ctx, bookID)
	if err != nil {
		return err
	}

	if err = b.CompleteStep(step, artifactKey, time.Now()); err != nil {
		return err
	}

	if finalize {
		if err = b.MarkReady(); err != nil {
			return err
		}
	}

	if err = uow.BookRepository().Update(ctx, b); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

// failStep records a step failure. Uses context.Background so the failure is
// persisted even when the pipeline's own context already expired.
func failStep(
	uowFactory ports.UnitOfWorkFactory,
	bookID kernel.UUID,
	step job.Type,
	cause error,
) {
	ctx := context.Background()

	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	b, err := uow.BookRepository().Get(ctx, bookID)
	if err != nil {
		return
	}

	if err = b.FailStep(step, cause.Error(), time.Now()); err != nil {
		return
	}

	if err = uow.BookRepository().Update(ctx, b); err != nil {
		return
	}

	_ = uow.Commit(ctx)
}

// sceneCount derives how many illustrated scenes a book has. Every scene
// occupies two interior pages, a text page and an image page.
func sceneCount(b *book.Book) int {
	return b.PageCount() / 2
}

// scenePixels converts the physical page size to render dimensions at the
// book's DPI, bleed included.
func scenePixels(spec book.PrintSpec) (width, height int) {
	const cmPerInch = 2.54
	width = int(spec.PageWidthCM() / cmPerInch * float64(spec.DPI()))
	height = int(spec.PageHeightCM() / cmPerInch * float64(spec.DPI()))
	return width, height
}
