package ports

import (
	"context"

	"storyforge/internal/core/domain/model/job"
	"storyforge/internal/core/domain/model/kernel"
)

// FailedJobInfo carries what operators need to triage a job failure.
type FailedJobInfo struct {
	JobID       kernel.UUID
	BookID      kernel.UUID
	JobType     job.Type
	Attempts    int
	MaxAttempts int
	Terminal    bool
	Error       string
}

// Notifier alerts operators about queue events. Implementations must be safe
// to call from the worker loop; a notification failure never aborts job
// processing.
type Notifier interface {
	// JobFailed reports a failed pipeline run.
	JobFailed(ctx context.Context, info FailedJobInfo) error
}

// CharacterReferenceRequest describes the protagonist to render.
type CharacterReferenceRequest struct {
	BookID      kernel.UUID
	ChildName   string
	PhotoKey    string
	Description string
}

// ScenePromptsRequest asks for per-page scene prompts for a story.
type ScenePromptsRequest struct {
	BookID    kernel.UUID
	ChildName string
	Title     string
	PageCount int
	StoryText string
}

// ScenePrompt is one page's generated prompt plus its narration text.
type ScenePrompt struct {
	Page   int    `json:"page"`
	Prompt string `json:"prompt"`
	Text   string `json:"text"`
}

// SceneImageRequest asks for one page's rendered scene image.
type SceneImageRequest struct {
	BookID                kernel.UUID
	Page                  int
	Prompt                string
	CharacterReferenceKey string
	WidthPx               int
	HeightPx              int
}

// Generator is the internal generation service the pipelines call. It fronts
// whatever AI providers the platform uses; this service only speaks plain
// HTTP to it and never embeds provider SDKs.
type Generator interface {
	// GenerateCharacterReference returns the rendered character reference
	// image (PNG bytes).
	GenerateCharacterReference(ctx context.Context, req CharacterReferenceRequest) ([]byte, error)

	// GenerateScenePrompts returns one prompt per interior page, in page order.
	GenerateScenePrompts(ctx context.Context, req ScenePromptsRequest) ([]ScenePrompt, error)

	// GenerateSceneImage returns one page's rendered scene image (PNG bytes).
	GenerateSceneImage(ctx context.Context, req SceneImageRequest) ([]byte, error)
}

// FileStore persists pipeline artifacts (images, prompt documents, print
// PDFs) under hierarchical keys like "books/<id>/scenes/page-03.png".
type FileStore interface {
	// Put stores a blob under the given key, overwriting any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Get retrieves the blob stored under the key.
	// Returns ObjectNotFoundError when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns the keys stored under the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
