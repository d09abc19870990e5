// Package generation implements the Generator port against the internal
// generation service's HTTP API. The service fronts the actual AI providers;
// this client only speaks JSON over HTTP and stays provider-agnostic.
package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storyforge/internal/core/ports"
)

// Client calls the generation service. All methods block until the service
// responds; callers bound them with their job context.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a generation service client. The zero timeout disables
// the client-level limit so job contexts alone bound request time.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

type characterReferenceRequest struct {
	BookID      string `json:"book_id"`
	ChildName   string `json:"child_name"`
	PhotoKey    string `json:"photo_key"`
	Description string `json:"description"`
}

type imageResponse struct {
	ImageBase64 string `json:"image_base64"`
}

// GenerateCharacterReference renders the character reference image.
func (c *Client) GenerateCharacterReference(
	ctx context.Context, req ports.CharacterReferenceRequest,
) ([]byte, error) {
	var resp imageResponse
	err := c.post(ctx, "/v1/character-reference", characterReferenceRequest{
		BookID:      req.BookID.String(),
		ChildName:   req.ChildName,
		PhotoKey:    req.PhotoKey,
		Description: req.Description,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return decodeImage(resp.ImageBase64)
}

type scenePromptsRequest struct {
	BookID    string `json:"book_id"`
	ChildName string `json:"child_name"`
	Title     string `json:"title"`
	PageCount int    `json:"page_count"`
	StoryText string `json:"story_text"`
}

type scenePromptsResponse struct {
	Prompts []ports.ScenePrompt `json:"prompts"`
}

// GenerateScenePrompts returns one prompt per interior scene, in page order.
func (c *Client) GenerateScenePrompts(
	ctx context.Context, req ports.ScenePromptsRequest,
) ([]ports.ScenePrompt, error) {
	var resp scenePromptsResponse
	err := c.post(ctx, "/v1/scene-prompts", scenePromptsRequest{
		BookID:    req.BookID.String(),
		ChildName: req.ChildName,
		Title:     req.Title,
		PageCount: req.PageCount,
		StoryText: req.StoryText,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return resp.Prompts, nil
}

type sceneImageRequest struct {
	BookID                string `json:"book_id"`
	Page                  int    `json:"page"`
	Prompt                string `json:"prompt"`
	CharacterReferenceKey string `json:"character_reference_key"`
	WidthPx               int    `json:"width_px"`
	HeightPx              int    `json:"height_px"`
}

// GenerateSceneImage renders one page's scene image.
func (c *Client) GenerateSceneImage(
	ctx context.Context, req ports.SceneImageRequest,
) ([]byte, error) {
	var resp imageResponse
	err := c.post(ctx, "/v1/scene-image", sceneImageRequest{
		BookID:                req.BookID.String(),
		Page:                  req.Page,
		Prompt:                req.Prompt,
		CharacterReferenceKey: req.CharacterReferenceKey,
		WidthPx:               req.WidthPx,
		HeightPx:              req.HeightPx,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return decodeImage(resp.ImageBase64)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, detail)
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}

	return nil
}

func decodeImage(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, fmt.Errorf("generation service returned an empty image")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return data, nil
}
