// Package telegram implements the operator notifier on top of the Telegram
// Bot API. With no token configured the notifier degrades to a no-op, which
// keeps local development free of external calls.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"storyforge/internal/core/ports"
)

const defaultAPIBaseURL = "https://api.telegram.org"

// Notifier sends queue failure alerts to a Telegram chat.
type Notifier struct {
	httpClient *http.Client
	baseURL    string
	token      string
	chatID     string
	logger     *slog.Logger
}

// NewNotifier creates a Telegram notifier. An empty token disables sending.
func NewNotifier(token, chatID string, logger *slog.Logger) *Notifier {
	return &Notifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultAPIBaseURL,
		token:      token,
		chatID:     chatID,
		logger:     logger.With("component", "telegram_notifier"),
	}
}

// WithBaseURL overrides the Bot API endpoint. Used by tests.
func (n *Notifier) WithBaseURL(baseURL string) *Notifier {
	n.baseURL = baseURL
	return n
}

// JobFailed posts a failure summary to the configured chat.
func (n *Notifier) JobFailed(ctx context.Context, info ports.FailedJobInfo) error {
	if n.token == "" {
		n.logger.Debug("notifier disabled, skipping alert",
			"job_id", info.JobID.String(),
			"job_type", info.JobType.String())
		return nil
	}

	return n.sendMessage(ctx, formatFailure(info))
}

func formatFailure(info ports.FailedJobInfo) string {
	headline := "Job failed, will retry"
	if info.Terminal {
		headline = "Job failed permanently"
	}

	return fmt.Sprintf(
		"%s\nType: %s\nJob: %s\nBook: %s\nAttempt: %d/%d\nError: %s",
		headline,
		info.JobType,
		info.JobID,
		info.BookID,
		info.Attempts,
		info.MaxAttempts,
		info.Error,
	)
}

func (n *Notifier) sendMessage(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{
		"chat_id": n.chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("encode telegram message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram api returned %d: %s", resp.StatusCode, detail)
	}

	return nil
}
