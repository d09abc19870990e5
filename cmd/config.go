package cmd

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config carries every runtime setting of the service. Values come from the
// environment; see cmd/app for the loading defaults.
type Config struct {
	HTTPPort   string `validate:"required"`
	DBHost     string `validate:"required"`
	DBPort     string `validate:"required"`
	DBUser     string `validate:"required"`
	DBPassword string `validate:"required"`
	DBName     string `validate:"required"`
	DBSslMode  string `validate:"required"`

	WorkerID          string        `validate:"required"`
	WorkerConcurrency int           `validate:"min=1"`
	PollInterval      time.Duration `validate:"min=1s"`
	JobTimeout        time.Duration `validate:"min=1s"`
	ShutdownTimeout   time.Duration `validate:"min=1s"`
	StaleJobAfter     time.Duration `validate:"min=1m"`
	JobRetention      time.Duration `validate:"min=1h"`

	GenerationBaseURL string        `validate:"required,url"`
	GenerationAPIKey  string        `validate:"omitempty"`
	GenerationTimeout time.Duration `validate:"min=1s"`

	// Telegram alerts are optional; leave the token empty to disable them.
	TelegramToken  string
	TelegramChatID string `validate:"required_with=TelegramToken"`

	FileStoreDir string `validate:"required"`
}

// Validate checks the configuration for completeness and sane ranges.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DSN builds the Postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode,
	)
}
