package internal

import (
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/frontdate/internal/vcs"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Content    ContentConfig     `yaml:"content"`
	Git        GitConfig         `yaml:"git"`
	Processing ProcessingConfig  `yaml:"processing"`
	Ledger     LedgerConfig      `yaml:"ledger"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if err := c.Git.Validate(); err != nil {
		return err
	}
	return c.Processing.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	// LogLevel accepts slog level names; "DEBUG-4" enables per-file skip messages.
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatText, LogFormatJSON)),
	)
}

// ContentConfig selects which files are processed.
type ContentConfig struct {
	Extension string `yaml:"extension"`
	IndexName string `yaml:"index_name"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Extension, validation.Required),
	)
}

// GitConfig selects the history backend.
type GitConfig struct {
	Backend string `yaml:"backend"`
}

// Validate validates the git configuration.
func (c *GitConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(vcs.BackendGoGit, vcs.BackendExec)),
	)
}

// ProcessingConfig holds worker pool and mode settings.
type ProcessingConfig struct {
	Workers int  `yaml:"workers"`
	Check   bool `yaml:"check"`
}

// Validate validates the processing configuration.
func (c *ProcessingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(256)),
	)
}

// LedgerConfig holds the optional run ledger location. An empty path
// disables the ledger.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether runs should be recorded.
func (c *LedgerConfig) Enabled() bool {
	return c.Path != ""
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatText,
		},
		Content: ContentConfig{
			Extension: ".md",
			IndexName: "_index.md",
		},
		Git: GitConfig{
			Backend: vcs.BackendGoGit,
		},
		Processing: ProcessingConfig{
			Workers: 4,
		},
	}
}
