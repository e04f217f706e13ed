package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModePasscode = "passcode"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Export ExportConfig      `yaml:"export"`
	Inbox  InboxConfig       `yaml:"inbox"`
	Events EventsConfig      `yaml:"events"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Export.Validate(); err != nil {
		return err
	}
	if err := c.Events.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ExportConfig holds the directory Markdown exports are written to.
type ExportConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the export configuration.
func (c *ExportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// InboxConfig holds the directory watched for Markdown entries to import.
// An empty path disables the inbox.
type InboxConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether an inbox directory is configured.
func (c *InboxConfig) Enabled() bool {
	return c.Path != ""
}

// EventsConfig tunes the server-sent event stream.
type EventsConfig struct {
	StatsThrottle time.Duration `yaml:"stats_throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.StatsThrottle, validation.Min(time.Duration(0))),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): the API never asks for a session token.
//   - "passcode": once a passcode is set, requests need the token returned by
//     POST /api/session/unlock.
type AuthConfig struct {
	Mode string `yaml:"mode"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModePasscode)),
	)
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModePasscode
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./dagaz.db",
		},
		Export: ExportConfig{
			Path: "./exports",
		},
		Events: EventsConfig{
			StatsThrottle: 2 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
