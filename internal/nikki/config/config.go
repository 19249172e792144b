// Package config loads nikki's configuration: an optional YAML file
// (NIKKI_CONFIG) overlaid by environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bdobrica/nikki/common/environment"
	"github.com/bdobrica/nikki/internal/nikki/dispatch"
	"github.com/bdobrica/nikki/internal/nikki/scheduler"
)

// Journal storage backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Config is the complete runtime configuration.
type Config struct {
	Matrix    MatrixConfig      `yaml:"matrix"`
	Store     StoreConfig       `yaml:"store"`
	Checkin   CheckinConfig     `yaml:"checkin"`
	Messages  dispatch.Messages `yaml:"messages"`
	HTTPAddr  string            `yaml:"http_addr"`
	LogLevel  string            `yaml:"log_level"`
	LogFormat string            `yaml:"log_format"`
}

type MatrixConfig struct {
	Homeserver   string   `yaml:"homeserver"`
	UserID       string   `yaml:"user_id"`
	AccessToken  string   `yaml:"access_token"`
	AllowedUsers []string `yaml:"allowed_users"`
}

type StoreConfig struct {
	Backend      string `yaml:"backend"`
	DatabasePath string `yaml:"database_path"`
	JournalFile  string `yaml:"journal_file"`
}

type CheckinConfig struct {
	Schedule      string        `yaml:"schedule"`
	Expiry        time.Duration `yaml:"expiry"`
	PreviewLength int           `yaml:"preview_length"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:      BackendSQLite,
			DatabasePath: "./nikki.db",
			JournalFile:  "./data/journals.json",
		},
		Checkin: CheckinConfig{
			Schedule:      scheduler.DefaultSchedule,
			Expiry:        dispatch.DefaultCheckinExpiry,
			PreviewLength: dispatch.DefaultPreviewLength,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load builds the configuration from NIKKI_CONFIG (if set) and the
// environment, then validates it.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("NIKKI_CONFIG"); path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads a YAML file over the defaults. Unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables that are set.
func (c *Config) ApplyEnv() error {
	environment.OverrideString("MATRIX_HOMESERVER", &c.Matrix.Homeserver)
	environment.OverrideString("MATRIX_USER_ID", &c.Matrix.UserID)
	environment.OverrideString("MATRIX_ACCESS_TOKEN", &c.Matrix.AccessToken)
	environment.OverrideStringSlice("NIKKI_ALLOWED_USERS", &c.Matrix.AllowedUsers)

	environment.OverrideString("NIKKI_STORE", &c.Store.Backend)
	environment.OverrideString("DATABASE_PATH", &c.Store.DatabasePath)
	environment.OverrideString("NIKKI_JOURNAL_FILE", &c.Store.JournalFile)

	environment.OverrideString("NIKKI_CHECKIN_SCHEDULE", &c.Checkin.Schedule)
	if err := environment.OverrideDuration("NIKKI_CHECKIN_EXPIRY", &c.Checkin.Expiry); err != nil {
		return err
	}
	if err := environment.OverrideInt("NIKKI_PREVIEW_LENGTH", &c.Checkin.PreviewLength); err != nil {
		return err
	}

	environment.OverrideString("HTTP_ADDR", &c.HTTPAddr)
	environment.OverrideString("LOG_LEVEL", &c.LogLevel)
	environment.OverrideString("LOG_FORMAT", &c.LogFormat)
	return nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Matrix.Homeserver == "" {
		errs = append(errs, errors.New("MATRIX_HOMESERVER is required"))
	}
	if c.Matrix.UserID == "" {
		errs = append(errs, errors.New("MATRIX_USER_ID is required"))
	}
	if c.Matrix.AccessToken == "" {
		errs = append(errs, errors.New("MATRIX_ACCESS_TOKEN is required"))
	}

	switch c.Store.Backend {
	case BackendSQLite:
		if c.Store.DatabasePath == "" {
			errs = append(errs, errors.New("database path is required for the sqlite store"))
		}
	case BackendFile:
		if c.Store.JournalFile == "" {
			errs = append(errs, errors.New("journal file is required for the file store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q (want %q or %q)", c.Store.Backend, BackendSQLite, BackendFile))
	}

	if _, err := scheduler.Parse(c.Checkin.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("check-in schedule: %w", err))
	}
	if c.Checkin.Expiry <= 0 {
		errs = append(errs, fmt.Errorf("check-in expiry must be positive, got %s", c.Checkin.Expiry))
	}
	if c.Checkin.PreviewLength < 1 {
		errs = append(errs, fmt.Errorf("preview length must be at least 1, got %d", c.Checkin.PreviewLength))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
