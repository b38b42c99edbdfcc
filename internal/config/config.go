// Package config loads and validates the sprited configuration from TOML or
// YAML files, applies SPRITED_* environment overrides, and watches the file
// for live reload.
package config

import (
	"errors"
	"fmt"
)

// Validation limits.
const (
	// MaxCanvasSize caps each canvas dimension. Sprites this editor targets
	// are tiny; anything larger is almost certainly a misconfiguration.
	MaxCanvasSize = 1024

	// MaxHistoryCommands caps the history log size.
	MaxHistoryCommands = 100000
)

// Errors returned by config validation.
var (
	// ErrBadCanvasSize indicates a canvas dimension outside 1..MaxCanvasSize.
	ErrBadCanvasSize = errors.New("canvas size out of range")

	// ErrBadHistoryPolicy indicates invalid history tunables.
	ErrBadHistoryPolicy = errors.New("invalid history policy")

	// ErrBadAutosave indicates an invalid autosave section.
	ErrBadAutosave = errors.New("invalid autosave settings")

	// ErrBadLogLevel indicates an unrecognized log level.
	ErrBadLogLevel = errors.New("invalid log level")
)

// Config holds the editor-core settings.
type Config struct {
	Canvas   CanvasConfig   `toml:"canvas" yaml:"canvas"`
	History  HistoryConfig  `toml:"history" yaml:"history"`
	Autosave AutosaveConfig `toml:"autosave" yaml:"autosave"`
	Logging  LoggingConfig  `toml:"logging" yaml:"logging"`
}

// CanvasConfig sizes the pixel surface for new documents.
type CanvasConfig struct {
	Width  int `toml:"width" yaml:"width"`
	Height int `toml:"height" yaml:"height"`
}

// HistoryConfig tunes the undo/redo log.
type HistoryConfig struct {
	MaxCommands    int `toml:"max_commands" yaml:"max_commands"`
	CompressionAge int `toml:"compression_age" yaml:"compression_age"`
}

// AutosaveConfig controls periodic history saves. IntervalSec is in
// seconds.
type AutosaveConfig struct {
	Enabled     bool   `toml:"enabled" yaml:"enabled"`
	IntervalSec int    `toml:"interval_sec" yaml:"interval_sec"`
	Path        string `toml:"path" yaml:"path"`
	Document    string `toml:"document" yaml:"document"`
}

// LoggingConfig controls the shared logger.
type LoggingConfig struct {
	Level string `toml:"level" yaml:"level"`
	File  string `toml:"file" yaml:"file"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Canvas:  CanvasConfig{Width: 32, Height: 32},
		History: HistoryConfig{MaxCommands: 100, CompressionAge: 20},
		Autosave: AutosaveConfig{
			IntervalSec: 30,
			Path:        "history.json",
			Document:    "untitled",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Validate checks the configuration for out-of-range values.
func (c Config) Validate() error {
	if c.Canvas.Width < 1 || c.Canvas.Width > MaxCanvasSize {
		return fmt.Errorf("%w: width %d", ErrBadCanvasSize, c.Canvas.Width)
	}
	if c.Canvas.Height < 1 || c.Canvas.Height > MaxCanvasSize {
		return fmt.Errorf("%w: height %d", ErrBadCanvasSize, c.Canvas.Height)
	}
	if c.History.MaxCommands < 1 || c.History.MaxCommands > MaxHistoryCommands {
		return fmt.Errorf("%w: max_commands %d", ErrBadHistoryPolicy, c.History.MaxCommands)
	}
	if c.History.CompressionAge < 1 {
		return fmt.Errorf("%w: compression_age %d", ErrBadHistoryPolicy, c.History.CompressionAge)
	}
	if c.Autosave.Enabled {
		if c.Autosave.IntervalSec < 1 {
			return fmt.Errorf("%w: interval_sec %d", ErrBadAutosave, c.Autosave.IntervalSec)
		}
		if c.Autosave.Path == "" {
			return fmt.Errorf("%w: empty path", ErrBadAutosave)
		}
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error", "err":
	default:
		return fmt.Errorf("%w: %q", ErrBadLogLevel, c.Logging.Level)
	}
	return nil
}
