package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "SPRITED_"

// ErrUnsupportedFormat indicates a config file extension that is neither
// TOML nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Load reads a config file, applies environment overrides, and validates
// the result. A missing file is not an error: the defaults (plus overrides)
// are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, err
		}
	} else {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			err = toml.Unmarshal(data, &cfg)
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, &cfg)
		default:
			return cfg, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
		}
		if err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays SPRITED_* environment variables onto the config.
func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(EnvPrefix + "LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "LOG_FILE"); ok {
		cfg.Logging.File = v
	}
	if v, ok := lookupInt(EnvPrefix + "CANVAS_WIDTH"); ok {
		cfg.Canvas.Width = v
	}
	if v, ok := lookupInt(EnvPrefix + "CANVAS_HEIGHT"); ok {
		cfg.Canvas.Height = v
	}
	if v, ok := lookupInt(EnvPrefix + "MAX_COMMANDS"); ok {
		cfg.History.MaxCommands = v
	}
	if v, ok := lookupInt(EnvPrefix + "COMPRESSION_AGE"); ok {
		cfg.History.CompressionAge = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "AUTOSAVE_PATH"); ok {
		cfg.Autosave.Path = v
	}
}

func lookupInt(name string) (int, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
