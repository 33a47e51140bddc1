package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

const appDir = "sketchdesk"

// Loader handles loading the configuration.
type Loader struct {
	Path   string                  // explicit config file; empty means the default location
	Getenv func(key string) string // os.Getenv unless overridden
}

// NewLoader creates a new Loader.
func NewLoader(path string) *Loader {
	return &Loader{Path: path, Getenv: os.Getenv}
}

// Load reads the config file, applies environment overrides and validates.
// A missing file at the default location yields defaults; a missing
// explicit file is an error.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	path := l.Path
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if !errors.Is(err, os.ErrNotExist) || explicit {
				return nil, fmt.Errorf("load config %s: %w", path, err)
			}
		}
	}

	l.applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (l *Loader) applyEnv(cfg *Config) {
	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	} else if getenv("DEBUG") == "1" {
		cfg.LogLevel = "debug"
	}
	if v, ok := envBool(getenv("SKETCHDESK_DEV")); ok {
		cfg.DevMode = v
	}
	if v, ok := envBool(getenv("SKETCHDESK_JSON_LOGS")); ok {
		cfg.JSONLogs = v
	}
	if v := getenv("SKETCHDESK_STORE"); v != "" {
		cfg.Store.Backend = v
	}
	if v := getenv("SKETCHDESK_SETTINGS"); v != "" {
		cfg.Store.Path = v
	}
	if v := getenv("SKETCHDESK_DEBUG_ADDR"); v != "" {
		cfg.DebugAddr = v
	}
}

func envBool(v string) (bool, bool) {
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// DefaultPath returns <user config dir>/sketchdesk/config.toml, or "" when
// the config dir cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appDir, "config.toml")
}

// DefaultSettingsPath returns <user config dir>/sketchdesk/settings.json.
func DefaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(dir, appDir, "settings.json"), nil
}

// SettingsPath resolves the settings file location for the file backend.
func (c *Config) SettingsPath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	return DefaultSettingsPath()
}
