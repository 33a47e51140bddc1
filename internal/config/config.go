// Package config loads SketchDesk settings from a TOML file and the
// environment.
package config

import (
	"fmt"
	"time"

	"sketchdesk/internal/bridge"
	"sketchdesk/internal/logger"
)

// Store backends
const (
	StoreFile        = "file"
	StorePreferences = "preferences"
)

// Duration decodes TOML strings such as "30s" into a time.Duration.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// StoreConfig selects and tunes the host-side settings store.
type StoreConfig struct {
	Backend  string   `toml:"backend"`
	Path     string   `toml:"path"`
	AutoSave Duration `toml:"auto_save"`
}

// BridgeConfig controls what happens when a preference write fails.
type BridgeConfig struct {
	OnFailure     string   `toml:"on_failure"`
	MaxRetries    int      `toml:"max_retries"`
	RetryInterval Duration `toml:"retry_interval"`
}

// WindowConfig holds the initial window geometry.
type WindowConfig struct {
	Width                   float32 `toml:"width"`
	Height                  float32 `toml:"height"`
	DockedSidebarBreakpoint float32 `toml:"docked_sidebar_breakpoint"`
}

// Config holds the application configuration.
type Config struct {
	LogLevel  string       `toml:"log_level"`
	JSONLogs  bool         `toml:"json_logs"`
	DevMode   bool         `toml:"dev_mode"`
	DebugAddr string       `toml:"debug_addr"`
	Store     StoreConfig  `toml:"store"`
	Bridge    BridgeConfig `toml:"bridge"`
	Window    WindowConfig `toml:"window"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Store: StoreConfig{
			Backend:  StoreFile,
			AutoSave: Duration{30 * time.Second},
		},
		Bridge: BridgeConfig{
			OnFailure:     string(bridge.PolicyKeep),
			MaxRetries:    0,
			RetryInterval: Duration{500 * time.Millisecond},
		},
		Window: WindowConfig{
			Width:                   1280,
			Height:                  800,
			DockedSidebarBreakpoint: 1020,
		},
	}
}

// Level parses LogLevel.
func (c *Config) Level() logger.LogLevel {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return logger.InfoLevel
	}
	return level
}

// Validate rejects values the application cannot run with.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch c.Store.Backend {
	case StoreFile, StorePreferences:
	default:
		return fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend)
	}
	if c.Store.AutoSave.Duration < 0 {
		return fmt.Errorf("store.auto_save: must not be negative")
	}
	if _, err := bridge.ParsePolicy(c.Bridge.OnFailure); err != nil {
		return fmt.Errorf("bridge.on_failure: %w", err)
	}
	if c.Bridge.MaxRetries < 0 {
		return fmt.Errorf("bridge.max_retries: must not be negative")
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window: width and height must be positive")
	}
	return nil
}
