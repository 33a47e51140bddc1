// Package settings is the host-side key/value store that persists the view
// preferences between runs.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"

	"sketchdesk/internal/logger"
	"sketchdesk/internal/models"
)

// Keys of the persisted view preferences
const (
	KeyTheme           = "theme"
	KeySidebarDocked   = "defaultSidebarDockedPreference"
	KeyViewModeEnabled = "viewModeEnabled"
	KeyZenModeEnabled  = "zenModeEnabled"
)

// Keys of the window geometry, kept beside the view preferences
const (
	KeyWindowWidth  = "windowWidth"
	KeyWindowHeight = "windowHeight"
)

// ViewStateKeys lists every key written by SaveViewState
var ViewStateKeys = []string{KeyTheme, KeySidebarDocked, KeyViewModeEnabled, KeyZenModeEnabled}

// ErrClosed is returned by writes after Close
var ErrClosed = errors.New("settings store closed")

// Store is a JSON-valued key/value store
type Store interface {
	// Get returns the raw JSON stored under key.
	Get(key string) (json.RawMessage, bool)
	// Set marshals value to JSON and stores it under key.
	Set(key string, value interface{}) error
	Delete(key string) error
	// Save flushes pending changes to the backing medium.
	Save() error
	Close() error
}

// LoadViewState reads the persisted preferences, falling back to the default
// for each key that is missing or undecodable.
func LoadViewState(store Store, log logger.Logger) models.ViewState {
	defaults := models.DefaultViewState()
	state := defaults

	if raw, ok := store.Get(KeyTheme); ok {
		theme, err := decodeTheme(raw)
		if err != nil {
			log.Warning("Settings", "failed to decode theme from store", map[string]interface{}{
				"raw":   string(raw),
				"error": err.Error(),
			})
		} else {
			state.Theme = theme
		}
	}

	state.SidebarDocked = loadBool(store, KeySidebarDocked, defaults.SidebarDocked)
	state.ViewModeEnabled = loadBool(store, KeyViewModeEnabled, defaults.ViewModeEnabled)
	state.ZenModeEnabled = loadBool(store, KeyZenModeEnabled, defaults.ZenModeEnabled)

	return state
}

func decodeTheme(raw json.RawMessage) (models.Theme, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return "", err
	}
	return models.ParseTheme(name)
}

func loadBool(store Store, key string, fallback bool) bool {
	raw, ok := store.Get(key)
	if !ok {
		return fallback
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return fallback
	}
	return v
}

// SaveViewState writes each preference under its own key
func SaveViewState(store Store, state models.ViewState) error {
	if err := state.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value interface{}
	}{
		{KeyTheme, string(state.Theme)},
		{KeySidebarDocked, state.SidebarDocked},
		{KeyViewModeEnabled, state.ViewModeEnabled},
		{KeyZenModeEnabled, state.ZenModeEnabled},
	}
	for _, kv := range values {
		if err := store.Set(kv.key, kv.value); err != nil {
			return fmt.Errorf("set %s: %w", kv.key, err)
		}
	}
	return nil
}

// ResetViewState removes every preference key so defaults apply again
func ResetViewState(store Store) error {
	for _, key := range ViewStateKeys {
		if err := store.Delete(key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

// LoadWindowSize returns the saved window size. ok is false when either
// dimension is missing, undecodable or not positive.
func LoadWindowSize(store Store) (width, height float32, ok bool) {
	width, okW := loadFloat(store, KeyWindowWidth)
	height, okH := loadFloat(store, KeyWindowHeight)
	if !okW || !okH || width <= 0 || height <= 0 {
		return 0, 0, false
	}
	return width, height, true
}

// SaveWindowSize stores the window size for the next run.
func SaveWindowSize(store Store, width, height float32) error {
	if width <= 0 || height <= 0 {
		return models.NewValidationError("window", fmt.Sprintf("%gx%g", width, height), "size must be positive")
	}
	if err := store.Set(KeyWindowWidth, width); err != nil {
		return fmt.Errorf("set %s: %w", KeyWindowWidth, err)
	}
	if err := store.Set(KeyWindowHeight, height); err != nil {
		return fmt.Errorf("set %s: %w", KeyWindowHeight, err)
	}
	return nil
}

func loadFloat(store Store, key string) (float32, bool) {
	raw, ok := store.Get(key)
	if !ok {
		return 0, false
	}
	var v float32
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}
