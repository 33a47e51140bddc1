package main

import (
	"testing"

	"fyne.io/fyne/v2"
	"github.com/stretchr/testify/assert"

	"sketchdesk/internal/config"
	"sketchdesk/internal/logger"
	"sketchdesk/internal/settings"
)

func TestInitialWindowSizeFallsBackToConfig(t *testing.T) {
	cfg := config.Default()

	size, restored := initialWindowSize(cfg, settings.NewMemoryStore())
	assert.False(t, restored)
	assert.Equal(t, fyne.NewSize(cfg.Window.Width, cfg.Window.Height), size)
}

func TestWindowSizeSurvivesRestart(t *testing.T) {
	cfg := config.Default()
	store := settings.NewMemoryStore()

	storeWindowSize(store, fyne.NewSize(1500, 940), logger.NewNop())

	size, restored := initialWindowSize(cfg, store)
	assert.True(t, restored)
	assert.Equal(t, fyne.NewSize(1500, 940), size)
}

func TestCollapsedWindowSizeNotSaved(t *testing.T) {
	cfg := config.Default()
	store := settings.NewMemoryStore()

	storeWindowSize(store, fyne.NewSize(0, 0), logger.NewNop())

	_, restored := initialWindowSize(cfg, store)
	assert.False(t, restored)
}
