package main

import (
	"context"

	"fyne.io/fyne/v2"

	"sketchdesk/internal/config"
	"sketchdesk/internal/logger"
	"sketchdesk/internal/settings"
)

// initialWindowSize prefers the size saved by the previous run over the
// configured one.
func initialWindowSize(cfg *config.Config, store settings.Store) (fyne.Size, bool) {
	if w, h, ok := settings.LoadWindowSize(store); ok {
		return fyne.NewSize(w, h), true
	}
	return fyne.NewSize(cfg.Window.Width, cfg.Window.Height), false
}

// storeWindowSize runs during shutdown, before the host closes the store.
func storeWindowSize(store settings.Store, size fyne.Size, log logger.Logger) {
	if err := settings.SaveWindowSize(store, size.Width, size.Height); err != nil {
		log.Warning("Application", "window size not saved", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	log.Debug("Application", "window size saved", map[string]interface{}{
		"width":  size.Width,
		"height": size.Height,
	})
}

// hostWindow lets host commands reach the desktop window.
type hostWindow struct {
	app *Application
}

func (w *hostWindow) ShowMessage(ctx context.Context, title, message string) (bool, error) {
	result := make(chan bool, 1)
	fyne.Do(func() {
		w.app.view.ShowMessage(title, message, func(ok bool) {
			result <- ok
		})
	})

	select {
	case ok := <-result:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (w *hostWindow) OpenDevtools() error {
	w.app.controller.OpenDiagnostics()
	return nil
}

func (w *hostWindow) Reload() error {
	go func() {
		if err := w.app.controller.Reload(w.app.shutdown.Context()); err != nil {
			w.app.logger.Warning("Application", "reload did not load the app state", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()
	return nil
}

// Restart quits the event loop; Run relaunches the process once shutdown
// has flushed pending writes.
func (w *hostWindow) Restart() error {
	w.app.logger.Info("Application", "restart requested", nil)
	w.app.restart.Store(true)
	w.app.quit()
	return nil
}
