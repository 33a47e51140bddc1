package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/google/uuid"

	"sketchdesk/internal/bridge"
	"sketchdesk/internal/config"
	"sketchdesk/internal/controllers"
	"sketchdesk/internal/host"
	"sketchdesk/internal/logger"
	"sketchdesk/internal/metrics"
	"sketchdesk/internal/models"
	"sketchdesk/internal/settings"
	"sketchdesk/internal/shutdown"
	"sketchdesk/internal/views"
)

// Application wires the desktop process together.
type Application struct {
	cfg       *config.Config
	sessionID string

	fyneApp fyne.App
	window  fyne.Window
	logger  logger.Logger
	metrics *metrics.Metrics

	store      settings.Store
	host       *host.Host
	repo       *models.ViewStateRepository
	bridge     *bridge.Bridge
	view       *views.MainView
	controller *controllers.MainController
	debug      *metrics.DebugServer
	shutdown   *shutdown.Manager

	restart atomic.Bool
}

// NewApplication builds every component but does not show the window.
func NewApplication(cfg *config.Config, log logger.Logger) (*Application, error) {
	sessionID := uuid.NewString()
	appLogger := log.With(map[string]interface{}{"session": sessionID})

	app.SetMetadata(fyne.AppMetadata{
		ID:      AppID,
		Name:    AppName,
		Version: version,
	})
	fyneApp := app.NewWithID(AppID)

	m := metrics.New()

	store, err := openStore(cfg, fyneApp, appLogger)
	if err != nil {
		return nil, err
	}

	window := fyneApp.NewWindow(AppName)
	size, restored := initialWindowSize(cfg, store)
	window.Resize(size)
	if !restored {
		window.CenterOnScreen()
	}

	h, err := host.New(store, host.Options{
		DevMode: cfg.DevMode,
		Logger:  appLogger,
		Metrics: m,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create host: %w", err)
	}

	policy, err := bridge.ParsePolicy(cfg.Bridge.OnFailure)
	if err != nil {
		h.Shutdown()
		return nil, err
	}

	a := &Application{
		cfg:       cfg,
		sessionID: sessionID,
		fyneApp:   fyneApp,
		window:    window,
		logger:    appLogger,
		metrics:   m,
		store:     store,
		host:      h,
		repo:      models.NewViewStateRepository(),
		shutdown:  shutdown.NewManager(appLogger),
	}

	a.bridge = bridge.New(h, a.repo, bridge.Options{
		Policy:        policy,
		MaxRetries:    cfg.Bridge.MaxRetries,
		RetryInterval: cfg.Bridge.RetryInterval.Duration,
		SessionID:     sessionID,
		Logger:        appLogger,
		Metrics:       m,
		OnError: func(werr *bridge.WriteError) {
			a.controller.HandleWriteError(werr)
		},
		OnWrite: func(result bridge.WriteResult) {
			a.controller.HandleWriteResult(result)
		},
	})

	a.view = views.NewMainView(window, views.Options{
		DockedSidebarBreakpoint: cfg.Window.DockedSidebarBreakpoint,
		DevMode:                 cfg.DevMode,
	})
	a.controller = controllers.NewMainController(a.bridge, h, a.view, appLogger, m)
	h.AttachWindow(&hostWindow{app: a})

	if cfg.DebugAddr != "" {
		a.debug = metrics.NewDebugServer(cfg.DebugAddr, m, a.ready, appLogger)
	}

	// Registered in start order; the manager stops them in reverse.
	a.shutdown.Register("host", shutdown.Func(h.Shutdown))
	a.shutdown.Register("window geometry", shutdown.Func(func() {
		storeWindowSize(a.store, a.window.Canvas().Size(), a.logger)
	}))
	a.shutdown.Register("bridge", shutdown.Func(a.bridge.Shutdown))
	a.shutdown.Register("controller", shutdown.Func(a.controller.Shutdown))
	if a.debug != nil {
		a.shutdown.Register("debug server", shutdown.Func(a.debug.Shutdown))
	}

	window.SetOnClosed(func() {
		a.logger.Info("Application", "window closed", nil)
	})

	appLogger.Info("Application", "application initialized", map[string]interface{}{
		"version":    version,
		"go_version": runtime.Version(),
		"store":      cfg.Store.Backend,
		"window":     fmt.Sprintf("%.0fx%.0f", size.Width, size.Height),
		"restored":   restored,
		"policy":     string(policy),
		"dev_mode":   cfg.DevMode,
		"log_level":  cfg.Level().String(),
	})

	return a, nil
}

// openStore opens the configured settings backend. The preferences backend
// needs the fyne app; pass nil to get an error instead.
func openStore(cfg *config.Config, fyneApp fyne.App, log logger.Logger) (settings.Store, error) {
	switch cfg.Store.Backend {
	case config.StorePreferences:
		if fyneApp == nil {
			return nil, errors.New("the preferences store is only available inside the desktop app")
		}
		return settings.NewPreferencesStore(fyneApp.Preferences()), nil
	default:
		path, err := cfg.SettingsPath()
		if err != nil {
			return nil, err
		}
		store, err := settings.OpenFileStore(path, cfg.Store.AutoSave.Duration, log)
		if err != nil {
			return nil, fmt.Errorf("open settings store: %w", err)
		}
		return store, nil
	}
}

// ready reports whether the UI has loaded its app state.
func (a *Application) ready() error {
	status, err := a.repo.Status()
	if status == models.StatusReady {
		return nil
	}
	if err != nil {
		return fmt.Errorf("app state %s: %w", status, err)
	}
	return fmt.Errorf("app state %s", status)
}

// Run shows the window and blocks until the event loop exits.
func (a *Application) Run(ctx context.Context) error {
	if a.debug != nil {
		if err := a.debug.Start(); err != nil {
			a.shutdown.Shutdown()
			return fmt.Errorf("start debug server: %w", err)
		}
	}

	a.shutdown.Listen(a.quit)

	go func() {
		select {
		case <-ctx.Done():
			a.logger.Info("Application", "context cancelled, quitting", nil)
			a.quit()
		case <-a.shutdown.Done():
		}
	}()

	a.controller.Start()
	a.window.ShowAndRun()

	a.shutdown.Shutdown()

	if a.restart.Load() {
		return a.relaunch()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

func (a *Application) quit() {
	fyne.Do(a.fyneApp.Quit)
}

// relaunch starts a fresh copy of this process with the same arguments.
func (a *Application) relaunch() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("restart: %w", err)
	}

	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("restart: %w", err)
	}

	a.logger.Info("Application", "restarted", map[string]interface{}{
		"pid": cmd.Process.Pid,
	})
	return cmd.Process.Release()
}
