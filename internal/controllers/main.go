// Package controllers connects the board, the state bridge and the host to
// the main view.
package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"time"

	"fyne.io/fyne/v2"

	"sketchdesk/internal/bridge"
	"sketchdesk/internal/canvas"
	"sketchdesk/internal/host"
	"sketchdesk/internal/logger"
	"sketchdesk/internal/metrics"
	"sketchdesk/internal/models"
	"sketchdesk/internal/views"
	"sketchdesk/internal/views/components"
)

// View is the part of views.MainView the controller drives.
type View interface {
	SetMenuActions(actions views.MenuActions)
	ShowLoading()
	ShowLoadError(err error, retry func())
	ShowBoard(board *canvas.Board)
	ApplyPresentation(state models.CanvasState)
	SetStatus(status string)
	SetSyncStatus(text string)
	ShowError(err error)
	Notify(title, message string)
	ShowHelp()
	ShowSaveImageDialog(name string, callback func(fyne.URIWriteCloser, error))
	CaptureImage() image.Image
	ShowDiagnostics(provider func() components.DiagnosticsInfo)
}

// Host runs named commands off the UI thread.
type Host interface {
	InvokeAsync(ctx context.Context, name string, payload interface{}, callback func(json.RawMessage, error)) error
	Commands() []string
}

// MainController orchestrates the application using MVC pattern
type MainController struct {
	ctx    context.Context
	cancel context.CancelFunc

	bridge  *bridge.Bridge
	host    Host
	view    View
	logger  logger.Logger
	metrics *metrics.Metrics

	board *canvas.Board
}

func NewMainController(b *bridge.Bridge, h Host, v View, log logger.Logger, m *metrics.Metrics) *MainController {
	ctx, cancel := context.WithCancel(context.Background())
	mc := &MainController{
		ctx:     ctx,
		cancel:  cancel,
		bridge:  b,
		host:    h,
		view:    v,
		logger:  log,
		metrics: m,
	}

	b.Repository().Subscribe(mc.onRecordReplaced)
	return mc
}

// Start installs the menu and loads the app state in the background.
func (mc *MainController) Start() {
	mc.view.SetMenuActions(mc.menuActions())
	go mc.Load(mc.ctx)
}

// Load fetches the persisted record and shows the board, or the error
// screen with a Retry action.
func (mc *MainController) Load(ctx context.Context) error {
	fyne.Do(mc.view.ShowLoading)

	state, err := mc.bridge.Fetch(ctx)
	if err != nil {
		fyne.Do(func() {
			mc.view.ShowLoadError(err, func() {
				go mc.Load(mc.ctx)
			})
		})
		return err
	}

	fyne.Do(func() {
		mc.showBoard(state)
	})
	return nil
}

func (mc *MainController) showBoard(state models.ViewState) {
	board := canvas.NewBoard(models.CanvasStateFrom(state))
	board.SetOnChange(mc.HandleCanvasChange)
	mc.board = board

	mc.view.ShowBoard(board)
	mc.view.SetSyncStatus("Saved")
	mc.view.SetStatus("Ready")
}

// Board returns the board currently shown, or nil while loading.
func (mc *MainController) Board() *canvas.Board {
	return mc.board
}

// HandleCanvasChange is the board's change callback.
func (mc *MainController) HandleCanvasChange(elements []models.Element, state models.CanvasState) {
	if err := mc.bridge.OnCanvasChange(elements, state); err != nil {
		mc.logger.Debug("MainController", "canvas change not persisted", map[string]interface{}{
			"error": err.Error(),
		})
	}
	mc.view.ApplyPresentation(state)
}

// onRecordReplaced brings the board back in line when the cached record
// changes underneath it, as after a rollback.
func (mc *MainController) onRecordReplaced(v models.ViewState) {
	fyne.Do(func() {
		board := mc.board
		if board == nil || models.Project(board.State()) == v {
			return
		}
		board.ApplyViewState(v)
	})
}

// HandleWriteError surfaces a failed preference write.
func (mc *MainController) HandleWriteError(werr *bridge.WriteError) {
	fyne.Do(func() {
		mc.view.SetSyncStatus("Not saved")
		mc.view.SetStatus(fmt.Sprintf("Could not save preferences: %v", werr.Err))
		mc.view.Notify("SketchDesk", "Your view preferences could not be saved.")
	})
}

// HandleWriteResult updates the sync indicator after each write.
func (mc *MainController) HandleWriteResult(result bridge.WriteResult) {
	if result.Err != nil {
		return
	}
	fyne.Do(func() {
		mc.view.SetSyncStatus("Saved " + result.At.Format(time.TimeOnly))
	})
}

func (mc *MainController) menuActions() views.MenuActions {
	return views.MenuActions{
		OpenDialog:  mc.OpenDialog,
		SaveImage:   mc.SaveImage,
		Help:        mc.view.ShowHelp,
		ClearCanvas: mc.withBoard((*canvas.Board).Clear),
		ToggleTheme: mc.withBoard((*canvas.Board).ToggleTheme),
		SetBackground: func(hex string) {
			if mc.board == nil {
				return
			}
			if err := mc.board.SetBackground(hex); err != nil {
				mc.view.ShowError(err)
			}
		},
		ToggleZen: mc.withBoard(func(b *canvas.Board) {
			b.SetZenMode(!b.State().ZenModeEnabled)
		}),
		ToggleView: mc.withBoard(func(b *canvas.Board) {
			b.SetViewMode(!b.State().ViewModeEnabled)
		}),
		ToggleGrid: mc.withBoard(func(b *canvas.Board) {
			b.SetGridMode(!b.State().GridModeEnabled)
		}),
		OpenDevtools: func() { mc.invoke(host.CmdOpenDevtools, nil) },
		ReloadPage:   func() { mc.invoke(host.CmdReloadPage, nil) },
		RestartApp:   func() { mc.invoke(host.CmdRestartApp, nil) },
	}
}

func (mc *MainController) withBoard(fn func(*canvas.Board)) func() {
	return func() {
		if mc.board != nil {
			fn(mc.board)
		}
	}
}

// invoke runs a host command on the worker pool. Failures are shown in an
// error dialog; onResult runs on the worker goroutine.
func (mc *MainController) invoke(command string, onResult func(json.RawMessage)) {
	err := mc.host.InvokeAsync(mc.ctx, command, nil, func(raw json.RawMessage, err error) {
		if err != nil {
			mc.logger.Error("MainController", "command failed", err, map[string]interface{}{
				"command": command,
			})
			fyne.Do(func() {
				mc.view.ShowError(err)
			})
			return
		}
		if onResult != nil {
			onResult(raw)
		}
	})
	if err != nil {
		mc.logger.Error("MainController", "command not submitted", err, map[string]interface{}{
			"command": command,
		})
		mc.view.ShowError(err)
	}
}

// OpenDialog asks the host to show its native message and reports the
// result in the status bar.
func (mc *MainController) OpenDialog() {
	mc.invoke(host.CmdOpenDialog, func(raw json.RawMessage) {
		var result string
		if err := json.Unmarshal(raw, &result); err != nil {
			result = string(raw)
		}
		mc.logger.Info("MainController", "open_dialog returned", map[string]interface{}{
			"result": result,
		})
		fyne.Do(func() {
			mc.view.SetStatus(result)
		})
	})
}

// SaveImage writes a PNG snapshot of the window to a user-chosen file.
func (mc *MainController) SaveImage() {
	name := "Untitled"
	if mc.board != nil {
		name = mc.board.State().Name
	}

	mc.view.ShowSaveImageDialog(name, func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			mc.view.ShowError(err)
			return
		}
		if writer == nil {
			return
		}

		img := mc.view.CaptureImage()
		mc.view.SetStatus("Saving image...")
		go mc.writePNG(writer, img)
	})
}

func (mc *MainController) writePNG(writer fyne.URIWriteCloser, img image.Image) {
	err := png.Encode(writer, img)
	if closeErr := writer.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		err = fmt.Errorf("save image to %s: %w", writer.URI().Name(), err)
		mc.logger.Error("MainController", "image export failed", err, nil)
		fyne.Do(func() {
			mc.view.ShowError(err)
			mc.view.SetStatus("Save failed")
		})
		return
	}

	mc.logger.Info("MainController", "image saved", map[string]interface{}{
		"path": writer.URI().String(),
	})
	fyne.Do(func() {
		mc.view.SetStatus("Image saved to " + writer.URI().Name())
	})
}

// OpenDiagnostics shows the diagnostics window.
func (mc *MainController) OpenDiagnostics() {
	fyne.Do(func() {
		mc.view.ShowDiagnostics(mc.DiagnosticsInfo)
	})
}

// DiagnosticsInfo collects the current bridge and host state.
func (mc *MainController) DiagnosticsInfo() components.DiagnosticsInfo {
	repo := mc.bridge.Repository()
	record, loaded := repo.Snapshot()
	status, loadErr := repo.Status()

	info := components.DiagnosticsInfo{
		SessionID:  mc.bridge.SessionID(),
		Record:     record,
		Loaded:     loaded,
		LoadStatus: status.String(),
		LoadError:  loadErr,
		Counters:   mc.metrics.Snapshot(),
		Commands:   mc.host.Commands(),
	}

	if last, ok := mc.bridge.LastWrite(); ok {
		outcome := "ok"
		if last.Err != nil {
			outcome = "failed: " + last.Err.Error()
		}
		info.LastWrite = fmt.Sprintf("#%d at %s, %s (%s)",
			last.Seq, last.At.Format(time.TimeOnly), outcome, components.FormatViewState(last.State))
	}
	return info
}

// Reload waits briefly for pending writes, starts a new bridge session and
// loads the app state again.
func (mc *MainController) Reload(ctx context.Context) error {
	flushCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := mc.bridge.Flush(flushCtx); err != nil {
		mc.logger.Warning("MainController", "reloading with writes pending", map[string]interface{}{
			"error": err.Error(),
		})
	}

	mc.bridge.Reset()
	fyne.Do(func() {
		mc.board = nil
	})
	mc.logger.Info("MainController", "reloading", nil)
	return mc.Load(ctx)
}

// Shutdown cancels outstanding host calls.
func (mc *MainController) Shutdown() {
	mc.cancel()
	mc.logger.Info("MainController", "controller shut down", nil)
}
