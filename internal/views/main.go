// Package views builds the window content: loading and error screens, the
// board layout with toolbar, Files sidebar and status bar, the main menu and
// the diagnostics window.
package views

import (
	"fmt"
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"sketchdesk/internal/canvas"
	"sketchdesk/internal/models"
	"sketchdesk/internal/views/components"
)

const sidebarWidth = 260

// Options configure a MainView.
type Options struct {
	DockedSidebarBreakpoint float32
	DevMode                 bool
}

// MainView owns the main window content.
type MainView struct {
	window fyne.Window
	opts   Options

	toolbar   *components.Toolbar
	sidebar   *components.Sidebar
	statusBar *components.StatusBar
	welcome   *components.Welcome
	split     *components.DockSplit
	layout    *fyne.Container

	board   *canvas.Board
	menu    *menuItems
	theme   models.Theme
	screen  string
	actions MenuActions

	diagWindow  fyne.Window
	diagnostics *components.Diagnostics
}

func NewMainView(window fyne.Window, opts Options) *MainView {
	mv := &MainView{
		window: window,
		opts:   opts,
	}
	mv.initializeComponents()
	mv.setupEventHandlers()
	return mv
}

func (mv *MainView) initializeComponents() {
	mv.toolbar = components.NewToolbar()
	mv.sidebar = components.NewSidebar()
	mv.statusBar = components.NewStatusBar()
	mv.welcome = components.NewWelcome()
}

// setupEventHandlers routes toolbar and sidebar input to the board, whose
// change events reach the controller.
func (mv *MainView) setupEventHandlers() {
	mv.toolbar.SetToolHandler(func(tool models.Tool) {
		if mv.board != nil {
			mv.board.SetTool(tool)
		}
	})
	mv.toolbar.SetZoomHandler(func(factor float32) {
		if mv.board != nil {
			mv.board.Zoom(factor)
		}
	})
	mv.toolbar.SetResetHandler(func() {
		if mv.board != nil {
			mv.board.ResetView()
		}
	})
	mv.toolbar.SetFilesHandler(func() {
		if mv.board == nil {
			return
		}
		if mv.board.State().OpenSidebar == components.SidebarName {
			mv.board.SetOpenSidebar("")
		} else {
			mv.board.SetOpenSidebar(components.SidebarName)
		}
	})
	mv.sidebar.SetCloseHandler(func() {
		if mv.board != nil {
			mv.board.SetOpenSidebar("")
		}
	})
	mv.sidebar.SetDockHandler(func(docked bool) {
		if mv.board != nil && mv.canDock() {
			mv.board.SetSidebarDocked(docked)
		}
	})
}

// SetMenuActions builds the main menu and the Shift+Alt+D shortcut.
func (mv *MainView) SetMenuActions(actions MenuActions) {
	mv.actions = actions
	mv.menu = buildMenu(actions, mv.opts.DevMode)
	mv.window.SetMainMenu(mv.menu.main)

	mv.window.Canvas().AddShortcut(OpenDialogShortcut, func(fyne.Shortcut) {
		if actions.OpenDialog != nil {
			actions.OpenDialog()
		}
	})
}

// Screen names the content currently shown: loading, error or board.
func (mv *MainView) Screen() string {
	return mv.screen
}

func (mv *MainView) ShowLoading() {
	mv.screen = "loading"
	progress := widget.NewProgressBarInfinite()
	mv.window.SetContent(container.NewCenter(container.NewVBox(
		widget.NewLabelWithStyle("Loading app state...", fyne.TextAlignCenter, fyne.TextStyle{}),
		progress,
	)))
}

// ShowLoadError replaces the content with the error and a Retry button.
func (mv *MainView) ShowLoadError(err error, retry func()) {
	mv.screen = "error"
	message := widget.NewLabelWithStyle("Could not load app state", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	detail := widget.NewLabelWithStyle(err.Error(), fyne.TextAlignCenter, fyne.TextStyle{})
	detail.Wrapping = fyne.TextWrapWord

	button := widget.NewButtonWithIcon("Retry", theme.ViewRefreshIcon(), retry)
	button.Importance = widget.HighImportance

	mv.window.SetContent(container.NewCenter(container.NewVBox(
		widget.NewIcon(theme.ErrorIcon()),
		message,
		detail,
		container.NewCenter(button),
	)))
}

// ShowBoard lays out board with the toolbar, sidebar and status bar.
func (mv *MainView) ShowBoard(board *canvas.Board) {
	mv.screen = "board"
	mv.board = board

	stage := container.NewStack(board, mv.welcome.GetContainer())
	mv.split = components.NewDockSplit(stage, mv.sidebar.GetContainer(), sidebarWidth)
	mv.layout = container.NewBorder(
		mv.toolbar.GetContainer(),
		mv.statusBar.GetContainer(),
		nil, nil,
		mv.split,
	)
	mv.window.SetContent(mv.layout)
	mv.ApplyPresentation(board.State())
}

// Board returns the board being shown, if any.
func (mv *MainView) Board() *canvas.Board {
	return mv.board
}

func (mv *MainView) canDock() bool {
	return mv.window.Canvas().Size().Width >= mv.opts.DockedSidebarBreakpoint
}

// ApplyPresentation brings the chrome in line with the board state: theme,
// zen mode, sidebar docking, menu check marks and the welcome overlay.
func (mv *MainView) ApplyPresentation(state models.CanvasState) {
	mv.applyTheme(state.Theme)

	if mv.layout == nil {
		return
	}

	if state.ZenModeEnabled {
		mv.toolbar.GetContainer().Hide()
		mv.statusBar.GetContainer().Hide()
	} else {
		mv.toolbar.GetContainer().Show()
		mv.statusBar.GetContainer().Show()
	}
	mv.toolbar.SetState(state)

	canDock := mv.canDock()
	mv.sidebar.SetCanDock(canDock)
	mv.sidebar.SetDocked(state.SidebarDocked)
	mv.split.SetPanel(state.OpenSidebar == components.SidebarName, state.SidebarDocked && canDock)

	mv.statusBar.SetViewState(models.Project(state))

	empty := mv.board == nil || mv.board.IsEmpty()
	mv.welcome.SetVisible(empty && !state.ZenModeEnabled && !state.ViewModeEnabled)

	if mv.menu != nil {
		mv.menu.sync(state)
	}
	mv.layout.Refresh()
}

func (mv *MainView) applyTheme(mode models.Theme) {
	if mv.theme == mode {
		return
	}
	mv.theme = mode
	fyne.CurrentApp().Settings().SetTheme(NewTheme(mode))
	mv.sidebar.RefreshTheme()
}

// Theme is the board theme currently applied to the app.
func (mv *MainView) Theme() models.Theme {
	return mv.theme
}

func (mv *MainView) SetStatus(status string) {
	mv.statusBar.SetStatus(status)
}

func (mv *MainView) SetSyncStatus(text string) {
	mv.statusBar.SetSync(text)
}

func (mv *MainView) StatusBar() *components.StatusBar {
	return mv.statusBar
}

func (mv *MainView) Sidebar() *components.Sidebar {
	return mv.sidebar
}

func (mv *MainView) Split() *components.DockSplit {
	return mv.split
}

func (mv *MainView) ShowError(err error) {
	dialog.ShowError(err, mv.window)
}

// ShowMessage shows an informational dialog and reports true once it is
// dismissed.
func (mv *MainView) ShowMessage(title, message string, done func(bool)) {
	d := dialog.NewInformation(title, message, mv.window)
	d.SetOnClosed(func() {
		if done != nil {
			done(true)
		}
	})
	d.Show()
}

// Notify sends a desktop notification.
func (mv *MainView) Notify(title, message string) {
	fyne.CurrentApp().SendNotification(fyne.NewNotification(title, message))
}

func (mv *MainView) ShowHelp() {
	shortcuts := widget.NewForm(
		widget.NewFormItem("Draw", widget.NewLabel("Drag with the Pen tool")),
		widget.NewFormItem("Erase", widget.NewLabel("Drag over a stroke with the Eraser")),
		widget.NewFormItem("Pan", widget.NewLabel("Scroll, or drag with the Hand tool")),
		widget.NewFormItem("Open Dialog", widget.NewLabel("Shift+Alt+D")),
		widget.NewFormItem("Files", widget.NewLabel("Toolbar button; dock it on wide windows")),
	)
	dialog.ShowCustom("Help", "Close", shortcuts, mv.window)
}

// ShowSaveImageDialog asks where to write a PNG snapshot.
func (mv *MainView) ShowSaveImageDialog(name string, callback func(fyne.URIWriteCloser, error)) {
	d := dialog.NewFileSave(callback, mv.window)
	d.SetFileName(name + ".png")
	d.SetFilter(storage.NewExtensionFileFilter([]string{".png"}))
	d.Show()
}

// CaptureImage renders the current window content.
func (mv *MainView) CaptureImage() image.Image {
	return mv.window.Canvas().Capture()
}

// ShowDiagnostics opens the diagnostics window, or focuses it if already
// open. provider is called on open and on every Refresh.
func (mv *MainView) ShowDiagnostics(provider func() components.DiagnosticsInfo) {
	if mv.diagWindow != nil {
		mv.diagnostics.Update(provider())
		mv.diagWindow.RequestFocus()
		return
	}

	var diag *components.Diagnostics
	diag = components.NewDiagnostics(func() {
		diag.Update(provider())
	})
	diag.Update(provider())

	w := fyne.CurrentApp().NewWindow(fmt.Sprintf("%s - Diagnostics", mv.window.Title()))
	w.SetContent(diag.GetContainer())
	w.Resize(fyne.NewSize(560, 360))
	w.SetOnClosed(func() {
		mv.diagWindow = nil
		mv.diagnostics = nil
	})
	mv.diagWindow = w
	mv.diagnostics = diag
	w.Show()
}

// Diagnostics returns the open diagnostics panel, or nil.
func (mv *MainView) Diagnostics() *components.Diagnostics {
	return mv.diagnostics
}

// CloseDiagnostics closes the diagnostics window if it is open.
func (mv *MainView) CloseDiagnostics() {
	if mv.diagWindow != nil {
		mv.diagWindow.Close()
	}
}

func (mv *MainView) Window() fyne.Window {
	return mv.window
}
