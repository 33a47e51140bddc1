package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// SidebarName identifies the Files sidebar in the board state.
const SidebarName = "files"

// Sidebar is the Files panel: a header with dock and close buttons over a
// simple body.
type Sidebar struct {
	container  *fyne.Container
	title      *widget.Label
	body       *widget.Label
	dockButton *widget.Button
	closeBtn   *widget.Button
	bg         *canvas.Rectangle

	docked  bool
	canDock bool

	dockHandler  func(docked bool)
	closeHandler func()
}

func NewSidebar() *Sidebar {
	s := &Sidebar{canDock: true}
	s.createComponents()
	s.buildLayout()
	return s
}

func (s *Sidebar) createComponents() {
	s.title = widget.NewLabelWithStyle("Files", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	s.body = widget.NewLabel("Hello World")

	s.dockButton = widget.NewButtonWithIcon("", theme.ViewRestoreIcon(), func() {
		if !s.canDock || s.dockHandler == nil {
			return
		}
		s.dockHandler(!s.docked)
	})
	s.dockButton.Importance = widget.LowImportance

	s.closeBtn = widget.NewButtonWithIcon("", theme.CancelIcon(), func() {
		if s.closeHandler != nil {
			s.closeHandler()
		}
	})
	s.closeBtn.Importance = widget.LowImportance
}

func (s *Sidebar) buildLayout() {
	header := container.NewBorder(nil, nil, nil,
		container.NewHBox(s.dockButton, s.closeBtn),
		s.title,
	)
	s.bg = canvas.NewRectangle(theme.MenuBackgroundColor())
	s.container = container.NewStack(s.bg,
		container.NewBorder(
			container.NewVBox(header, widget.NewSeparator()),
			nil, nil, nil,
			container.NewPadded(s.body),
		),
	)
}

// SetDockHandler is called with the requested docked state.
func (s *Sidebar) SetDockHandler(handler func(docked bool)) {
	s.dockHandler = handler
}

func (s *Sidebar) SetCloseHandler(handler func()) {
	s.closeHandler = handler
}

// SetDocked reflects the docking preference on the dock button.
func (s *Sidebar) SetDocked(docked bool) {
	s.docked = docked
	if docked {
		s.dockButton.SetIcon(theme.ViewFullScreenIcon())
	} else {
		s.dockButton.SetIcon(theme.ViewRestoreIcon())
	}
}

// SetCanDock enables the dock toggle; it is disabled on narrow windows.
func (s *Sidebar) SetCanDock(can bool) {
	s.canDock = can
	if can {
		s.dockButton.Enable()
	} else {
		s.dockButton.Disable()
	}
}

// RefreshTheme repaints the panel background after a theme change.
func (s *Sidebar) RefreshTheme() {
	s.bg.FillColor = theme.MenuBackgroundColor()
	s.bg.Refresh()
}

func (s *Sidebar) IsDocked() bool { return s.docked }
func (s *Sidebar) CanDock() bool  { return s.canDock }

func (s *Sidebar) GetContainer() *fyne.Container {
	return s.container
}
