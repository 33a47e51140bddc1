package components

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"sketchdesk/internal/models"
)

// StatusBar shows the last message, the persisted preferences and the sync
// state of the most recent write.
type StatusBar struct {
	container   *fyne.Container
	statusLabel *widget.Label
	prefsLabel  *widget.Label
	syncLabel   *widget.Label
}

func NewStatusBar() *StatusBar {
	sb := &StatusBar{}
	sb.createComponents()
	sb.buildLayout()
	return sb
}

func (sb *StatusBar) createComponents() {
	sb.statusLabel = widget.NewLabel("Ready")
	sb.prefsLabel = widget.NewLabel("")
	sb.syncLabel = widget.NewLabel("Saved")
}

func (sb *StatusBar) buildLayout() {
	sb.container = container.NewHBox(
		sb.statusLabel,
		widget.NewSeparator(),
		sb.prefsLabel,
		widget.NewSeparator(),
		sb.syncLabel,
	)
}

func (sb *StatusBar) SetStatus(status string) {
	sb.statusLabel.SetText(status)
}

func (sb *StatusBar) GetStatus() string {
	return sb.statusLabel.Text
}

// SetViewState summarizes the persisted record.
func (sb *StatusBar) SetViewState(v models.ViewState) {
	sb.prefsLabel.SetText(FormatViewState(v))
}

func (sb *StatusBar) SetSync(text string) {
	sb.syncLabel.SetText(text)
}

func (sb *StatusBar) GetSync() string {
	return sb.syncLabel.Text
}

func (sb *StatusBar) Reset() {
	sb.statusLabel.SetText("Ready")
	sb.prefsLabel.SetText("")
	sb.syncLabel.SetText("Saved")
}

func (sb *StatusBar) GetContainer() *fyne.Container {
	return sb.container
}

// FormatViewState renders the record as a short human-readable line.
func FormatViewState(v models.ViewState) string {
	dock := "floating"
	if v.SidebarDocked {
		dock = "docked"
	}
	return fmt.Sprintf("Theme: %s | Sidebar: %s | View: %s | Zen: %s",
		v.Theme, dock, onOff(v.ViewModeEnabled), onOff(v.ZenModeEnabled))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
