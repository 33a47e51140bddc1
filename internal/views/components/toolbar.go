package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"sketchdesk/internal/models"
)

var toolLabels = map[models.Tool]string{
	models.ToolPen:    "Pen",
	models.ToolEraser: "Eraser",
	models.ToolHand:   "Hand",
}

// Toolbar is the top bar: tool selection, zoom and the Files trigger.
type Toolbar struct {
	container    *fyne.Container
	toolSelect   *widget.RadioGroup
	zoomIn       *widget.Button
	zoomOut      *widget.Button
	zoomReset    *widget.Button
	filesButton  *widget.Button
	nameLabel    *widget.Label
	updatingTool bool

	toolHandler  func(models.Tool)
	zoomHandler  func(factor float32)
	resetHandler func()
	filesHandler func()
}

func NewToolbar() *Toolbar {
	t := &Toolbar{}
	t.createComponents()
	t.buildLayout()
	return t
}

func (t *Toolbar) createComponents() {
	options := []string{toolLabels[models.ToolPen], toolLabels[models.ToolEraser], toolLabels[models.ToolHand]}
	t.toolSelect = widget.NewRadioGroup(options, func(selected string) {
		if t.updatingTool || t.toolHandler == nil {
			return
		}
		for tool, label := range toolLabels {
			if label == selected {
				t.toolHandler(tool)
				return
			}
		}
	})
	t.toolSelect.Horizontal = true
	t.toolSelect.Required = true

	t.zoomOut = widget.NewButtonWithIcon("", theme.ZoomOutIcon(), func() {
		if t.zoomHandler != nil {
			t.zoomHandler(1 / 1.25)
		}
	})
	t.zoomIn = widget.NewButtonWithIcon("", theme.ZoomInIcon(), func() {
		if t.zoomHandler != nil {
			t.zoomHandler(1.25)
		}
	})
	t.zoomReset = widget.NewButtonWithIcon("", theme.ZoomFitIcon(), func() {
		if t.resetHandler != nil {
			t.resetHandler()
		}
	})

	t.filesButton = widget.NewButtonWithIcon("Files", theme.FolderIcon(), func() {
		if t.filesHandler != nil {
			t.filesHandler()
		}
	})

	t.nameLabel = widget.NewLabel("")
}

func (t *Toolbar) buildLayout() {
	t.container = container.NewBorder(nil, nil,
		container.NewHBox(t.toolSelect, widget.NewSeparator(), t.zoomOut, t.zoomReset, t.zoomIn),
		t.filesButton,
		container.NewCenter(t.nameLabel),
	)
}

func (t *Toolbar) SetToolHandler(handler func(models.Tool)) { t.toolHandler = handler }
func (t *Toolbar) SetZoomHandler(handler func(float32))     { t.zoomHandler = handler }
func (t *Toolbar) SetResetHandler(handler func())           { t.resetHandler = handler }
func (t *Toolbar) SetFilesHandler(handler func())           { t.filesHandler = handler }

// SetState mirrors the board state without firing the tool handler.
func (t *Toolbar) SetState(state models.CanvasState) {
	t.updatingTool = true
	t.toolSelect.SetSelected(toolLabels[state.ActiveTool])
	t.updatingTool = false

	if state.ViewModeEnabled {
		t.toolSelect.Disable()
	} else {
		t.toolSelect.Enable()
	}
	t.nameLabel.SetText(state.Name)
}

func (t *Toolbar) SelectedTool() string {
	return t.toolSelect.Selected
}

func (t *Toolbar) GetContainer() *fyne.Container {
	return t.container
}
