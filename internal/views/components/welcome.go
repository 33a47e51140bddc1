package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Welcome is the hint overlay shown while the board is empty.
type Welcome struct {
	container *fyne.Container
}

func NewWelcome() *Welcome {
	title := widget.NewLabelWithStyle("SketchDesk", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	hints := widget.NewLabelWithStyle(
		"Drag to draw. Pick Eraser or Hand in the toolbar.\nAll your data is saved locally.",
		fyne.TextAlignCenter, fyne.TextStyle{Italic: true},
	)
	return &Welcome{container: container.NewCenter(container.NewVBox(title, hints))}
}

func (w *Welcome) SetVisible(visible bool) {
	if visible {
		w.container.Show()
	} else {
		w.container.Hide()
	}
}

func (w *Welcome) IsVisible() bool {
	return w.container.Visible()
}

func (w *Welcome) GetContainer() *fyne.Container {
	return w.container
}
