package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// DockSplit lays a fixed-width side panel to the right of the main content.
// Docked, the content shrinks to make room; undocked, the panel floats over
// the content's right edge. A closed panel takes no space.
type DockSplit struct {
	widget.BaseWidget
	content    fyne.CanvasObject
	panel      fyne.CanvasObject
	panelWidth float32
	open       bool
	docked     bool
}

func NewDockSplit(content, panel fyne.CanvasObject, panelWidth float32) *DockSplit {
	split := &DockSplit{
		content:    content,
		panel:      panel,
		panelWidth: panelWidth,
	}
	split.ExtendBaseWidget(split)
	return split
}

// SetPanel opens or closes the panel and chooses whether it is docked.
func (d *DockSplit) SetPanel(open, docked bool) {
	if d.open == open && d.docked == docked {
		return
	}
	d.open = open
	d.docked = docked
	d.Refresh()
}

func (d *DockSplit) IsOpen() bool   { return d.open }
func (d *DockSplit) IsDocked() bool { return d.open && d.docked }

// SetContent swaps the main content, keeping the panel.
func (d *DockSplit) SetContent(content fyne.CanvasObject) {
	d.content = content
	d.Refresh()
}

func (d *DockSplit) CreateRenderer() fyne.WidgetRenderer {
	return &dockSplitRenderer{split: d}
}

type dockSplitRenderer struct {
	split *DockSplit
}

func (r *dockSplitRenderer) Layout(size fyne.Size) {
	d := r.split
	panelWidth := fyne.Min(d.panelWidth, size.Width)

	contentWidth := size.Width
	if d.open && d.docked {
		contentWidth = size.Width - panelWidth
	}
	d.content.Resize(fyne.NewSize(contentWidth, size.Height))
	d.content.Move(fyne.NewPos(0, 0))

	if d.open {
		d.panel.Show()
		d.panel.Resize(fyne.NewSize(panelWidth, size.Height))
		d.panel.Move(fyne.NewPos(size.Width-panelWidth, 0))
	} else {
		d.panel.Hide()
	}
}

func (r *dockSplitRenderer) MinSize() fyne.Size {
	d := r.split
	min := d.content.MinSize()
	if d.open && d.docked {
		panelMin := d.panel.MinSize()
		min.Width += fyne.Max(panelMin.Width, d.panelWidth)
		min.Height = fyne.Max(min.Height, panelMin.Height)
	}
	return min
}

func (r *dockSplitRenderer) Refresh() {
	r.Layout(r.split.Size())
	r.split.content.Refresh()
	r.split.panel.Refresh()
}

// Objects lists the panel last so it draws over undocked content.
func (r *dockSplitRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.split.content, r.split.panel}
}

func (r *dockSplitRenderer) Destroy() {}
