package canvas

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"sketchdesk/internal/models"
)

const gridSpacing = 20

var (
	fallbackBackground = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	fallbackStroke     = color.NRGBA{R: 0x1e, G: 0x1e, B: 0x1e, A: 0xff}
	gridLight          = color.NRGBA{R: 0xe9, G: 0xec, B: 0xef, A: 0xff}
	gridDark           = color.NRGBA{R: 0x2b, G: 0x2b, B: 0x30, A: 0xff}
)

func (b *Board) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(fallbackBackground)
	r := &boardRenderer{board: b, bg: bg}
	r.rebuild(b.Size())
	return r
}

// boardRenderer rebuilds its line objects on every refresh; boards are small
// enough that diffing is not worth it.
type boardRenderer struct {
	board   *Board
	bg      *canvas.Rectangle
	grid    []fyne.CanvasObject
	strokes []fyne.CanvasObject
	objects []fyne.CanvasObject
}

func (r *boardRenderer) Destroy()                     {}
func (r *boardRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *boardRenderer) MinSize() fyne.Size           { return fyne.NewSize(320, 240) }

func (r *boardRenderer) Layout(size fyne.Size) {
	r.rebuild(size)
}

func (r *boardRenderer) Refresh() {
	r.rebuild(r.board.Size())
	canvas.Refresh(r.board)
}

func (r *boardRenderer) rebuild(size fyne.Size) {
	b := r.board
	b.mu.RLock()
	state := b.state
	elements := make([]models.Element, 0, len(b.elements)+1)
	for _, e := range b.elements {
		if !e.IsDeleted {
			elements = append(elements, e)
		}
	}
	if b.drawing != nil {
		elements = append(elements, *b.drawing)
	}
	b.mu.RUnlock()

	dark := b.isDark(state.Theme)

	bg := mustColor(state.ViewBackgroundColor, fallbackBackground)
	if dark {
		bg = invert(bg)
	}
	r.bg.FillColor = bg
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))

	r.grid = r.grid[:0]
	if state.GridModeEnabled {
		r.grid = gridLines(size, state, dark)
	}

	r.strokes = r.strokes[:0]
	for _, e := range elements {
		stroke := mustColor(e.StrokeColor, fallbackStroke)
		if dark {
			stroke = invert(stroke)
		}
		r.strokes = append(r.strokes, strokeLines(e, state, stroke)...)
	}

	r.objects = make([]fyne.CanvasObject, 0, 1+len(r.grid)+len(r.strokes))
	r.objects = append(r.objects, r.bg)
	r.objects = append(r.objects, r.grid...)
	r.objects = append(r.objects, r.strokes...)
}

func gridLines(size fyne.Size, state models.CanvasState, dark bool) []fyne.CanvasObject {
	c := gridLight
	if dark {
		c = gridDark
	}
	zoom := state.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	step := gridSpacing * zoom
	if step < 4 {
		return nil
	}

	var lines []fyne.CanvasObject
	for x := mod(state.ScrollX, step); x < size.Width; x += step {
		l := canvas.NewLine(c)
		l.Position1 = fyne.NewPos(x, 0)
		l.Position2 = fyne.NewPos(x, size.Height)
		lines = append(lines, l)
	}
	for y := mod(state.ScrollY, step); y < size.Height; y += step {
		l := canvas.NewLine(c)
		l.Position1 = fyne.NewPos(0, y)
		l.Position2 = fyne.NewPos(size.Width, y)
		lines = append(lines, l)
	}
	return lines
}

func mod(v, m float32) float32 {
	r := v - m*float32(int(v/m))
	if r < 0 {
		r += m
	}
	return r
}

func strokeLines(e models.Element, state models.CanvasState, c color.Color) []fyne.CanvasObject {
	zoom := state.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	toScreen := func(p models.Point) fyne.Position {
		return fyne.NewPos(p.X*zoom+state.ScrollX, p.Y*zoom+state.ScrollY)
	}

	if len(e.Points) == 1 {
		dot := canvas.NewCircle(c)
		w := e.StrokeWidth * zoom
		p := toScreen(e.Points[0])
		dot.Resize(fyne.NewSize(w, w))
		dot.Move(fyne.NewPos(p.X-w/2, p.Y-w/2))
		return []fyne.CanvasObject{dot}
	}

	lines := make([]fyne.CanvasObject, 0, len(e.Points))
	for i := 1; i < len(e.Points); i++ {
		l := canvas.NewLine(c)
		l.StrokeWidth = e.StrokeWidth * zoom
		l.Position1 = toScreen(e.Points[i-1])
		l.Position2 = toScreen(e.Points[i])
		lines = append(lines, l)
	}
	return lines
}

var (
	_ fyne.WidgetRenderer = (*boardRenderer)(nil)
	_ fyne.Widget         = (*Board)(nil)
)
