// Package canvas is the drawing board: a fyne widget that records freehand
// strokes and reports every change of its elements or state to a single
// callback.
package canvas

import (
	"fmt"
	"math"
	"strconv"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"sketchdesk/internal/models"
)

const (
	minZoom     = 0.1
	maxZoom     = 4.0
	eraseRadius = 8
)

// ChangeFunc receives a copy of the live elements and the full board state.
type ChangeFunc func(elements []models.Element, state models.CanvasState)

// Board is the interactive drawing surface.
type Board struct {
	widget.BaseWidget

	mu       sync.RWMutex
	state    models.CanvasState
	elements []models.Element
	drawing  *models.Element
	nextID   int
	onChange ChangeFunc

	// dark reports whether the system variant is dark; used for ThemeSystem
	dark func() bool
}

func NewBoard(state models.CanvasState) *Board {
	b := &Board{state: state, dark: systemDark}
	b.ExtendBaseWidget(b)
	return b
}

func systemDark() bool {
	app := fyne.CurrentApp()
	if app == nil {
		return false
	}
	return app.Settings().ThemeVariant() == theme.VariantDark
}

// SetOnChange registers the change callback. It runs on the goroutine that
// made the change.
func (b *Board) SetOnChange(fn ChangeFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = fn
}

func (b *Board) State() models.CanvasState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Elements returns copies of the elements that have not been deleted.
func (b *Board) Elements() []models.Element {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.liveElements()
}

func (b *Board) liveElements() []models.Element {
	out := make([]models.Element, 0, len(b.elements))
	for _, e := range b.elements {
		if !e.IsDeleted {
			out = append(out, e.Clone())
		}
	}
	return out
}

// IsEmpty reports whether nothing visible is on the board.
func (b *Board) IsEmpty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, e := range b.elements {
		if !e.IsDeleted {
			return false
		}
	}
	return b.drawing == nil
}

// Dark reports whether the board is currently rendered dark.
func (b *Board) Dark() bool {
	return b.isDark(b.State().Theme)
}

func (b *Board) isDark(t models.Theme) bool {
	switch t {
	case models.ThemeDark:
		return true
	case models.ThemeSystem:
		return b.dark()
	}
	return false
}

// update applies fn to the state and, if fn reports a change, refreshes the
// widget and emits a change event.
func (b *Board) update(fn func(s *models.CanvasState) bool) {
	b.mu.Lock()
	if !fn(&b.state) {
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	b.Refresh()
	b.emit()
}

func (b *Board) emit() {
	b.mu.RLock()
	cb := b.onChange
	elements := b.liveElements()
	state := b.state
	b.mu.RUnlock()

	if cb != nil {
		cb(elements, state)
	}
}

func (b *Board) ToggleTheme() {
	b.update(func(s *models.CanvasState) bool {
		s.Theme = s.Theme.Toggled()
		return true
	})
}

func (b *Board) SetTheme(t models.Theme) {
	b.update(func(s *models.CanvasState) bool {
		if s.Theme == t {
			return false
		}
		s.Theme = t
		return true
	})
}

func (b *Board) SetSidebarDocked(docked bool) {
	b.update(func(s *models.CanvasState) bool {
		if s.SidebarDocked == docked {
			return false
		}
		s.SidebarDocked = docked
		return true
	})
}

// SetOpenSidebar records which sidebar is showing; empty means none.
func (b *Board) SetOpenSidebar(name string) {
	b.update(func(s *models.CanvasState) bool {
		if s.OpenSidebar == name {
			return false
		}
		s.OpenSidebar = name
		return true
	})
}

func (b *Board) SetViewMode(on bool) {
	b.update(func(s *models.CanvasState) bool {
		if s.ViewModeEnabled == on {
			return false
		}
		s.ViewModeEnabled = on
		return true
	})
}

func (b *Board) SetZenMode(on bool) {
	b.update(func(s *models.CanvasState) bool {
		if s.ZenModeEnabled == on {
			return false
		}
		s.ZenModeEnabled = on
		return true
	})
}

func (b *Board) SetGridMode(on bool) {
	b.update(func(s *models.CanvasState) bool {
		if s.GridModeEnabled == on {
			return false
		}
		s.GridModeEnabled = on
		return true
	})
}

// ApplyViewState sets the persisted fields at once, emitting at most one
// change event.
func (b *Board) ApplyViewState(v models.ViewState) {
	b.update(func(s *models.CanvasState) bool {
		if models.Project(*s) == v {
			return false
		}
		s.Theme = v.Theme
		s.SidebarDocked = v.SidebarDocked
		s.ViewModeEnabled = v.ViewModeEnabled
		s.ZenModeEnabled = v.ZenModeEnabled
		return true
	})
}

// SetBackground changes the view background to a #rrggbb color.
func (b *Board) SetBackground(hex string) error {
	if _, err := ParseHexColor(hex); err != nil {
		return err
	}
	b.update(func(s *models.CanvasState) bool {
		if s.ViewBackgroundColor == hex {
			return false
		}
		s.ViewBackgroundColor = hex
		return true
	})
	return nil
}

func (b *Board) SetTool(tool models.Tool) {
	b.update(func(s *models.CanvasState) bool {
		if s.ActiveTool == tool {
			return false
		}
		s.ActiveTool = tool
		return true
	})
}

func (b *Board) SetStrokeColor(hex string) error {
	if _, err := ParseHexColor(hex); err != nil {
		return err
	}
	b.update(func(s *models.CanvasState) bool {
		if s.StrokeColor == hex {
			return false
		}
		s.StrokeColor = hex
		return true
	})
	return nil
}

func (b *Board) SetName(name string) {
	b.update(func(s *models.CanvasState) bool {
		if s.Name == name {
			return false
		}
		s.Name = name
		return true
	})
}

// Clear marks every element deleted.
func (b *Board) Clear() {
	b.mu.Lock()
	changed := false
	for i := range b.elements {
		if !b.elements[i].IsDeleted {
			b.elements[i].IsDeleted = true
			b.elements[i].Version++
			changed = true
		}
	}
	b.drawing = nil
	b.mu.Unlock()

	if changed {
		b.Refresh()
		b.emit()
	}
}

// toBoard converts a widget position to board coordinates.
func (b *Board) toBoard(pos fyne.Position) models.Point {
	zoom := b.state.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return models.Point{
		X: (pos.X - b.state.ScrollX) / zoom,
		Y: (pos.Y - b.state.ScrollY) / zoom,
	}
}

// Dragged draws with the pen, erases with the eraser and pans with the
// hand tool. View mode only pans.
func (b *Board) Dragged(e *fyne.DragEvent) {
	b.mu.Lock()
	tool := b.state.ActiveTool
	if b.state.ViewModeEnabled {
		tool = models.ToolHand
	}

	switch tool {
	case models.ToolPen:
		p := b.toBoard(e.Position)
		if b.drawing == nil {
			b.nextID++
			b.drawing = &models.Element{
				ID:          "stroke-" + strconv.Itoa(b.nextID),
				Type:        models.ElementFreedraw,
				StrokeColor: b.state.StrokeColor,
				StrokeWidth: b.state.StrokeWidth,
				Version:     1,
			}
		}
		b.drawing.Points = append(b.drawing.Points, p)
		b.mu.Unlock()
		b.Refresh()

	case models.ToolEraser:
		erased := b.eraseAt(b.toBoard(e.Position))
		b.mu.Unlock()
		if erased {
			b.Refresh()
			b.emit()
		}

	default:
		b.state.ScrollX += e.Dragged.DX
		b.state.ScrollY += e.Dragged.DY
		b.mu.Unlock()
		b.Refresh()
	}
}

// DragEnd commits the stroke in progress, or reports the new scroll offset
// after a pan.
func (b *Board) DragEnd() {
	b.mu.Lock()
	if b.drawing != nil {
		b.elements = append(b.elements, *b.drawing)
		b.drawing = nil
	}
	b.mu.Unlock()

	b.Refresh()
	b.emit()
}

func (b *Board) eraseAt(p models.Point) bool {
	erased := false
	for i := range b.elements {
		e := &b.elements[i]
		if e.IsDeleted {
			continue
		}
		for _, q := range e.Points {
			if math.Hypot(float64(p.X-q.X), float64(p.Y-q.Y)) <= eraseRadius {
				e.IsDeleted = true
				e.Version++
				erased = true
				break
			}
		}
	}
	return erased
}

// Scrolled pans the board.
func (b *Board) Scrolled(e *fyne.ScrollEvent) {
	b.update(func(s *models.CanvasState) bool {
		s.ScrollX += e.Scrolled.DX
		s.ScrollY += e.Scrolled.DY
		return e.Scrolled.DX != 0 || e.Scrolled.DY != 0
	})
}

// Zoom multiplies the zoom level by factor, clamped to [0.1, 4].
func (b *Board) Zoom(factor float32) {
	b.update(func(s *models.CanvasState) bool {
		zoom := float32(math.Max(minZoom, math.Min(maxZoom, float64(s.Zoom*factor))))
		if zoom == s.Zoom {
			return false
		}
		s.Zoom = zoom
		return true
	})
}

// ResetView returns to zoom 1 with no scroll offset.
func (b *Board) ResetView() {
	b.update(func(s *models.CanvasState) bool {
		if s.Zoom == 1 && s.ScrollX == 0 && s.ScrollY == 0 {
			return false
		}
		s.Zoom, s.ScrollX, s.ScrollY = 1, 0, 0
		return true
	})
}

func (b *Board) String() string {
	s := b.State()
	return fmt.Sprintf("Board(%s, %d elements, theme=%s)", s.Name, len(b.Elements()), s.Theme)
}

var (
	_ fyne.Draggable  = (*Board)(nil)
	_ fyne.Scrollable = (*Board)(nil)
)
