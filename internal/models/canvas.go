package models

// Tool is the active board tool
type Tool string

const (
	ToolPen    Tool = "pen"
	ToolEraser Tool = "eraser"
	ToolHand   Tool = "hand"
)

// ElementType identifies how an element is drawn
type ElementType string

const (
	ElementFreedraw ElementType = "freedraw"
)

// Point is a board-space coordinate
type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Element is a single drawn item on the board. Deleted elements stay in the
// slice with IsDeleted set so change listeners see the removal.
type Element struct {
	ID          string      `json:"id"`
	Type        ElementType `json:"type"`
	Points      []Point     `json:"points"`
	StrokeColor string      `json:"strokeColor"`
	StrokeWidth float32     `json:"strokeWidth"`
	Version     int         `json:"version"`
	IsDeleted   bool        `json:"isDeleted"`
}

// Clone returns a copy that does not share the point slice
func (e Element) Clone() Element {
	c := e
	c.Points = append([]Point(nil), e.Points...)
	return c
}

// CanvasState is the full transient UI state reported by the board on every
// change. Most of it is never persisted.
type CanvasState struct {
	Name                string  `json:"name"`
	Theme               Theme   `json:"theme"`
	SidebarDocked       bool    `json:"defaultSidebarDockedPreference"`
	ViewModeEnabled     bool    `json:"viewModeEnabled"`
	ZenModeEnabled      bool    `json:"zenModeEnabled"`
	GridModeEnabled     bool    `json:"gridModeEnabled"`
	ViewBackgroundColor string  `json:"viewBackgroundColor"`
	ActiveTool          Tool    `json:"activeTool"`
	StrokeColor         string  `json:"currentItemStrokeColor"`
	StrokeWidth         float32 `json:"currentItemStrokeWidth"`
	Zoom                float32 `json:"zoom"`
	ScrollX             float32 `json:"scrollX"`
	ScrollY             float32 `json:"scrollY"`
	OpenSidebar         string  `json:"openSidebar,omitempty"`
}

// Default board colors
const (
	DefaultBackgroundColor = "#ffffff"
	DefaultStrokeColor     = "#1e1e1e"
	DefaultStrokeWidth     = 2
)

// BackgroundColors are the choices offered by the Change Canvas Background menu
var BackgroundColors = []string{"#ffffff", "#f8f9fa", "#f5faff", "#fffce8", "#fdf8f6"}

// Project reduces the full board state to the persisted record
func Project(state CanvasState) ViewState {
	return ViewState{
		Theme:           state.Theme,
		SidebarDocked:   state.SidebarDocked,
		ViewModeEnabled: state.ViewModeEnabled,
		ZenModeEnabled:  state.ZenModeEnabled,
	}
}

// CanvasStateFrom seeds an initial board state from a persisted record
func CanvasStateFrom(v ViewState) CanvasState {
	return CanvasState{
		Name:                "Untitled",
		Theme:               v.Theme,
		SidebarDocked:       v.SidebarDocked,
		ViewModeEnabled:     v.ViewModeEnabled,
		ZenModeEnabled:      v.ZenModeEnabled,
		ViewBackgroundColor: DefaultBackgroundColor,
		ActiveTool:          ToolPen,
		StrokeColor:         DefaultStrokeColor,
		StrokeWidth:         DefaultStrokeWidth,
		Zoom:                1,
	}
}
