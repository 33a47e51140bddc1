package views

import (
	"errors"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchdesk/internal/canvas"
	"sketchdesk/internal/models"
	"sketchdesk/internal/views/components"
)

func newTestView(t *testing.T, width float32, dev bool) *MainView {
	t.Helper()
	test.NewTempApp(t)

	w := test.NewWindow(nil)
	t.Cleanup(w.Close)
	w.Resize(fyne.NewSize(width, 700))

	return NewMainView(w, Options{DockedSidebarBreakpoint: 1020, DevMode: dev})
}

func showBoard(mv *MainView, v models.ViewState) *canvas.Board {
	board := canvas.NewBoard(models.CanvasStateFrom(v))
	board.SetOnChange(func(_ []models.Element, state models.CanvasState) {
		mv.ApplyPresentation(state)
	})
	mv.ShowBoard(board)
	return board
}

func findButton(obj fyne.CanvasObject, label string) *widget.Button {
	switch o := obj.(type) {
	case *widget.Button:
		if o.Text == label {
			return o
		}
	case *fyne.Container:
		for _, child := range o.Objects {
			if b := findButton(child, label); b != nil {
				return b
			}
		}
	}
	return nil
}

func TestLoadingAndErrorScreens(t *testing.T) {
	mv := newTestView(t, 1200, false)

	mv.ShowLoading()
	assert.Equal(t, "loading", mv.Screen())

	retried := false
	mv.ShowLoadError(errors.New("host unavailable"), func() { retried = true })
	assert.Equal(t, "error", mv.Screen())

	button := findButton(mv.Window().Content(), "Retry")
	require.NotNil(t, button)
	test.Tap(button)
	assert.True(t, retried)
}

func TestZenModeHidesChrome(t *testing.T) {
	mv := newTestView(t, 1200, false)
	board := showBoard(mv, models.DefaultViewState())
	assert.Equal(t, "board", mv.Screen())
	assert.True(t, mv.toolbar.GetContainer().Visible())

	board.SetZenMode(true)
	assert.False(t, mv.toolbar.GetContainer().Visible())
	assert.False(t, mv.StatusBar().GetContainer().Visible())

	board.SetZenMode(false)
	assert.True(t, mv.StatusBar().GetContainer().Visible())
}

func TestSidebarDocksOnWideWindow(t *testing.T) {
	mv := newTestView(t, 1200, false)
	board := showBoard(mv, models.DefaultViewState())

	board.SetOpenSidebar(components.SidebarName)
	assert.True(t, mv.Split().IsOpen())
	assert.True(t, mv.Split().IsDocked())
	assert.True(t, mv.Sidebar().CanDock())

	board.SetSidebarDocked(false)
	assert.True(t, mv.Split().IsOpen())
	assert.False(t, mv.Split().IsDocked())
}

func TestSidebarFloatsBelowBreakpoint(t *testing.T) {
	mv := newTestView(t, 800, false)
	board := showBoard(mv, models.DefaultViewState())

	board.SetOpenSidebar(components.SidebarName)
	assert.True(t, mv.Split().IsOpen())
	assert.False(t, mv.Split().IsDocked())
	assert.False(t, mv.Sidebar().CanDock())
	assert.True(t, board.State().SidebarDocked, "the preference is kept while the window is narrow")
}

func TestThemeFollowsBoard(t *testing.T) {
	mv := newTestView(t, 1200, false)
	board := showBoard(mv, models.DefaultViewState())
	assert.Equal(t, models.ThemeLight, mv.Theme())

	board.ToggleTheme()
	assert.Equal(t, models.ThemeDark, mv.Theme())

	th := fyne.CurrentApp().Settings().Theme()
	want := theme.DefaultTheme().Color(theme.ColorNameBackground, theme.VariantDark)
	assert.Equal(t, want, th.Color(theme.ColorNameBackground, theme.VariantLight))
}

func TestSystemThemePassesVariantThrough(t *testing.T) {
	th := NewTheme(models.ThemeSystem)
	for _, v := range []fyne.ThemeVariant{theme.VariantLight, theme.VariantDark} {
		assert.Equal(t,
			theme.DefaultTheme().Color(theme.ColorNameForeground, v),
			th.Color(theme.ColorNameForeground, v))
	}
}

func TestMenuComposition(t *testing.T) {
	mv := newTestView(t, 1200, false)
	mv.SetMenuActions(MenuActions{})

	menu := mv.Window().MainMenu()
	require.Len(t, menu.Items, 1)

	var labels []string
	for _, item := range menu.Items[0].Items {
		labels = append(labels, item.Label)
	}
	assert.Equal(t, []string{
		"Open Dialog", "Save as Image...", "Open Dialog", "Help", "Clear Canvas",
		"", "Toggle Theme", "Change Canvas Background", "View",
	}, labels)
	assert.Equal(t, OpenDialogShortcut, menu.Items[0].Items[2].Shortcut)

	dev := newTestView(t, 1200, true)
	dev.SetMenuActions(MenuActions{})
	require.Len(t, dev.Window().MainMenu().Items, 2)
	assert.Equal(t, "Dev Tools", dev.Window().MainMenu().Items[1].Label)
}

func TestMenuChecksFollowState(t *testing.T) {
	mv := newTestView(t, 1200, false)
	toggled := 0
	mv.SetMenuActions(MenuActions{ToggleGrid: func() { toggled++ }})
	board := showBoard(mv, models.DefaultViewState())

	board.SetGridMode(true)
	assert.True(t, mv.menu.grid.Checked)
	assert.False(t, mv.menu.zen.Checked)

	mv.menu.grid.Action()
	assert.Equal(t, 1, toggled)
}

func TestWelcomeHiddenOnceDrawn(t *testing.T) {
	mv := newTestView(t, 1200, false)
	board := showBoard(mv, models.DefaultViewState())
	assert.True(t, mv.welcome.IsVisible())

	board.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(5, 5)}})
	board.DragEnd()
	assert.False(t, mv.welcome.IsVisible())
}

func TestDiagnosticsWindow(t *testing.T) {
	mv := newTestView(t, 1200, true)
	calls := 0
	provider := func() components.DiagnosticsInfo {
		calls++
		return components.DiagnosticsInfo{
			SessionID:  "abc",
			Record:     models.DefaultViewState(),
			Loaded:     true,
			LoadStatus: models.StatusReady.String(),
		}
	}

	mv.ShowDiagnostics(provider)
	require.NotNil(t, mv.Diagnostics())
	assert.Contains(t, mv.Diagnostics().Summary(), "Theme: light")
	assert.Contains(t, mv.Diagnostics().Summary(), "ready")

	mv.ShowDiagnostics(provider)
	assert.Equal(t, 2, calls)

	mv.CloseDiagnostics()
	assert.Nil(t, mv.Diagnostics())
}
