package views

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"sketchdesk/internal/models"
)

// MenuActions are the controller callbacks behind the main menu.
type MenuActions struct {
	OpenDialog    func()
	SaveImage     func()
	Help          func()
	ClearCanvas   func()
	ToggleTheme   func()
	SetBackground func(hex string)
	ToggleZen     func()
	ToggleView    func()
	ToggleGrid    func()

	// dev mode only
	OpenDevtools func()
	ReloadPage   func()
	RestartApp   func()
}

// OpenDialogShortcut is Shift+Alt+D.
var OpenDialogShortcut = &desktop.CustomShortcut{
	KeyName:  fyne.KeyD,
	Modifier: fyne.KeyModifierShift | fyne.KeyModifierAlt,
}

type menuItems struct {
	main       *fyne.MainMenu
	zen        *fyne.MenuItem
	viewMode   *fyne.MenuItem
	grid       *fyne.MenuItem
	background []*fyne.MenuItem
}

func call(fn func()) func() {
	return func() {
		if fn != nil {
			fn()
		}
	}
}

func buildMenu(actions MenuActions, devMode bool) *menuItems {
	items := &menuItems{}

	openDialogShortcut := fyne.NewMenuItem("Open Dialog", call(actions.OpenDialog))
	openDialogShortcut.Shortcut = OpenDialogShortcut

	backgrounds := make([]*fyne.MenuItem, 0, len(models.BackgroundColors))
	for _, hex := range models.BackgroundColors {
		backgrounds = append(backgrounds, fyne.NewMenuItem(hex, func() {
			if actions.SetBackground != nil {
				actions.SetBackground(hex)
			}
		}))
	}
	items.background = backgrounds
	background := fyne.NewMenuItem("Change Canvas Background", nil)
	background.ChildMenu = fyne.NewMenu("", backgrounds...)

	items.zen = fyne.NewMenuItem("Zen Mode", call(actions.ToggleZen))
	items.viewMode = fyne.NewMenuItem("View Mode", call(actions.ToggleView))
	items.grid = fyne.NewMenuItem("Grid", call(actions.ToggleGrid))
	view := fyne.NewMenuItem("View", nil)
	view.ChildMenu = fyne.NewMenu("", items.zen, items.viewMode, items.grid)

	menus := []*fyne.Menu{
		fyne.NewMenu("Menu",
			fyne.NewMenuItem("Open Dialog", call(actions.OpenDialog)),
			fyne.NewMenuItem("Save as Image...", call(actions.SaveImage)),
			openDialogShortcut,
			fyne.NewMenuItem("Help", call(actions.Help)),
			fyne.NewMenuItem("Clear Canvas", call(actions.ClearCanvas)),
			fyne.NewMenuItemSeparator(),
			fyne.NewMenuItem("Toggle Theme", call(actions.ToggleTheme)),
			background,
			view,
		),
	}

	if devMode {
		menus = append(menus, fyne.NewMenu("Dev Tools",
			fyne.NewMenuItem("Open Devtools", call(actions.OpenDevtools)),
			fyne.NewMenuItem("Reload Page", call(actions.ReloadPage)),
			fyne.NewMenuItem("Restart App", call(actions.RestartApp)),
		))
	}

	items.main = fyne.NewMainMenu(menus...)
	return items
}

// sync updates the check marks from the board state.
func (m *menuItems) sync(state models.CanvasState) {
	m.zen.Checked = state.ZenModeEnabled
	m.viewMode.Checked = state.ViewModeEnabled
	m.grid.Checked = state.GridModeEnabled
	for _, item := range m.background {
		item.Checked = item.Label == state.ViewBackgroundColor
	}
	m.main.Refresh()
}
