package views

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"sketchdesk/internal/models"
)

// boardTheme wraps the default theme and pins its variant for the light and
// dark modes. The system mode passes the OS variant through.
type boardTheme struct {
	fyne.Theme
	mode models.Theme
}

// NewTheme returns the fyne theme for a board theme.
func NewTheme(mode models.Theme) fyne.Theme {
	return &boardTheme{Theme: theme.DefaultTheme(), mode: mode}
}

func (t *boardTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch t.mode {
	case models.ThemeDark:
		variant = theme.VariantDark
	case models.ThemeLight:
		variant = theme.VariantLight
	}
	return t.Theme.Color(name, variant)
}

// Mode reports which board theme t was built for.
func (t *boardTheme) Mode() models.Theme {
	return t.mode
}
