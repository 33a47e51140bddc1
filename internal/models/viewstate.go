package models

import "strings"

// Theme is the board color scheme
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Themes lists every accepted theme in menu order
var Themes = []Theme{ThemeLight, ThemeDark, ThemeSystem}

// ParseTheme converts a stored or user-provided name into a Theme
func ParseTheme(s string) (Theme, error) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", NewValidationError("theme", s, "unknown theme")
	}
	return t, nil
}

// Valid reports whether t is one of the known themes
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

// Toggled flips between light and dark; system resolves to dark
func (t Theme) Toggled() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ViewState is the persisted subset of the board state. Only these four
// preferences cross to the host; drawing content never does.
type ViewState struct {
	Theme           Theme `json:"theme"`
	SidebarDocked   bool  `json:"defaultSidebarDockedPreference"`
	ViewModeEnabled bool  `json:"viewModeEnabled"`
	ZenModeEnabled  bool  `json:"zenModeEnabled"`
}

// DefaultViewState returns the record used when the store holds nothing
func DefaultViewState() ViewState {
	return ViewState{
		Theme:           ThemeLight,
		SidebarDocked:   true,
		ViewModeEnabled: false,
		ZenModeEnabled:  false,
	}
}

// Equal is deep structural equality over the flat record
func (v ViewState) Equal(other ViewState) bool {
	return v == other
}

// Validate checks the enumerated fields
func (v ViewState) Validate() error {
	if !v.Theme.Valid() {
		return NewValidationError("theme", v.Theme, "unknown theme")
	}
	return nil
}

// Fields flattens the record for structured logging
func (v ViewState) Fields() map[string]interface{} {
	return map[string]interface{}{
		"theme":          string(v.Theme),
		"sidebar_docked": v.SidebarDocked,
		"view_mode":      v.ViewModeEnabled,
		"zen_mode":       v.ZenModeEnabled,
	}
}
