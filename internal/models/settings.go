package models

import "strings"

// Themes.
const (
	ThemeLight = "Light"
	ThemeDark  = "Dark"
)

// CanonicalTheme maps a theme name in any letter case onto ThemeLight or
// ThemeDark. ok is false for unknown names.
func CanonicalTheme(name string) (theme string, ok bool) {
	for _, t := range []string{ThemeLight, ThemeDark} {
		if strings.EqualFold(strings.TrimSpace(name), t) {
			return t, true
		}
	}
	return name, false
}

// AppSettings is the singleton configuration row.
type AppSettings struct {
	ID             int64  `json:"id"`
	Theme          string `json:"theme"`
	IsLocked       bool   `json:"is_locked"`
	CredentialHash string `json:"-"`
}

// DefaultSettings returns the settings used when no row exists yet.
func DefaultSettings() AppSettings {
	return AppSettings{Theme: ThemeLight}
}
