// Package ui holds the console palettes used by the fractree commands. The
// active palette is process-wide and read by every printer, so presentation
// code never tests for NO_COLOR itself.
package ui

import (
	"os"
	"strings"
	"sync/atomic"
)

// Theme maps each console role to an ANSI escape sequence. An empty field
// prints the text unstyled.
type Theme struct {
	Name string
	// Heading styles section banners such as "=== Fractal Tree ===".
	Heading string
	// Label styles the left-hand side of "key: value" lines.
	Label string
	// Value styles measured quantities: counts, depths, durations.
	Value string
	// Accent marks parameters echoed back to the user.
	Accent string
	// Muted is used for secondary detail such as fingerprints.
	Muted   string
	Success string
	Warning string
	Error   string
	Bold    string
	Reset   string
}

var (
	// DarkTheme targets dark terminal backgrounds.
	DarkTheme = Theme{
		Name:    "dark",
		Heading: "\033[1;38;5;114m",
		Label:   "\033[38;5;250m",
		Value:   "\033[38;5;81m",
		Accent:  "\033[38;5;179m",
		Muted:   "\033[38;5;242m",
		Success: "\033[38;5;82m",
		Warning: "\033[38;5;220m",
		Error:   "\033[38;5;196m",
		Bold:    "\033[1m",
		Reset:   "\033[0m",
	}

	// LightTheme targets light terminal backgrounds.
	LightTheme = Theme{
		Name:    "light",
		Heading: "\033[1;38;5;22m",
		Label:   "\033[38;5;238m",
		Value:   "\033[38;5;25m",
		Accent:  "\033[38;5;94m",
		Muted:   "\033[38;5;244m",
		Success: "\033[38;5;28m",
		Warning: "\033[38;5;130m",
		Error:   "\033[38;5;124m",
		Bold:    "\033[1m",
		Reset:   "\033[0m",
	}

	// NoColorTheme prints plain text.
	NoColorTheme = Theme{Name: "none"}

	current atomic.Pointer[Theme]
)

func init() {
	SetCurrentTheme(DarkTheme)
}

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() Theme {
	return *current.Load()
}

// SetCurrentTheme installs t as the active theme. Tests use it to restore
// the previous palette.
func SetCurrentTheme(t Theme) {
	current.Store(&t)
}

// LookupTheme returns the theme registered under name ("dark", "light" or
// "none", case-insensitive).
func LookupTheme(name string) (Theme, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case DarkTheme.Name:
		return DarkTheme, true
	case LightTheme.Name:
		return LightTheme, true
	case NoColorTheme.Name:
		return NoColorTheme, true
	}
	return Theme{}, false
}

// InitTheme selects the palette for this process. Colour is disabled when
// noColor is set or NO_COLOR is present in the environment
// (https://no-color.org/); otherwise FRACTREE_THEME may pick "light" and
// the dark palette is the fallback.
//
// Parameters:
//   - noColor: The value of the --no-color flag.
//
// Returns:
//   - Theme: The theme now in effect.
func InitTheme(noColor bool) Theme {
	t := DarkTheme
	if named, ok := LookupTheme(os.Getenv("FRACTREE_THEME")); ok {
		t = named
	}
	if _, set := os.LookupEnv("NO_COLOR"); set || noColor {
		t = NoColorTheme
	}
	SetCurrentTheme(t)
	return t
}
