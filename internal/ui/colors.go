package ui

// Role accessors read the active theme on every call so that a theme change
// takes effect for subsequent output.

// ColorReset returns the reset escape code.
func ColorReset() string { return GetCurrentTheme().Reset }

// ColorHeading returns the banner style.
func ColorHeading() string { return GetCurrentTheme().Heading }

// ColorLabel returns the label style.
func ColorLabel() string { return GetCurrentTheme().Label }

// ColorValue returns the style for measured values.
func ColorValue() string { return GetCurrentTheme().Value }

// ColorAccent returns the style for echoed parameters.
func ColorAccent() string { return GetCurrentTheme().Accent }

// ColorMuted returns the style for secondary detail.
func ColorMuted() string { return GetCurrentTheme().Muted }

// ColorGreen returns the success style.
func ColorGreen() string { return GetCurrentTheme().Success }

// ColorYellow returns the warning style.
func ColorYellow() string { return GetCurrentTheme().Warning }

// ColorRed returns the error style.
func ColorRed() string { return GetCurrentTheme().Error }

// ColorBold returns the bold escape code.
func ColorBold() string { return GetCurrentTheme().Bold }

// Paint wraps s in style and a reset. With the no-colour theme it returns s
// unchanged.
func Paint(style, s string) string {
	if style == "" {
		return s
	}
	return style + s + ColorReset()
}
