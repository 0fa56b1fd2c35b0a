// Package testutil holds helpers shared by the console-output tests.
package testutil

import (
	"regexp"
	"strings"
)

// csi matches ANSI control sequences (ESC '[' parameters final-letter).
var csi = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

// StripAnsiCodes returns s without ANSI escape sequences.
func StripAnsiCodes(s string) string {
	return csi.ReplaceAllString(s, "")
}

// PlainLines strips escape sequences from s and splits it into trimmed,
// non-empty lines, which is how the printers' output is compared.
func PlainLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(StripAnsiCodes(s), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
