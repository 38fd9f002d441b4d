// Package display renders prayer times for the terminal with raw ANSI
// escape codes.
//
// It respects the NO_COLOR environment variable (https://no-color.org/) and
// disables color when stdout is not a terminal.
package display

import (
	"fmt"
	"os"
)

const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	fgGray = "\033[90m"
)

// enabled is decided once at init time.
var enabled bool

func init() {
	enabled = shouldEnable()
}

func shouldEnable() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if _, ok := os.LookupEnv("FORCE_COLOR"); ok {
		return true
	}
	return IsTerminal(os.Stdout)
}

// IsTerminal reports whether f is a character device.
func IsTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// SetEnabled overrides the auto-detected color state.
func SetEnabled(b bool) {
	enabled = b
}

// Enabled reports whether color output is currently active.
func Enabled() bool {
	return enabled
}

func wrap(code, text string) string {
	if !enabled {
		return text
	}
	return code + text + reset
}

// Bold renders table headers and titles.
func Bold(text string) string { return wrap(bold, text) }

// Dim renders separators and secondary values.
func Dim(text string) string { return wrap(dim, text) }

// Red renders errors.
func Red(text string) string { return wrap(red, text) }

// Green renders positive states such as a fresh cache.
func Green(text string) string { return wrap(green, text) }

// Yellow renders warnings.
func Yellow(text string) string { return wrap(yellow, text) }

// Cyan wraps text in cyan.
func Cyan(text string) string { return wrap(cyan, text) }

// Gray renders the offline notice.
func Gray(text string) string { return wrap(fgGray, text) }

// Accent highlights the next prayer (cyan + bold).
func Accent(text string) string {
	if !enabled {
		return text
	}
	return bold + cyan + text + reset
}

// Boldf formats and bolds a string.
func Boldf(format string, a ...any) string {
	return Bold(fmt.Sprintf(format, a...))
}
