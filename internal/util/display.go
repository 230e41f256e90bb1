package util

import (
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const defaultTerminalWidth = 120

const (
	ColorReset  = "\033[0m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorRed    = "\033[31m"
	ColorBold   = "\033[1m"

	// Terminal control sequences
	EnterAltScreen  = "\033[?1049h"
	ExitAltScreen   = "\033[?1049l"
	ClearScreen     = "\033[2J"
	ClearLine       = "\033[2K"
	ClearToEnd      = "\033[0J" // clear from cursor to end of screen
	ClearScrollback = "\033[3J"
	MoveCursorHome  = "\033[H"
	HideCursor      = "\033[?25l"
	ShowCursor      = "\033[?25h"
)

// GetDisplayWidth calculates the display width of a string, accounting for wide runes
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// PadString pads s with spaces to the given display width
func PadString(s string, width int, leftAlign bool) string {
	actual := runewidth.StringWidth(s)
	if actual >= width {
		return s
	}
	padding := strings.Repeat(" ", width-actual)
	if leftAlign {
		return s + padding
	}
	return padding + s
}

// TruncateToWidth shortens s to at most width cells, ending in "…" when cut
func TruncateToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// SingleLine collapses newlines and tabs so a value fits in one table cell
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TerminalWidth returns the width of stdout, or a default when stdout is not a terminal
func TerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultTerminalWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width < 60 {
		return defaultTerminalWidth
	}
	return width
}

// IsTerminal reports whether fd refers to a terminal
func IsTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}
