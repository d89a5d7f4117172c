package tui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const defaultWidth = 80

// NewRenderer returns a function that renders markdown using glamour,
// wrapped at width columns. A width below 1 uses the terminal width.
func NewRenderer(width int) (func(string) (string, error), error) {
	if width < 1 {
		width = TerminalWidth(os.Stdout)
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// TerminalWidth reports the width of f, or 80 when f is not a terminal.
func TerminalWidth(f *os.File) int {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w < 1 {
		return defaultWidth
	}
	return w
}
