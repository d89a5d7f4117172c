package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Tessera ASCII art banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text, color string
	}{
		{" _____                              ", "#2dd4bf"},
		{"|_   _|__  ___ ___  ___ _ __ __ _   ", "#22d3ee"},
		{"  | |/ _ \\/ __/ __|/ _ \\ '__/ _` |  ", "#38bdf8"},
		{"  | |  __/\\__ \\__ \\  __/ | | (_| |  ", "#60a5fa"},
		{"  |_|\\___||___/___/\\___|_|  \\__,_|  ", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
