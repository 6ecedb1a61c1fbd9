package stats

import (
	"io"
	"os"

	"golang.org/x/term"
)

const defaultTerminalWidth = 80

// TerminalWidth returns the width of stdout, or a default when it is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultTerminalWidth
	}
	return width
}

// ShouldUseColor reports whether w is a terminal that should get colors.
func ShouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
