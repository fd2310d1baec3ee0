package helpers

import (
	"io"
	"os"

	"golang.org/x/term"
)

// fder is satisfied by *os.File.
type fder interface {
	Fd() uintptr
}

// IsTerminal reports whether v (a reader or writer) is attached to a TTY.
func IsTerminal(v interface{}) bool {
	f, ok := v.(fder)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of w, or fallback when it is not a TTY.
func TerminalWidth(w io.Writer, fallback int) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}
