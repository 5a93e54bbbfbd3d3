// Package ui provides terminal helpers shared by idcap's commands.
package ui

import (
	"io"

	"golang.org/x/term"
)

type fdProvider interface {
	Fd() uintptr
}

// TerminalWidth reports the column count of the terminal behind w, when w is
// backed by one.
func TerminalWidth(w io.Writer) (int, bool) {
	if v, ok := w.(fdProvider); ok {
		if cols, _, err := term.GetSize(int(v.Fd())); err == nil {
			return cols, true
		}
	}
	return 0, false
}

// IsTerminalWriter reports whether w writes to an interactive terminal.
func IsTerminalWriter(w io.Writer) bool {
	if v, ok := w.(fdProvider); ok {
		return term.IsTerminal(int(v.Fd()))
	}
	return false
}
