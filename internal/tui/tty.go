// Package tui implements the interactive menu: the six classic problem and
// strategy pairings plus quit, driving the same engine code paths as the
// non-interactive commands.
package tui

import (
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether stdout is attached to a terminal. The interactive
// menu is only offered on a TTY; piped invocations fall back to the plain
// numbered prompt.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
