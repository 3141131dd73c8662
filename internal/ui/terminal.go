package ui

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether f is connected to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of f, or DefaultWidth.
func Width(f *os.File) int {
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		return w
	}
	return DefaultWidth
}

// ReadPassword reads a line from in without echo when in is a terminal.
// readLine is used otherwise so piped input keeps working.
func ReadPassword(in *os.File, readLine func() (string, error)) (string, error) {
	if !IsTerminal(in) {
		return readLine()
	}
	b, err := term.ReadPassword(int(in.Fd()))
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}
