package ui

import (
	"io"

	"golang.org/x/term"
)

// fileDescriptor is satisfied by *os.File.
type fileDescriptor interface {
	Fd() uintptr
}

// Terminal reports whether w is an interactive terminal and, if so, its
// width in columns. Pipes, buffers and files give (false, 0), which makes
// the progress reporter fall back to plain periodic lines.
func Terminal(w io.Writer) (bool, int) {
	f, ok := w.(fileDescriptor)
	if !ok {
		return false, 0
	}
	fd := int(f.Fd()) //nolint:gosec // descriptors fit in int
	if !term.IsTerminal(fd) {
		return false, 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		width = 80
	}
	return true, width
}
