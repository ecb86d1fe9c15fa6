//go:build unix

package transport

import (
	"os"

	"golang.org/x/sys/unix"
)

// lstat stats path without following a final symlink. It goes straight to
// unix.Lstat to skip building an os.FileInfo per entry.
func lstat(path string) (Entry, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return Entry{}, &os.PathError{Op: "lstat", Path: path, Err: err}
	}

	e := Entry{Path: path, Kind: kindFromStatMode(uint32(st.Mode))}
	if e.Kind == KindFile && st.Size > 0 {
		e.Size = uint64(st.Size) //nolint:gosec // G115: checked non-negative above
	}
	return e, nil
}

func kindFromStatMode(mode uint32) Kind {
	switch mode & unix.S_IFMT {
	case unix.S_IFREG:
		return KindFile
	case unix.S_IFDIR:
		return KindDir
	case unix.S_IFLNK:
		return KindSymlink
	default:
		return KindOther
	}
}
