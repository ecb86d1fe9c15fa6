package transport

import (
	"context"
	"io/fs"
)

// Kind identifies the type of a filesystem entry as seen by lstat.
type Kind uint8

const (
	KindOther Kind = iota
	KindFile
	KindDir
	KindSymlink
)

var kindNames = [...]string{
	KindOther:   "other",
	KindFile:    "file",
	KindDir:     "dir",
	KindSymlink: "symlink",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// KindFromMode derives the Kind from an fs.FileMode.
func KindFromMode(mode fs.FileMode) Kind {
	switch {
	case mode.IsRegular():
		return KindFile
	case mode.IsDir():
		return KindDir
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	default:
		return KindOther
	}
}

// Entry is the resolved metadata of a single path. Size is only meaningful
// for KindFile and holds the apparent length, not allocated blocks.
type Entry struct {
	Path string
	Size uint64
	Kind Kind
}

// Source resolves metadata and enumerates directories for one filesystem.
type Source interface {
	// Resolve returns the entry for path without following a final symlink.
	Resolve(ctx context.Context, path string) (Entry, error)

	// List opens path for lazy enumeration of its direct children.
	// The caller must Close the returned Lister.
	List(ctx context.Context, path string) (Lister, error)

	// Close releases resources held by the source.
	Close() error
}

// Lister is a finite, non-restartable sequence of child paths.
type Lister interface {
	// Next returns the next child path, or io.EOF once exhausted.
	Next(ctx context.Context) (string, error)

	Close() error
}

// entryFromInfo converts an fs.FileInfo into an Entry for path.
func entryFromInfo(path string, info fs.FileInfo) Entry {
	e := Entry{Path: path, Kind: KindFromMode(info.Mode())}
	if e.Kind == KindFile && info.Size() > 0 {
		e.Size = uint64(info.Size())
	}
	return e
}
