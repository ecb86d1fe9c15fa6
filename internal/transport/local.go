package transport

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
)

// listBatch is how many directory entries a local Lister reads per syscall.
const listBatch = 256

// Compile-time interface checks.
var (
	_ Source = (*Local)(nil)
	_ Lister = (*localLister)(nil)
)

// Local resolves and lists paths on the local filesystem.
type Local struct{}

// NewLocal returns a Source for the local filesystem.
func NewLocal() *Local {
	return &Local{}
}

func (*Local) Resolve(ctx context.Context, path string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	e, err := lstat(path)
	if err != nil {
		return Entry{}, newPathError("lstat", path, err)
	}
	return e, nil
}

//nolint:ireturn // implements Source interface
func (*Local) List(ctx context.Context, path string) (Lister, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, newPathError("opendir", path, err)
	}
	return &localLister{dir: path, f: f}, nil
}

func (*Local) Close() error { return nil }

// localLister reads a directory in batches so large directories are never
// held in memory at once.
type localLister struct {
	f   *os.File
	dir string
	buf []os.DirEntry
	eof bool
}

func (l *localLister) Next(ctx context.Context) (string, error) {
	for len(l.buf) == 0 {
		if l.eof {
			return "", io.EOF
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		ents, err := l.f.ReadDir(listBatch)
		if errors.Is(err, io.EOF) {
			l.eof = true
			continue
		}
		if err != nil {
			return "", newPathError("readdir", l.dir, err)
		}
		l.buf = ents
	}

	name := l.buf[0].Name()
	l.buf[0] = nil
	l.buf = l.buf[1:]
	return filepath.Join(l.dir, name), nil
}

func (l *localLister) Close() error {
	return l.f.Close()
}
