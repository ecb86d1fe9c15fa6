package engine_test

import (
	"context"
	"hash/fnv"
	"io"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bamsammich/rdu/internal/transport"
)

type memNode struct {
	children []string
	size     uint64
	kind     transport.Kind
}

// memSource is an in-memory transport.Source. Paths are opaque ids, so deep
// or wide trees cost nothing but map entries. Listing order is a seeded
// permutation of the declared children.
type memSource struct {
	nodes map[string]*memNode

	// Injected failures, keyed by path.
	failResolve map[string]error
	failList    map[string]error
	failNext    map[string]error

	delay time.Duration
	seed  uint64

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
	openListers atomic.Int64
	ops         atomic.Int64
}

func newMemSource() *memSource {
	return &memSource{
		nodes:       make(map[string]*memNode),
		failResolve: make(map[string]error),
		failList:    make(map[string]error),
		failNext:    make(map[string]error),
	}
}

func (m *memSource) dir(id string, children ...string) *memSource {
	m.nodes[id] = &memNode{kind: transport.KindDir, children: children}
	return m
}

func (m *memSource) file(id string, size uint64) *memSource {
	m.nodes[id] = &memNode{kind: transport.KindFile, size: size}
	return m
}

func (m *memSource) symlink(id string) *memSource {
	m.nodes[id] = &memNode{kind: transport.KindSymlink}
	return m
}

func (m *memSource) other(id string) *memSource {
	m.nodes[id] = &memNode{kind: transport.KindOther}
	return m
}

func (m *memSource) enter(ctx context.Context) error {
	m.ops.Add(1)
	n := m.inFlight.Add(1)
	for {
		peak := m.maxInFlight.Load()
		if n <= peak || m.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}
	if m.delay > 0 {
		t := time.NewTimer(m.delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
	}
	return ctx.Err()
}

func (m *memSource) leave() { m.inFlight.Add(-1) }

func (m *memSource) Resolve(ctx context.Context, path string) (transport.Entry, error) {
	defer m.leave()
	if err := m.enter(ctx); err != nil {
		return transport.Entry{}, err
	}
	if err, ok := m.failResolve[path]; ok {
		return transport.Entry{}, err
	}
	n, ok := m.nodes[path]
	if !ok {
		return transport.Entry{}, notFound("lstat", path)
	}
	return transport.Entry{Path: path, Kind: n.kind, Size: n.size}, nil
}

//nolint:ireturn // implements transport.Source
func (m *memSource) List(ctx context.Context, path string) (transport.Lister, error) {
	defer m.leave()
	if err := m.enter(ctx); err != nil {
		return nil, err
	}
	if err, ok := m.failList[path]; ok {
		return nil, err
	}
	n, ok := m.nodes[path]
	if !ok {
		return nil, notFound("opendir", path)
	}

	children := append([]string(nil), n.children...)
	h := fnv.New64a()
	_, _ = h.Write([]byte(path))
	r := rand.New(rand.NewPCG(m.seed, h.Sum64())) //nolint:gosec // test ordering only
	r.Shuffle(len(children), func(i, j int) {
		children[i], children[j] = children[j], children[i]
	})

	m.openListers.Add(1)
	return &memLister{src: m, dir: path, children: children}, nil
}

func (m *memSource) Close() error { return nil }

type memLister struct {
	src      *memSource
	dir      string
	children []string
	closed   sync.Once
}

func (l *memLister) Next(ctx context.Context) (string, error) {
	defer l.src.leave()
	if err := l.src.enter(ctx); err != nil {
		return "", err
	}
	if err, ok := l.src.failNext[l.dir]; ok {
		return "", err
	}
	if len(l.children) == 0 {
		return "", io.EOF
	}
	p := l.children[0]
	l.children = l.children[1:]
	return p, nil
}

func (l *memLister) Close() error {
	l.closed.Do(func() { l.src.openListers.Add(-1) })
	return nil
}

func notFound(op, path string) error {
	return &transport.PathError{Op: op, Path: path, Err: fs.ErrNotExist, Kind: transport.NotFound}
}

func denied(op, path string) error {
	return &transport.PathError{Op: op, Path: path, Err: fs.ErrPermission, Kind: transport.PermissionDenied}
}

// sampleTree is the reference layout used across strategy tests:
//
//	root/a        file 100
//	root/b/c      file 50
//	root/b/d  ->  root/a (symlink)
//	root/e        empty directory
func sampleTree() *memSource {
	return newMemSource().
		dir("root", "root/a", "root/b", "root/e").
		dir("root/e").
		file("root/a", 100).
		dir("root/b", "root/b/c", "root/b/d").
		file("root/b/c", 50).
		symlink("root/b/d")
}

// chain builds a single path of depth nested directories with a file of
// size 1 at the bottom and returns the root id.
func chain(m *memSource, depth int) string {
	for i := range depth {
		id := "d" + strconv.Itoa(i)
		next := "d" + strconv.Itoa(i+1)
		m.dir(id, next)
	}
	m.file("d"+strconv.Itoa(depth), 1)
	return "d0"
}

// writeSampleTree lays out the reference tree on disk and returns its root.
func writeSampleTree(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "root")

	require.NoError(t, os.MkdirAll(filepath.Join(root, "b"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "e"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a"), make([]byte, 100), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b", "c"), make([]byte, 50), 0o644))
	require.NoError(t, os.Symlink(filepath.Join(root, "a"), filepath.Join(root, "b", "d")))
	return root
}
