package engine

import (
	"context"
	"errors"
	"io"

	"github.com/bamsammich/rdu/internal/stats"
	"github.com/bamsammich/rdu/internal/transport"
)

// tracked wraps a Source and feeds the stats collector around every
// operation. All strategies go through it.
type tracked struct {
	src   transport.Source
	stats *stats.Collector
}

func (t tracked) resolve(ctx context.Context, path string) (transport.Entry, error) {
	t.stats.OpStarted()
	e, err := t.src.Resolve(ctx, path)
	t.stats.OpFinished()
	if err != nil {
		t.stats.AddFailed()
		return transport.Entry{}, err
	}

	switch e.Kind {
	case transport.KindFile:
		t.stats.AddFile(e.Size)
	case transport.KindDir:
		t.stats.AddDir()
	case transport.KindSymlink:
		t.stats.AddSymlink()
	default:
		t.stats.AddOther()
	}
	return e, nil
}

//nolint:ireturn // passes through the source's Lister
func (t tracked) list(ctx context.Context, dir string) (transport.Lister, error) {
	t.stats.OpStarted()
	l, err := t.src.List(ctx, dir)
	t.stats.OpFinished()
	if err != nil {
		t.stats.AddFailed()
	}
	return l, err
}

func (t tracked) next(ctx context.Context, l transport.Lister) (string, error) {
	t.stats.OpStarted()
	p, err := l.Next(ctx)
	t.stats.OpFinished()
	if err != nil && !errors.Is(err, io.EOF) {
		t.stats.AddFailed()
	}
	return p, err
}

// children appends every child of dir to dst. A failure part way through
// discards what was read so far.
func (t tracked) children(ctx context.Context, dir string, dst []string) ([]string, error) {
	l, err := t.list(ctx, dir)
	if err != nil {
		return dst, err
	}
	defer l.Close()

	mark := len(dst)
	for {
		p, err := t.next(ctx, l)
		if errors.Is(err, io.EOF) {
			return dst, nil
		}
		if err != nil {
			return dst[:mark], err
		}
		dst = append(dst, p)
	}
}
