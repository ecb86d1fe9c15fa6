package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/bamsammich/rdu/internal/transport"
)

// fanOut starts one goroutine per subdirectory. Each directory waits for all
// of its children before reporting, and the first failure cancels the rest
// of its group.
//
// The number of live goroutines is unbounded: one per directory whose
// subtree is still in progress. A very wide or deep tree therefore holds a
// goroutine (and its stack) for every pending directory at once. Pool is the
// bounded alternative.
type fanOut struct {
	src tracked
}

func (f *fanOut) Total(ctx context.Context, root string) (uint64, error) {
	e, err := f.src.resolve(ctx, root)
	if err != nil {
		return 0, err
	}
	if e.Kind != transport.KindDir {
		return contribution(e), nil
	}
	return f.dir(ctx, root)
}

func (f *fanOut) dir(ctx context.Context, path string) (uint64, error) {
	children, err := f.src.children(ctx, path, nil)
	if err != nil {
		return 0, err
	}

	var fileBytes uint64
	var subdirs []string
	for _, child := range children {
		e, err := f.src.resolve(ctx, child)
		if err != nil {
			return 0, err
		}
		if e.Kind == transport.KindDir {
			subdirs = append(subdirs, child)
			continue
		}
		fileBytes += contribution(e)
	}
	if len(subdirs) == 0 {
		return fileBytes, nil
	}

	// Each child owns one slot, so no two goroutines write the same word.
	partials := make([]uint64, len(subdirs))
	g, gctx := errgroup.WithContext(ctx)
	for i, sub := range subdirs {
		g.Go(func() error {
			n, err := f.dir(gctx, sub)
			partials[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return Aggregate(fileBytes, partials...), nil
}
