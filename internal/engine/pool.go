package engine

import (
	"context"
	"sync"

	"github.com/bamsammich/rdu/internal/transport"
)

// pool is the bounded form of fanOut: a fixed set of workers pulls pending
// directories from a shared queue. Each worker keeps its own partial sum,
// and the partials are folded once every worker has exited.
type pool struct {
	src     tracked
	workers int
}

func (p *pool) Total(ctx context.Context, root string) (uint64, error) {
	e, err := p.src.resolve(ctx, root)
	if err != nil {
		return 0, err
	}
	if e.Kind != transport.KindDir {
		return contribution(e), nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		firstErr error
		failOnce sync.Once
	)
	fail := func(err error) {
		failOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	queue := make(chan string, p.workers*2)
	var outstanding sync.WaitGroup // directories queued but not yet processed

	// Seed with root.
	outstanding.Add(1)
	queue <- root

	// Once every directory is accounted for, close the queue so workers
	// exit their loop.
	go func() {
		outstanding.Wait()
		close(queue)
	}()

	partials := make([]uint64, p.workers)
	var workerWg sync.WaitGroup
	for i := range p.workers {
		workerWg.Add(1)
		go func() {
			defer workerWg.Done()
			partials[i] = p.work(ctx, queue, &outstanding, fail)
		}()
	}
	workerWg.Wait()

	if firstErr != nil {
		return 0, firstErr
	}
	return Aggregate(0, partials...), nil
}

// work processes directories until the queue closes and returns the bytes
// this worker accounted for. Subdirectories go to the shared queue when it
// has room and onto a worker-local stack otherwise, so a worker never blocks
// on a full queue while holding undone work.
func (p *pool) work(ctx context.Context, queue chan string, outstanding *sync.WaitGroup, fail func(error)) uint64 {
	var (
		sum   uint64
		local []string
	)
	for {
		var dir string
		if n := len(local); n > 0 {
			dir = local[n-1]
			local = local[:n-1]
		} else {
			d, ok := <-queue
			if !ok {
				return sum
			}
			dir = d
		}

		// After a failure or cancellation the remaining directories are only
		// marked done. fail keeps the first cause.
		if err := ctx.Err(); err != nil {
			fail(err)
			outstanding.Done()
			continue
		}
		n, subdirs, err := p.scanDir(ctx, dir)
		if err != nil {
			fail(err)
		} else {
			sum += n
			for _, sub := range subdirs {
				outstanding.Add(1)
				select {
				case queue <- sub:
				default:
					local = append(local, sub)
				}
			}
		}
		outstanding.Done()
	}
}

// scanDir lists dir and resolves each child, returning the direct file bytes
// and the subdirectories still to visit.
func (p *pool) scanDir(ctx context.Context, dir string) (uint64, []string, error) {
	children, err := p.src.children(ctx, dir, nil)
	if err != nil {
		return 0, nil, err
	}

	var fileBytes uint64
	var subdirs []string
	for _, child := range children {
		e, err := p.src.resolve(ctx, child)
		if err != nil {
			return 0, nil, err
		}
		if e.Kind == transport.KindDir {
			subdirs = append(subdirs, child)
			continue
		}
		fileBytes += contribution(e)
	}
	return fileBytes, subdirs, nil
}
