package engine

import (
	"context"

	"github.com/bamsammich/rdu/internal/transport"
)

// sequential is the single-goroutine reference walker. Pending paths live
// on a heap slice, so tree depth never grows the call stack.
type sequential struct {
	src tracked
}

func (s *sequential) Total(ctx context.Context, root string) (uint64, error) {
	stack := []string{root}
	var total uint64

	for len(stack) > 0 {
		path := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		e, err := s.src.resolve(ctx, path)
		if err != nil {
			return 0, err
		}
		if e.Kind != transport.KindDir {
			total += contribution(e)
			continue
		}
		stack, err = s.src.children(ctx, path, stack)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
