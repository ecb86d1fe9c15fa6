package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/bamsammich/rdu/internal/stats"
	"github.com/bamsammich/rdu/internal/transport"
)

// Strategy selects how a Walker schedules traversal work.
type Strategy int

const (
	// Sequential walks with a single goroutine and a heap-resident stack.
	Sequential Strategy = iota
	// FanOut starts one goroutine per subdirectory, without bound.
	FanOut
	// Pool runs a fixed number of workers over a shared directory queue.
	Pool
	// EventLoop drives all operations from one loop reacting to completions.
	EventLoop
)

// DefaultStrategy is used when none is configured.
const DefaultStrategy = EventLoop

var strategyNames = [...]string{
	Sequential: "sequential",
	FanOut:     "fanout",
	Pool:       "pool",
	EventLoop:  "eventloop",
}

func (s Strategy) String() string {
	if s >= 0 && int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// Strategies lists every strategy in declaration order.
func Strategies() []Strategy {
	return []Strategy{Sequential, FanOut, Pool, EventLoop}
}

// ParseStrategy parses a strategy name, case-insensitively.
func ParseStrategy(name string) (Strategy, error) {
	for i, n := range strategyNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return Strategy(i), nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q (want one of %s)", name, strings.Join(strategyNames[:], ", "))
}

// DefaultWorkers is the worker count used by Pool when none is configured.
func DefaultWorkers() int {
	return min(runtime.NumCPU()*2, 32)
}

// Walker computes the total apparent size of regular files under a root
// without following symlinks.
type Walker interface {
	Total(ctx context.Context, root string) (uint64, error)
}

// Config describes a traversal.
type Config struct {
	Source   transport.Source
	Stats    *stats.Collector
	Strategy Strategy
	// Workers is the worker count for Pool (<= 0 means DefaultWorkers) and
	// the cap on in-flight operations for EventLoop (<= 0 means uncapped).
	// Sequential and FanOut ignore it.
	Workers int
}

// New returns the Walker for cfg.Strategy.
//
//nolint:ireturn // one implementation per strategy
func New(cfg Config) (Walker, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("engine: no source configured")
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}
	src := tracked{src: cfg.Source, stats: cfg.Stats}

	switch cfg.Strategy {
	case Sequential:
		return &sequential{src: src}, nil
	case FanOut:
		return &fanOut{src: src}, nil
	case Pool:
		workers := cfg.Workers
		if workers <= 0 {
			workers = DefaultWorkers()
		}
		return &pool{src: src, workers: workers}, nil
	case EventLoop:
		return &eventLoop{src: src, limit: max(cfg.Workers, 0)}, nil
	default:
		return nil, fmt.Errorf("engine: unknown strategy %s", cfg.Strategy)
	}
}

// Result is the outcome of a traversal.
type Result struct {
	Err   error
	Stats stats.Snapshot
	Total uint64
}

// Run computes the total under root, blocking until complete. No partial
// total is reported when Err is set.
func Run(ctx context.Context, cfg Config, root string) Result {
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}
	w, err := New(cfg)
	if err != nil {
		return Result{Err: err}
	}

	slog.Debug("traversal starting",
		"root", root,
		"strategy", cfg.Strategy,
		"workers", cfg.Workers,
	)
	start := time.Now()
	total, err := w.Total(ctx, root)
	snap := cfg.Stats.Snapshot()
	if err != nil {
		slog.Debug("traversal failed", "root", root, "error", err, "stats", snap)
		return Result{Stats: snap, Err: err}
	}

	slog.Debug("traversal complete",
		"root", root,
		"total", total,
		"elapsed", time.Since(start),
		"stats", snap,
	)
	return Result{Total: total, Stats: snap}
}
