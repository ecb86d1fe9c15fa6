package transport

import (
	"context"

	"golang.org/x/time/rate"
)

// maxThrottleBurst caps how many operations may pass back to back after an
// idle period.
const maxThrottleBurst = 64

// Compile-time interface checks.
var (
	_ Source = (*Throttled)(nil)
	_ Lister = (*throttledLister)(nil)
)

// Throttled gates every Resolve and every Lister.Next of the wrapped Source
// through one shared limiter, capping metadata operations per second across
// all goroutines.
type Throttled struct {
	src     Source
	limiter *rate.Limiter
}

// NewThrottled wraps src so that at most opsPerSec metadata operations run
// per second.
func NewThrottled(src Source, opsPerSec float64) *Throttled {
	burst := int(opsPerSec)
	if burst < 1 {
		burst = 1
	}
	if burst > maxThrottleBurst {
		burst = maxThrottleBurst
	}
	return &Throttled{
		src:     src,
		limiter: rate.NewLimiter(rate.Limit(opsPerSec), burst),
	}
}

func (t *Throttled) Resolve(ctx context.Context, path string) (Entry, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return Entry{}, err
	}
	return t.src.Resolve(ctx, path)
}

//nolint:ireturn // implements Source interface
func (t *Throttled) List(ctx context.Context, path string) (Lister, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	l, err := t.src.List(ctx, path)
	if err != nil {
		return nil, err
	}
	return &throttledLister{l: l, limiter: t.limiter}, nil
}

func (t *Throttled) Close() error { return t.src.Close() }

type throttledLister struct {
	l       Lister
	limiter *rate.Limiter
}

func (tl *throttledLister) Next(ctx context.Context) (string, error) {
	if err := tl.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return tl.l.Next(ctx)
}

func (tl *throttledLister) Close() error { return tl.l.Close() }
