package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Collector tracks traversal statistics using lock-free atomic counters.
// It is observational: strategies feed it, but totals are never read back
// from it.
type Collector struct {
	files       atomic.Int64
	dirs        atomic.Int64
	symlinks    atomic.Int64
	other       atomic.Int64
	failed      atomic.Int64
	bytes       atomic.Uint64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
	startTime   time.Time

	// Ring buffer, written only by Tick.
	mu            sync.Mutex
	entriesPerSec [ringSize]int64
	ringIdx       int
	ringCount     int // samples written, capped at ringSize
	lastEntries   int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	Files       int64
	Dirs        int64
	Symlinks    int64
	Other       int64
	Failed      int64
	Bytes       uint64
	MaxInFlight int64
	Elapsed     time.Duration
}

// Entries is the number of paths resolved so far.
func (s Snapshot) Entries() int64 {
	return s.Files + s.Dirs + s.Symlinks + s.Other
}

func (c *Collector) AddFile(size uint64) {
	c.files.Add(1)
	c.bytes.Add(size)
}

func (c *Collector) AddDir()     { c.dirs.Add(1) }
func (c *Collector) AddSymlink() { c.symlinks.Add(1) }
func (c *Collector) AddOther()   { c.other.Add(1) }
func (c *Collector) AddFailed()  { c.failed.Add(1) }

// OpStarted marks one metadata or listing operation as in flight and keeps
// the high-water mark.
func (c *Collector) OpStarted() {
	n := c.inFlight.Add(1)
	for {
		cur := c.maxInFlight.Load()
		if n <= cur || c.maxInFlight.CompareAndSwap(cur, n) {
			return
		}
	}
}

// OpFinished balances a previous OpStarted.
func (c *Collector) OpFinished() { c.inFlight.Add(-1) }

// InFlight returns the number of operations currently in flight.
func (c *Collector) InFlight() int64 { return c.inFlight.Load() }

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Files:       c.files.Load(),
		Dirs:        c.dirs.Load(),
		Symlinks:    c.symlinks.Load(),
		Other:       c.other.Load(),
		Failed:      c.failed.Load(),
		Bytes:       c.bytes.Load(),
		MaxInFlight: c.maxInFlight.Load(),
		Elapsed:     c.Elapsed(),
	}
}

// Tick records the entries resolved since the previous Tick into the ring
// buffer. Called once per second by the progress reporter.
func (c *Collector) Tick() {
	current := c.files.Load() + c.dirs.Load() + c.symlinks.Load() + c.other.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entriesPerSec[c.ringIdx] = current - c.lastEntries
	c.lastEntries = current
	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingRate returns average entries/sec over the last n samples.
func (c *Collector) RollingRate(n int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(n, c.ringCount)
	if count <= 0 {
		return 0
	}
	var sum int64
	for i := range count {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += c.entriesPerSec[idx]
	}
	return float64(sum) / float64(count)
}

// History returns up to the last n per-second samples, oldest first.
func (c *Collector) History(n int) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(n, c.ringCount)
	out := make([]float64, max(count, 0))
	for i := range count {
		idx := (c.ringIdx - count + i + ringSize) % ringSize
		out[i] = float64(c.entriesPerSec[idx])
	}
	return out
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"files=%d dirs=%d symlinks=%d other=%d failed=%d bytes=%d max_inflight=%d",
		s.Files, s.Dirs, s.Symlinks, s.Other, s.Failed, s.Bytes, s.MaxInFlight,
	)
}
