package ui

import (
	"context"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/bamsammich/rdu/internal/stats"
)

const (
	ansiClearLine  = "\r\033[K"
	sparklineWidth = 12
)

// ProgressConfig configures a Progress reporter.
type ProgressConfig struct {
	Writer io.Writer
	Stats  *stats.Collector
	Format SizeFormat
	// Slots is the in-flight cap to draw next to the counters; 0 hides it.
	Slots int
	// Width truncates each line; 0 means unlimited.
	Width int
	// TTY redraws a single line in place. Otherwise a full line is
	// printed every PlainInterval.
	TTY           bool
	PlainInterval time.Duration
}

// Progress periodically reports traversal counters on a writer, normally
// stderr. It only reads from the collector.
type Progress struct {
	cfg   ProgressConfig
	drawn bool
}

// NewProgress creates a reporter. Call Run to start it.
func NewProgress(cfg ProgressConfig) *Progress {
	if cfg.PlainInterval <= 0 {
		cfg.PlainInterval = 5 * time.Second
	}
	return &Progress{cfg: cfg}
}

// Run reports until ctx is done. On a TTY the line is cleared before
// returning so the result prints on a clean line.
func (p *Progress) Run(ctx context.Context) {
	// First sample comes early so the rate is available quickly.
	secTicker := time.NewTicker(250 * time.Millisecond)
	defer secTicker.Stop()
	firstTick := true

	interval := p.cfg.PlainInterval
	if p.cfg.TTY {
		interval = 100 * time.Millisecond
	}
	redraw := time.NewTicker(interval)
	defer redraw.Stop()

	for {
		select {
		case <-ctx.Done():
			p.clear()
			return
		case <-secTicker.C:
			p.cfg.Stats.Tick()
			if firstTick {
				firstTick = false
				secTicker.Reset(time.Second)
			}
		case <-redraw.C:
			p.draw()
		}
	}
}

// Line renders the current progress line.
func (p *Progress) Line() string {
	snap := p.cfg.Stats.Snapshot()
	line := fmt.Sprintf("scanning  entries %s  files %s  dirs %s  size %s  %s",
		FormatCount(snap.Entries()),
		FormatCount(snap.Files),
		FormatCount(snap.Dirs),
		FormatSize(snap.Bytes, p.sizeFormat()),
		FormatRate(p.cfg.Stats.RollingRate(5)),
	)
	if p.cfg.TTY {
		line += " " + Sparkline(p.cfg.Stats.History(sparklineWidth), sparklineWidth)
	}
	if p.cfg.Slots > 0 {
		line += "  " + WorkerIndicator(int(p.cfg.Stats.InFlight()), p.cfg.Slots)
	}
	if snap.Failed > 0 {
		line += fmt.Sprintf("  errors %d", snap.Failed)
	}
	return truncate(line, p.cfg.Width)
}

func (p *Progress) sizeFormat() SizeFormat {
	if p.cfg.Format == Raw {
		return Binary
	}
	return p.cfg.Format
}

func (p *Progress) draw() {
	if p.cfg.TTY {
		fmt.Fprint(p.cfg.Writer, ansiClearLine+p.Line())
		p.drawn = true
		return
	}
	fmt.Fprintln(p.cfg.Writer, "progress: "+p.Line())
}

func (p *Progress) clear() {
	if p.drawn {
		fmt.Fprint(p.cfg.Writer, ansiClearLine)
		p.drawn = false
	}
}

func truncate(s string, width int) string {
	if width <= 0 || utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width])
}
