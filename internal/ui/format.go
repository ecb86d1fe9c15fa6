package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	units "github.com/docker/go-units"
)

// SizeFormat selects how totals are rendered.
type SizeFormat int

const (
	// Raw prints the exact byte count.
	Raw SizeFormat = iota
	// Binary uses powers of 1024 (KiB, MiB, ...).
	Binary
	// Decimal uses powers of 1000 (kB, MB, ...).
	Decimal
)

// FormatSize renders a byte count in the requested format.
func FormatSize(n uint64, f SizeFormat) string {
	switch f {
	case Binary:
		return units.BytesSize(float64(n))
	case Decimal:
		return units.HumanSize(float64(n))
	default:
		return strconv.FormatUint(n, 10)
	}
}

// SummaryLine is the single line printed on success: size, a tab, the root.
func SummaryLine(n uint64, f SizeFormat, root string) string {
	return FormatSize(n, f) + "\t" + root
}

// FormatRate formats an entries-per-second rate.
func FormatRate(perSec float64) string {
	if perSec <= 0 {
		return "0/s"
	}
	if perSec < 10 {
		return fmt.Sprintf("%.1f/s", perSec)
	}
	return FormatCount(int64(perSec+0.5)) + "/s"
}

// FormatCount formats an integer with comma separators.
func FormatCount(n int64) string {
	if n < 0 {
		return "-" + FormatCount(-n)
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		b.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// WorkerIndicator renders busy out of total slots, e.g. ▪▪▪□□□.
func WorkerIndicator(busy, total int) string {
	busy = min(max(busy, 0), total)
	return strings.Repeat("▪", busy) + strings.Repeat("□", max(total-busy, 0))
}

// Sparkline renders the last width samples as block characters, scaled to
// the largest sample.
func Sparkline(data []float64, width int) string {
	if width <= 0 {
		return ""
	}
	blocks := []rune("▁▂▃▄▅▆▇█")

	samples := make([]float64, width)
	if len(data) >= width {
		copy(samples, data[len(data)-width:])
	} else {
		copy(samples[width-len(data):], data)
	}

	peak := 0.0
	for _, v := range samples {
		peak = max(peak, v)
	}

	out := make([]rune, width)
	for i, v := range samples {
		if peak <= 0 || v <= 0 {
			out[i] = blocks[0]
			continue
		}
		out[i] = blocks[min(int(v/peak*float64(len(blocks)-1)), len(blocks)-1)]
	}
	return string(out)
}

// FormatDuration formats elapsed time concisely. Sub-second durations keep
// millisecond precision.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
