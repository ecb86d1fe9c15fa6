package ui

import (
	"fmt"

	"github.com/bamsammich/rdu/internal/stats"
)

// CompletionSummary builds the verbose end-of-run line from a snapshot.
// Format: done ✓  entries 48,917  files 40,002  dirs 8,915  size 2.1GiB  avg 9,120/s  time 5s  errors 0
func CompletionSummary(snap stats.Snapshot, f SizeFormat) string {
	avg := 0.0
	if snap.Elapsed.Seconds() > 0 {
		avg = float64(snap.Entries()) / snap.Elapsed.Seconds()
	}

	icon := "✓"
	if snap.Failed > 0 {
		icon = "✗"
	}
	if f == Raw {
		f = Binary
	}

	return fmt.Sprintf("done %s  entries %s  files %s  dirs %s  size %s  avg %s  time %s  errors %d",
		icon,
		FormatCount(snap.Entries()),
		FormatCount(snap.Files),
		FormatCount(snap.Dirs),
		FormatSize(snap.Bytes, f),
		FormatRate(avg),
		FormatDuration(snap.Elapsed),
		snap.Failed,
	)
}
