package engine

import "github.com/bamsammich/rdu/internal/transport"

// Aggregate folds a directory's direct file bytes with the totals of its
// subdirectories. The fold is a plain sum, so the order in which partials
// arrive never changes the result.
func Aggregate(fileBytes uint64, partials ...uint64) uint64 {
	total := fileBytes
	for _, p := range partials {
		total += p
	}
	return total
}

// contribution is what a single resolved entry adds on its own: its length
// for regular files, nothing for anything else.
func contribution(e transport.Entry) uint64 {
	if e.Kind == transport.KindFile {
		return e.Size
	}
	return 0
}
