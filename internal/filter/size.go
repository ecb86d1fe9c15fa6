package filter

import (
	"fmt"
	"strings"

	units "github.com/docker/go-units"
)

// ParseSize parses a size such as 100, 100K, 1.5G or 2MiB. Suffixes are
// case-insensitive powers of 1024.
func ParseSize(s string) (uint64, error) {
	n, err := units.RAMInBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid size %q: must not be negative", s)
	}
	return uint64(n), nil
}
