package filter

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadFile appends the rules in path to the chain. One rule per line:
//
//	- pattern   exclude
//	+ pattern   include
//	pattern     exclude
//	# comment
func (c *Chain) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open exclude file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var addErr error
		switch {
		case strings.HasPrefix(line, "+ "):
			addErr = c.AddInclude(strings.TrimSpace(line[2:]))
		case strings.HasPrefix(line, "- "):
			addErr = c.AddExclude(strings.TrimSpace(line[2:]))
		default:
			addErr = c.AddExclude(line)
		}
		if addErr != nil {
			return fmt.Errorf("%s line %d: %w", path, lineNum, addErr)
		}
	}
	return scanner.Err()
}
