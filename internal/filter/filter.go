// Package filter decides which entries below a root take part in a total.
package filter

import "github.com/bamsammich/rdu/internal/transport"

// Rule is a single include or exclude pattern.
type Rule struct {
	pattern *compiledPattern
	Include bool
}

// Chain is an ordered list of rules plus optional file size bounds.
// The first matching rule decides; unmatched entries are kept.
type Chain struct {
	rules   []Rule
	minSize uint64
	maxSize uint64
}

// NewChain creates an empty chain that keeps everything.
func NewChain() *Chain {
	return &Chain{}
}

// AddExclude appends an exclude rule for pattern.
func (c *Chain) AddExclude(pattern string) error {
	return c.add(pattern, false)
}

// AddInclude appends an include rule for pattern.
func (c *Chain) AddInclude(pattern string) error {
	return c.add(pattern, true)
}

func (c *Chain) add(pattern string, include bool) error {
	cp, err := compilePattern(pattern)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, Rule{pattern: cp, Include: include})
	return nil
}

// SetMinSize drops regular files smaller than n bytes. Zero disables it.
func (c *Chain) SetMinSize(n uint64) { c.minSize = n }

// SetMaxSize drops regular files larger than n bytes. Zero disables it.
func (c *Chain) SetMaxSize(n uint64) { c.maxSize = n }

// Empty reports whether the chain keeps every entry.
func (c *Chain) Empty() bool {
	return len(c.rules) == 0 && c.minSize == 0 && c.maxSize == 0
}

// Match reports whether the entry at relPath (slash-separated, relative to
// the root) is kept. Size bounds only apply to regular files.
func (c *Chain) Match(relPath string, kind transport.Kind, size uint64) bool {
	if kind == transport.KindFile {
		if c.minSize > 0 && size < c.minSize {
			return false
		}
		if c.maxSize > 0 && size > c.maxSize {
			return false
		}
	}

	isDir := kind == transport.KindDir
	for _, rule := range c.rules {
		if rule.pattern.match(relPath, isDir) {
			return rule.Include
		}
	}
	return true
}
