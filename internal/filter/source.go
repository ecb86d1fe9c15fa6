package filter

import (
	"context"
	"path"
	"path/filepath"

	"github.com/bamsammich/rdu/internal/transport"
)

var _ transport.Source = (*Source)(nil)

// Source applies a Chain to another Source. Entries the chain rejects
// resolve as KindOther with no size, so walkers neither count them nor
// descend into them. The root itself is never rejected.
type Source struct {
	src   transport.Source
	chain *Chain
	root  string
}

// Wrap filters src for a walk starting at root.
func Wrap(src transport.Source, root string, chain *Chain) *Source {
	return &Source{src: src, chain: chain, root: root}
}

func (s *Source) Resolve(ctx context.Context, p string) (transport.Entry, error) {
	e, err := s.src.Resolve(ctx, p)
	if err != nil {
		return e, err
	}
	rel := relPath(s.root, p)
	if rel == "" || s.chain.Match(rel, e.Kind, e.Size) {
		return e, nil
	}
	return transport.Entry{Path: p, Kind: transport.KindOther}, nil
}

//nolint:ireturn // implements transport.Source
func (s *Source) List(ctx context.Context, p string) (transport.Lister, error) {
	return s.src.List(ctx, p)
}

func (s *Source) Close() error { return s.src.Close() }

// relPath returns p relative to root with forward slashes, or "" for the
// root itself. Both sides are cleaned, so "./data", "data/" and "data"
// name the same root.
func relPath(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		// Mixed absolute and relative spellings; match on the cleaned path.
		rel = path.Clean(filepath.ToSlash(p))
	}
	if rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}
