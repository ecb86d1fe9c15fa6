package filter_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/rdu/internal/engine"
	"github.com/bamsammich/rdu/internal/filter"
	"github.com/bamsammich/rdu/internal/transport"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

// layout:
//
//	keep.txt            10
//	app.log             20
//	node_modules/x.js   40
//	src/main.go         80
//	src/big.bin         5000
func filterTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.txt"), 10)
	writeFile(t, filepath.Join(root, "app.log"), 20)
	writeFile(t, filepath.Join(root, "node_modules", "x.js"), 40)
	writeFile(t, filepath.Join(root, "src", "main.go"), 80)
	writeFile(t, filepath.Join(root, "src", "big.bin"), 5000)
	return root
}

func TestSource_WithEngine(t *testing.T) {
	t.Parallel()
	root := filterTree(t)

	tests := []struct {
		name  string
		build func(c *filter.Chain)
		want  uint64
	}{
		{"no rules", func(*filter.Chain) {}, 5150},
		{"exclude glob", func(c *filter.Chain) { require.NoError(t, c.AddExclude("*.log")) }, 5130},
		{"prune directory", func(c *filter.Chain) { require.NoError(t, c.AddExclude("node_modules/")) }, 5110},
		{"anchored", func(c *filter.Chain) { require.NoError(t, c.AddExclude("src/*.bin")) }, 150},
		{"max size", func(c *filter.Chain) { c.SetMaxSize(1000) }, 150},
		{"min size", func(c *filter.Chain) { c.SetMinSize(50) }, 5080},
		{
			name: "include before exclude",
			build: func(c *filter.Chain) {
				require.NoError(t, c.AddInclude("*.go"))
				require.NoError(t, c.AddInclude("*/"))
				require.NoError(t, c.AddExclude("*"))
			},
			want: 80,
		},
	}

	for _, tt := range tests {
		for _, s := range engine.Strategies() {
			t.Run(tt.name+"/"+s.String(), func(t *testing.T) {
				t.Parallel()
				chain := filter.NewChain()
				tt.build(chain)

				w, err := engine.New(engine.Config{
					Source:   filter.Wrap(transport.NewLocal(), root, chain),
					Strategy: s,
					Workers:  2,
				})
				require.NoError(t, err)
				got, err := w.Total(context.Background(), root)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			})
		}
	}
}

func TestSource_RootNeverFiltered(t *testing.T) {
	t.Parallel()
	root := filterTree(t)
	f := filepath.Join(root, "keep.txt")

	chain := filter.NewChain()
	require.NoError(t, chain.AddExclude("*"))
	src := filter.Wrap(transport.NewLocal(), f, chain)

	e, err := src.Resolve(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, transport.KindFile, e.Kind)
	assert.Equal(t, uint64(10), e.Size)
}

func TestSource_RelativeRoot(t *testing.T) {
	root := filterTree(t)
	t.Chdir(root)

	chain := filter.NewChain()
	require.NoError(t, chain.AddExclude("/src/"))
	src := filter.Wrap(transport.NewLocal(), ".", chain)

	e, err := src.Resolve(context.Background(), "src")
	require.NoError(t, err)
	assert.Equal(t, transport.KindOther, e.Kind)

	e, err = src.Resolve(context.Background(), filepath.Join("node_modules", "x.js"))
	require.NoError(t, err)
	assert.Equal(t, transport.KindFile, e.Kind)
}

func TestSource_PassesErrors(t *testing.T) {
	t.Parallel()
	src := filter.Wrap(transport.NewLocal(), "/", filter.NewChain())
	_, err := src.Resolve(context.Background(), filepath.Join(t.TempDir(), "gone"))
	require.Error(t, err)
	assert.Equal(t, transport.NotFound, transport.KindOf(err))
}

func TestSource_RootSpellings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "data", "a"), 100)
	writeFile(t, filepath.Join(dir, "data", "b"), 7)
	writeFile(t, filepath.Join(dir, "data", "sub", "c.txt"), 30)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "x"), 0o755))
	t.Chdir(dir)

	roots := []string{"data", "./data", "data/", "data//", "x/../data", filepath.Join(dir, "data") + "/"}
	for _, root := range roots {
		for _, s := range engine.Strategies() {
			t.Run(root+"/"+s.String(), func(t *testing.T) {
				chain := filter.NewChain()
				require.NoError(t, chain.AddExclude("/a"))
				require.NoError(t, chain.AddExclude("sub/*.txt"))

				w, err := engine.New(engine.Config{
					Source:   filter.Wrap(transport.NewLocal(), root, chain),
					Strategy: s,
					Workers:  2,
				})
				require.NoError(t, err)
				got, err := w.Total(context.Background(), root)
				require.NoError(t, err)
				assert.Equal(t, uint64(7), got)
			})
		}
	}
}
