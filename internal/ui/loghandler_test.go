package ui_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/rdu/internal/ui"
)

func TestMultiHandler_FansOut(t *testing.T) {
	t.Parallel()

	var textBuf, jsonBuf bytes.Buffer
	textH := slog.NewTextHandler(&textBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	jsonH := slog.NewJSONHandler(&jsonBuf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(ui.NewMultiHandler(textH, jsonH))
	logger.Info("traversal complete", "root", "/srv", "bytes", 150)

	assert.Contains(t, textBuf.String(), "traversal complete")
	assert.Contains(t, textBuf.String(), "root=/srv")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &rec))
	assert.Equal(t, "traversal complete", rec["msg"])
	assert.InDelta(t, 150, rec["bytes"], 0)
}

// The --log file gets every record at Debug tagged with one run id, while
// stderr keeps its own level and never shows the id.
func TestMultiHandler_RunID(t *testing.T) {
	t.Parallel()

	var stderr, logFile bytes.Buffer
	runID := uuid.NewString()
	textH := slog.NewTextHandler(&stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	jsonH := slog.NewJSONHandler(&logFile, &slog.HandlerOptions{Level: slog.LevelDebug}).
		WithAttrs([]slog.Attr{slog.String("run_id", runID)})

	logger := slog.New(ui.NewMultiHandler(textH, jsonH))
	logger.Debug("walk started", "strategy", "eventloop", "workers", 4)
	logger.Info("traversal complete", "bytes", 150)

	assert.NotContains(t, stderr.String(), "walk started")
	assert.Contains(t, stderr.String(), "traversal complete")
	assert.NotContains(t, stderr.String(), runID)

	lines := strings.Split(strings.TrimSpace(logFile.String()), "\n")
	require.Len(t, lines, 2)
	for i, want := range []string{"walk started", "traversal complete"} {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[i]), &rec))
		assert.Equal(t, want, rec["msg"])
		assert.Equal(t, runID, rec["run_id"])
	}
	_, err := uuid.Parse(runID)
	require.NoError(t, err)
}

func TestMultiHandler_LevelFiltering(t *testing.T) {
	t.Parallel()

	var debugBuf, warnBuf bytes.Buffer
	debugH := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	warnH := slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn})

	logger := slog.New(ui.NewMultiHandler(debugH, warnH))
	logger.Info("info msg")
	logger.Warn("warn msg")

	// Debug handler sees both.
	assert.Contains(t, debugBuf.String(), "info msg")
	assert.Contains(t, debugBuf.String(), "warn msg")

	// Warn handler sees only warn.
	assert.NotContains(t, warnBuf.String(), "info msg")
	assert.Contains(t, warnBuf.String(), "warn msg")
}

func TestMultiHandler_Enabled(t *testing.T) {
	t.Parallel()

	warnH := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	errH := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError})

	m := ui.NewMultiHandler(warnH, errH)

	// Enabled if ANY handler accepts the level.
	assert.True(t, m.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, m.Enabled(context.Background(), slog.LevelError))
	assert.False(t, m.Enabled(context.Background(), slog.LevelInfo))
}

func TestMultiHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	m := ui.NewMultiHandler(h)
	logger := slog.New(m.WithAttrs([]slog.Attr{slog.String("component", "engine")}))

	logger.Info("hello")
	assert.Contains(t, buf.String(), "component=engine")
}

func TestMultiHandler_WithGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	m := ui.NewMultiHandler(h)
	logger := slog.New(m.WithGroup("rdu"))

	logger.Info("walk started", "strategy", "pool")

	lines := strings.TrimSpace(buf.String())
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines), &rec))

	group, ok := rec["rdu"].(map[string]any)
	require.True(t, ok, "expected group 'rdu' in JSON output")
	assert.Equal(t, "pool", group["strategy"])
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return assert.AnError }

func TestMultiHandler_JoinsErrors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ok := slog.NewTextHandler(&buf, nil)
	m := ui.NewMultiHandler(failingHandler{ok}, ok)

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "still written", 0)
	err := m.Handle(context.Background(), r)
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, buf.String(), "still written")
}
