package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoacoustics/emu/internal/config"
)

func TestNewLogger(t *testing.T) {
	cfg := config.NewAppConfigWithOptions(
		config.WithLogLevel("DEBUG"),
		config.WithLogFormat(config.LogFormatJSON),
	)
	logger := NewLogger(cfg)
	require.NotNil(t, logger)
	assert.NotNil(t, logger.Slog())
	assert.True(t, logger.Slog().Enabled(context.Background(), slog.LevelDebug))
}

func TestLogger_JSONLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, config.LogFormatJSON, "WARN")

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message", "path", "a.flac")
	logger.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn message", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "a.flac", entry["path"])
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, config.LogFormatJSON, "INFO").With("problem", "FL010")
	logger.Info("checked")
	assert.Contains(t, buf.String(), `"problem":"FL010"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, parseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}

func TestTerminalHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	h := newTerminalHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	ts := time.Date(2026, 1, 15, 10, 30, 45, 123000000, time.UTC)
	r := slog.NewRecord(ts, slog.LevelWarn, "extractor failed", 0)
	r.AddAttrs(slog.String("path", "my file.flac"), slog.Int("blocks", 3))
	require.NoError(t, h.Handle(context.Background(), r))

	out := buf.String()
	assert.Contains(t, out, "10:30:45.123")
	assert.Contains(t, out, "WRN")
	assert.Contains(t, out, "extractor failed")
	assert.Contains(t, out, `"my file.flac"`)
	assert.Contains(t, out, "3")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestTerminalHandler_Levels(t *testing.T) {
	tests := []struct {
		level    slog.Level
		expected string
	}{
		{slog.LevelDebug, "DBG"},
		{slog.LevelInfo, "INF"},
		{slog.LevelWarn, "WRN"},
		{slog.LevelError, "ERR"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			var buf bytes.Buffer
			h := newTerminalHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
			require.NoError(t, h.Handle(context.Background(), slog.NewRecord(time.Now(), tt.level, "msg", 0)))
			assert.Contains(t, buf.String(), tt.expected)
		})
	}
}

func TestTerminalHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTerminalHandler(&buf, nil)).With("path", "a.wav").WithGroup("fix")
	logger.Info("patched", "action", "rename")

	out := buf.String()
	assert.Contains(t, out, "path=")
	assert.NotContains(t, out, "fix.path=")
	assert.Contains(t, out, "fix.action=")
	assert.Contains(t, out, "rename")

	buf.Reset()
	logger.Debug("hidden")
	assert.Empty(t, buf.String())
}
