package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/Londondannyboy/quest-sub002/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat_InfoLevel(t *testing.T) {
	l := New(config.LoggingConfig{Level: "info", Format: "json"})
	assert.NotNil(t, l)
	assert.NotNil(t, l.logger)
}

func TestNew_TextFormat_DebugLevel(t *testing.T) {
	l := New(config.LoggingConfig{Level: "debug", Format: "text"})
	assert.NotNil(t, l)
	assert.NotNil(t, l.logger)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":       slog.LevelDebug,
		"info":        slog.LevelInfo,
		"warn":        slog.LevelWarn,
		"error":       slog.LevelError,
		"unspecified": slog.LevelInfo,
	}
	for input, expected := range cases {
		assert.Equal(t, expected, parseLevel(input))
	}
}

func TestLogger_WithWorkflowAttachesBothIDs(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	l.WithWorkflow("wf-1", "exec-1").Info("phase completed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "wf-1", entry["workflow_id"])
	assert.Equal(t, "exec-1", entry["execution_id"])
	assert.Equal(t, "phase completed", entry["msg"])
}

func TestLogger_ErrorContextWritesToHandler(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	l.ErrorContext(context.Background(), "adapter failed", "adapter", "news_search")

	assert.True(t, strings.Contains(buf.String(), "adapter failed"))
	assert.True(t, strings.Contains(buf.String(), "news_search"))
}

func TestDefault_ReturnsNonNilAndIsReplaceable(t *testing.T) {
	assert.NotNil(t, Default())

	replacement := New(config.LoggingConfig{Level: "warn", Format: "text"})
	SetDefault(replacement)
	assert.Same(t, replacement, Default())
}
