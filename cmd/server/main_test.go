package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hongminglow/finance-ledger/internal/config"
)

func TestNewLoggerHonoursLevelAndFormat(t *testing.T) {
	logger := newLogger(config.Config{LogLevel: slog.LevelWarn, LogFormat: config.LogFormatJSON})
	_, isJSON := logger.Handler().(*slog.JSONHandler)
	assert.True(t, isJSON)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))

	logger = newLogger(config.Config{LogLevel: slog.LevelDebug, LogFormat: config.LogFormatText})
	_, isText := logger.Handler().(*slog.TextHandler)
	assert.True(t, isText)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}
