package logging

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	logger, level, err := New(Options{Environment: "production", Level: "warn"})
	require.NoError(t, err)
	defer logger.Sync() //nolint:errcheck

	assert.Equal(t, zapcore.WarnLevel, level.Level())
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	level.SetLevel(zapcore.DebugLevel)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, _, err := New(Options{Level: "chatty"})
	assert.Error(t, err)
}

func TestNewWritesFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "churnscope.log")
	logger, _, err := New(Options{Level: "info", File: file, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Info("batch scored", zap.Int("rows", 3))
	_ = logger.Sync()

	payload, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(payload), `"msg":"batch scored"`), string(payload))
	assert.Contains(t, string(payload), `"rows":3`)
}

func TestWatchLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0o600))

	_, level, err := New(Options{Level: "info"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, WatchLevel(ctx, path, level, zap.NewNop()))

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))

	assert.Eventually(t, func() bool {
		return level.Level() == zapcore.DebugLevel
	}, 5*time.Second, 20*time.Millisecond)
}
