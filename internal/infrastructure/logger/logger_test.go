package logger

import (
	"context"
	"testing"

	"github.com/gasflow/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := New(config.LogConfig{Level: "debug", Format: format, Output: "stdout"})
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zap.DebugLevel))
	}

	t.Run("unknown level defaults to info", func(t *testing.T) {
		l, err := New(config.LogConfig{Level: "verbose", Format: "json", Output: "stdout"})
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zap.DebugLevel))
		assert.True(t, l.Core().Enabled(zap.InfoLevel))
	})
}

func TestFileOutputRotates(t *testing.T) {
	t.Run("file paths go through the rotating sink", func(t *testing.T) {
		path := t.TempDir() + "/gasflow.log"
		l, err := New(config.LogConfig{Level: "info", Format: "json", Output: path})
		require.NoError(t, err)

		l.Info("rotation smoke")
		require.NoError(t, l.Sync())
		assert.FileExists(t, path)
	})

	t.Run("zero rotation settings fall back to defaults", func(t *testing.T) {
		r := newRotor(config.LogConfig{Output: "/var/log/gasflow.log"})
		assert.Equal(t, 100, r.MaxSize)
		assert.Equal(t, 5, r.MaxBackups)
		assert.Equal(t, 30, r.MaxAge)
	})

	t.Run("explicit settings win", func(t *testing.T) {
		r := newRotor(config.LogConfig{Output: "/var/log/gasflow.log", MaxSizeMB: 10, MaxBackups: 2, MaxAgeDays: 7})
		assert.Equal(t, 10, r.MaxSize)
		assert.Equal(t, 2, r.MaxBackups)
		assert.Equal(t, 7, r.MaxAge)
	})
}

func TestContextEnrichment(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := zap.New(core)

	ctx := WithContext(context.Background(), l)
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithTenantID(ctx, "tenant-1")
	ctx = WithUserID(ctx, "user-1")

	L(ctx).Info("hello")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "tenant-1", fields["tenant_id"])
	assert.Equal(t, "user-1", fields["user_id"])
}

func TestLWithoutLogger(t *testing.T) {
	// must not panic and must not write anywhere
	L(context.Background()).Info("dropped")
}

func TestMapGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, mapGormLevel("silent"))
	assert.Equal(t, gormlogger.Info, mapGormLevel("debug"))
	assert.Equal(t, gormlogger.Warn, mapGormLevel(""))
}
