package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMaskURL(t *testing.T) {
	assert.Equal(t, "postgres://***@db:5432/pressplan", maskURL("postgres://user:secret@db:5432/pressplan"))
	assert.Equal(t, "redis://localhost:6379/0", maskURL("redis://localhost:6379/0"))
}

func TestInitLogger(t *testing.T) {
	logger, err := initLogger("warn", "production")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = initLogger("", "development")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestCORSConfig(t *testing.T) {
	assert.True(t, corsConfig(nil).AllowAllOrigins)

	cfg := corsConfig([]string{"https://plant.example.com"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"https://plant.example.com"}, cfg.AllowOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestStartCleanup_InvalidSchedule(t *testing.T) {
	sweep := func(context.Context) (int64, error) { return 0, nil }
	c, err := startCleanup("every now and then", sweep, zap.NewNop())
	require.Error(t, err)
	assert.Nil(t, c)
}

func TestStartCleanup_SkipsOverlappingRunsThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	release := make(chan struct{})
	var runs int32
	sweep := func(context.Context) (int64, error) {
		atomic.AddInt32(&runs, 1)
		<-release
		return 0, nil
	}

	c, err := startCleanup("@every 1s", sweep, zap.New(core))
	require.NoError(t, err)

	// первый запуск висит, следующий тик пропускается и пишется в zap
	require.Eventually(t, func() bool {
		return logs.FilterLoggerName("cron").FilterMessageSnippet("skip").Len() > 0
	}, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))

	close(release)
	<-c.Stop().Done()
	assert.Positive(t, logs.FilterMessageSnippet("start").Len())
}
