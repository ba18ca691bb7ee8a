package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSlogRecordsReachZapCore(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := FromZap(zap.New(core), zap.NewAtomicLevelAt(zap.InfoLevel))

	l.Info("case accepted", "case_id", int64(4), "codigo", "B004")
	l.Debug("filtered out")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "case accepted", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "B004", fields["codigo"])
	assert.Equal(t, "oncofeliz", fields["service"])
}

func TestNewFallsBackToInfoOnBadLevel(t *testing.T) {
	l, err := New("loud", "dev")
	require.NoError(t, err)
	assert.Equal(t, zap.InfoLevel, l.Level.Level())
}
