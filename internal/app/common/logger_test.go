package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	dev, err := NewLogger(true)
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))

	prod, err := NewLogger(false)
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, prod.Core().Enabled(zapcore.InfoLevel))
}

func TestRequestFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	zap.New(core).With(RequestFields("instagram:C8xYz", "trace-1")...).Info("classified")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "instagram:C8xYz", fields["key"])
	assert.Equal(t, "trace-1", fields["trace_id"])
}
