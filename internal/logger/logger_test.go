package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_ProductionLevel(t *testing.T) {
	log, err := New("production")
	require.NoError(t, err)
	defer log.Sync()

	assert.False(t, log.Core().Enabled(zapcore.DebugLevel), "production logger must not emit debug")
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestNew_DevelopmentLevel(t *testing.T) {
	log, err := New("development")
	require.NoError(t, err)
	defer log.Sync()

	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewWithDefaults_NeverNil(t *testing.T) {
	log := NewWithDefaults()
	require.NotNil(t, log)
	log.Sync()
}
