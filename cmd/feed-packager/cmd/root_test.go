package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/release-feed/internal/logger"
)

// TestLogLevelFlag ensures the persistent flag is registered and applied
// to the global logger, and that unknown values leave the level untouched.
func TestLogLevelFlag(t *testing.T) {
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("log-level"))

	previous := logger.Level()
	defer logger.SetLevel(previous)

	applyLogLevel("debug")
	require.Equal(t, zapcore.DebugLevel, logger.Level())

	applyLogLevel("verbose")
	require.Equal(t, zapcore.DebugLevel, logger.Level())
}
