package config

import (
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	t.Run("FileOutputWritesJSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		logger, closer, err := NewLogger(LoggingConfig{
			Level:    "debug",
			Format:   "json",
			Output:   "file",
			FilePath: path,
			MaxSize:  1,
		})
		require.NoError(t, err)

		logger.Debug("dispatch finished", "event_id", 7)
		log.Print("std logger line")
		require.NoError(t, closer.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"dispatch finished"`)
		assert.Contains(t, string(data), `"event_id":7`)
		assert.Contains(t, string(data), "std logger line")
	})

	t.Run("FileOutputRequiresPath", func(t *testing.T) {
		_, _, err := NewLogger(LoggingConfig{Output: "file"})
		assert.Error(t, err)
	})

	t.Run("UnknownOutput", func(t *testing.T) {
		_, _, err := NewLogger(LoggingConfig{Output: "syslog"})
		assert.Error(t, err)
	})

	t.Run("LevelFiltering", func(t *testing.T) {
		logger, closer, err := NewLogger(LoggingConfig{Level: "warn", Output: "stdout"})
		require.NoError(t, err)
		defer closer.Close()
		assert.False(t, logger.Enabled(t.Context(), slog.LevelInfo))
		assert.True(t, logger.Enabled(t.Context(), slog.LevelWarn))
	})
}
