package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONToFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Options{Dir: dir, RetentionDays: 3, Level: "debug"})
	require.NoError(t, err)

	logger.Info("session_synced")
	_ = logger.Sync()

	content, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"session_synced"`)
	assert.Contains(t, string(content), `"ts":`)
}

func TestNewDefaultsUnknownLevelToInfo(t *testing.T) {
	logger, err := New(Options{Dir: t.TempDir(), RetentionDays: 1, Level: "chatty"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))
	assert.True(t, logger.Core().Enabled(0))
}
