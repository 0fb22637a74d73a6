package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger("fixclient", "loud")
	assert.Error(t, err)

	logger, err := NewLogger("fixclient", "debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestNewLoggerWithFile_WritesJSON(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "logging_test_*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "logs", "app.log")
	logger, err := NewLoggerWithFile("fixclient", "info", path)
	require.NoError(t, err)

	logger.Info("order state changed", zap.String("cl_ord_id", "1700000000"))
	logger.Debug("dropped")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "fixclient", entry["service"])
	assert.Equal(t, "1700000000", entry["cl_ord_id"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Contains(t, entry, "ts")
}
