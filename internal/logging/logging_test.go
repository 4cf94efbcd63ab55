package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cpq-engine/internal/logging"
)

func TestNew_JSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpq.log")

	logger, err := logging.New(logging.Config{Level: "warn", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "warn", entry["level"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpq.log")

	logger, err := logging.New(logging.Config{Level: "loud", Format: "json", Output: path})
	require.NoError(t, err)
	logger.Debug("dropped")
	logger.Info("kept")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestNew_BadOutputPath(t *testing.T) {
	_, err := logging.New(logging.Config{Output: filepath.Join(t.TempDir(), "missing", "cpq.log")})
	assert.Error(t, err)
}

func TestInitialize_ReplacesGlobal(t *testing.T) {
	before := logging.Logger
	t.Cleanup(func() { logging.Logger = before })

	require.NoError(t, logging.Initialize(logging.Config{Level: "debug", Format: "json", Output: "stderr"}))
	assert.NotSame(t, before, logging.Logger)
	assert.NotNil(t, logging.Named("api"))
}
