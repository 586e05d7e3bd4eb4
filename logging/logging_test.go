package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileSinkWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "fd.log")
	log, closeFn, err := New(Options{Level: "debug", Path: path})
	require.NoError(t, err)

	log.Named("session").Debug("feature added", zap.String("id", "hydroblox-run-1"))
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "feature added", entry["msg"])
	assert.Equal(t, "session", entry["logger"])
	assert.Equal(t, "hydroblox-run-1", entry["id"])
}

func TestConsoleSinkFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log, closeFn, err := New(Options{Level: "warn", Console: &buf})
	require.NoError(t, err)

	log.Info("quiet")
	log.Warn("loud")
	require.NoError(t, closeFn())

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestUnknownLevel(t *testing.T) {
	_, _, err := New(Options{Level: "chatty"})
	assert.ErrorContains(t, err, "log level")
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "", MaskToken("  "))
	assert.Equal(t, "***", MaskToken("abc"))
	assert.Equal(t, "*****.xyz", MaskToken("pk.ab.xyz"))
}
