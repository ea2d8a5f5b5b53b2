package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), tt.in)
	}
}

func TestNew_JSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nfe.log")

	log := New(&Config{Level: "debug", Format: "json", Output: path})
	log.Debug("document mutated", zap.String("id", "NFe1"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "document mutated", entry["msg"])
	assert.Equal(t, "NFe1", entry["id"])
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nfe.log")

	log := New(&Config{Level: "warn", Format: "json", Output: path})
	log.Info("dropped")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}
