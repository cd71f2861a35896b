package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aleister1102/jscollector/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultLogger(t *testing.T) {
	log, err := New(config.NewDefaultLogConfig())
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestBuild_JSONConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.LogConfig{LogFormat: "json", LogLevel: "debug"}

	log, err := NewLoggerBuilder().WithConfig(cfg).WithConsoleOutput(&buf).Build()
	require.NoError(t, err)

	log.Debug().Str("url", "https://a.com/x.js").Msg("Added JS URL")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "https://a.com/x.js", entry["url"])
	assert.Equal(t, "Added JS URL", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestBuild_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.LogConfig{LogFormat: "json", LogLevel: "warn"}

	log, err := NewLoggerBuilder().WithConfig(cfg).WithConsoleOutput(&buf).Build()
	require.NoError(t, err)

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestBuild_InvalidLevel(t *testing.T) {
	_, err := NewLoggerBuilder().WithConfig(config.LogConfig{LogLevel: "loud"}).Build()
	assert.Error(t, err)
}

func TestBuild_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "jscollector.log")
	cfg := config.LogConfig{LogFile: logFile, LogFormat: "json", LogLevel: "info", MaxLogSizeMB: 1, MaxLogBackups: 1}

	log, err := NewLoggerBuilder().WithConfig(cfg).WithConsoleOutput(nil).Build()
	require.NoError(t, err)

	log.Info().Int("count", 3).Msg("Collected: 3 unique JS files")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Collected: 3 unique JS files")
}

func TestBuild_NoWriters(t *testing.T) {
	_, err := NewLoggerBuilder().WithConsoleOutput(nil).Build()
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected LogFormat
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"text", FormatText},
		{"console", FormatConsole},
		{"", FormatConsole},
		{"xml", FormatConsole},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseFormat(tt.input))
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)

	level, err = ParseLevel("nope")
	assert.Error(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)
}

func TestWithConfig_FileRotationDefaults(t *testing.T) {
	lb := NewLoggerBuilder().WithConfig(config.LogConfig{LogFile: "logs/jscollector.log"})
	require.NotNil(t, lb.file)
	assert.Equal(t, config.DefaultMaxLogSizeMB, lb.file.maxSizeMB)
	assert.Equal(t, config.DefaultMaxLogBackups, lb.file.maxBackups)

	lb.WithConfig(config.LogConfig{})
	assert.Nil(t, lb.file, "no file without a path")
}
