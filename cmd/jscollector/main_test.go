package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aleister1102/jscollector/internal/config"
	"github.com/aleister1102/jscollector/internal/datastore"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	flags, err := ParseFlags([]string{
		"-c", "cfg.yaml",
		"-har", "a.har,b.har",
		"-har", "c.har",
		"-o", "out/js",
		"-format", "Parquet",
		"-export",
		"-cdn-filter", "ON",
	}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "cfg.yaml", flags.GlobalConfigFile)
	assert.Equal(t, []string{"a.har", "b.har", "c.har"}, flags.HARFiles)
	assert.Equal(t, "out/js", flags.OutputPath)
	assert.Equal(t, "parquet", flags.ExportFormat)
	assert.True(t, flags.Export)
	assert.Equal(t, "on", flags.CDNFilter)
}

func TestParseFlags_LongFormWins(t *testing.T) {
	flags, err := ParseFlags([]string{"-config", "long.yaml", "-c", "short.yaml", "-listen", "127.0.0.1:9000"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "long.yaml", flags.GlobalConfigFile)
	assert.Equal(t, "127.0.0.1:9000", flags.ListenAddress)
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "nothing to do", args: nil},
		{name: "bad cdn filter value", args: []string{"-cdn-filter", "maybe"}},
		{name: "positional argument", args: []string{"-export", "extra"}},
		{name: "unknown flag", args: []string{"-nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFlags(tt.args, io.Discard)
			assert.Error(t, err)
		})
	}
}

const runHAR = `{"log": {"version": "1.2", "entries": [
  {"request": {"method": "GET", "url": "https://site.test/"},
   "response": {"status": 200, "content": {"mimeType": "text/html", "text": "<script src=\"/static/app.js\"></script><script src=\"https://ajax.googleapis.com/lib.js\"></script>"}}}
]}}`

func newRunConfig(t *testing.T) *config.GlobalConfig {
	t.Helper()
	dir := t.TempDir()
	gCfg := config.NewDefaultGlobalConfig()
	gCfg.StorageConfig = config.StorageConfig{Backend: "file", FilePath: filepath.Join(dir, "settings.json")}
	gCfg.ExportConfig.OutputPath = filepath.Join(dir, "js_files.txt")
	return gCfg
}

func TestRun_ReplaysHARAndExports(t *testing.T) {
	gCfg := newRunConfig(t)
	harPath := filepath.Join(t.TempDir(), "capture.har")
	require.NoError(t, os.WriteFile(harPath, []byte(runHAR), 0o644))

	var stdout bytes.Buffer
	flags := AppFlags{HARFiles: []string{harPath}, Export: true, Clipboard: true, CDNFilter: "on"}
	require.NoError(t, run(context.Background(), gCfg, flags, &stdout, zerolog.Nop()))

	assert.Equal(t, "https://site.test/static/app.js\n", stdout.String())

	exported, err := os.ReadFile(gCfg.ExportConfig.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "https://site.test/static/app.js\n", string(exported))

	// The set survives into the next session.
	store, err := datastore.NewSettingsStore(gCfg.StorageConfig, zerolog.Nop())
	require.NoError(t, err)
	saved, err := store.LoadSetting(config.DefaultCollectorSettingKey)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.Equal(t, "https://site.test/static/app.js", saved)

	stdout.Reset()
	require.NoError(t, run(context.Background(), gCfg, AppFlags{Clipboard: true}, &stdout, zerolog.Nop()))
	assert.Equal(t, "https://site.test/static/app.js\n", stdout.String())

	stdout.Reset()
	require.NoError(t, run(context.Background(), gCfg, AppFlags{Clear: true, Clipboard: true}, &stdout, zerolog.Nop()))
	assert.Empty(t, stdout.String())
}

func TestRun_MissingHARFile(t *testing.T) {
	gCfg := newRunConfig(t)
	err := run(context.Background(), gCfg, AppFlags{HARFiles: []string{filepath.Join(t.TempDir(), "missing.har")}}, io.Discard, zerolog.Nop())
	assert.Error(t, err)
}

func TestApplyFlagOverrides(t *testing.T) {
	gCfg := config.NewDefaultGlobalConfig()
	applyFlagOverrides(gCfg, AppFlags{ListenAddress: "0.0.0.0:8888", OutputPath: "x.txt", ExportFormat: "parquet"})
	assert.Equal(t, "0.0.0.0:8888", gCfg.ProxyConfig.ListenAddress)
	assert.Equal(t, "x.txt", gCfg.ExportConfig.OutputPath)
	assert.Equal(t, "parquet", gCfg.ExportConfig.Format)
}
