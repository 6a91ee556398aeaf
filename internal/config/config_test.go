package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutConfigFile(t *testing.T) {
	dataDir := t.TempDir()

	options, err := Load(viper.New(), "", dataDir)
	require.NoError(t, err)
	assert.Equal(t, Defaults(dataDir), options)
}

func TestLoad_ReadsConfigFromDataDir(t *testing.T) {
	dataDir := t.TempDir()
	document := "backend: sqlite\ntick_interval: 250ms\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "config.yaml"), []byte(document), 0o644))

	options, err := Load(viper.New(), "", dataDir)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", options.Backend)
	assert.Equal(t, 250*time.Millisecond, options.TickInterval)
	assert.Equal(t, "debug", options.LogLevel)
	assert.Equal(t, dataDir, options.DataDir)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "config.yaml"), []byte("backend: sqlite\n"), 0o644))
	t.Setenv("TEMPO_BACKEND", "yaml")
	t.Setenv("TEMPO_TICK_INTERVAL", "2s")

	options, err := Load(viper.New(), "", dataDir)
	require.NoError(t, err)
	assert.Equal(t, "yaml", options.Backend)
	assert.Equal(t, 2*time.Second, options.TickInterval)
}

func TestLoad_ExplicitConfigFileMustExist(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"), t.TempDir())
	assert.Error(t, err)
}

func TestLoad_RejectsInvalidOptions(t *testing.T) {
	cases := map[string]string{
		"backend":       "backend: postgres\n",
		"tick interval": "tick_interval: 0s\n",
		"log level":     "log_level: chatty\n",
		"log format":    "log_format: xml\n",
	}
	for name, document := range cases {
		t.Run(name, func(t *testing.T) {
			dataDir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dataDir, "config.yaml"), []byte(document), 0o644))
			_, err := Load(viper.New(), "", dataDir)
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("TEMPO_LOG_LEVEL=warn\nTEMPO_LOG_FORMAT=json\n"), 0o644))
	t.Setenv("TEMPO_LOG_LEVEL", "error")
	t.Setenv("TEMPO_LOG_FORMAT", "")
	os.Unsetenv("TEMPO_LOG_FORMAT")

	LoadDotEnv(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), envPath)

	assert.Equal(t, "error", os.Getenv("TEMPO_LOG_LEVEL"))
	assert.Equal(t, "json", os.Getenv("TEMPO_LOG_FORMAT"))
}

func TestLoadDotEnv_MissingFileIsIgnored(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	LoadDotEnv(logger, filepath.Join(t.TempDir(), ".env"))
	assert.Contains(t, logs.String(), "no .env file loaded")
}

func TestNewLogger_RespectsLevelAndFormat(t *testing.T) {
	var out bytes.Buffer
	options := Defaults(t.TempDir())
	options.LogLevel = "warn"
	options.LogFormat = "json"

	logger, err := NewLogger(&out, options)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "alarm", "Wake")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), `"msg":"shown"`)
	assert.Contains(t, out.String(), `"alarm":"Wake"`)
}
