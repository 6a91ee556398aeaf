// Package config resolves runtime options from defaults, an optional
// config.yaml, a .env file and TEMPO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"tempo/internal/storage"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "TEMPO"

// Options are the process-level knobs. User settings live in the snapshot.
type Options struct {
	DataDir      string        `mapstructure:"data_dir"`
	Backend      string        `mapstructure:"backend"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	LogLevel     string        `mapstructure:"log_level"`
	LogFormat    string        `mapstructure:"log_format"`
}

// Defaults returns options rooted at dataDir.
func Defaults(dataDir string) Options {
	return Options{
		DataDir:      dataDir,
		Backend:      storage.BackendYAML,
		TickInterval: time.Second,
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// LoadDotEnv loads .env files without overriding variables already set. A
// missing file is not an error.
func LoadDotEnv(logger *slog.Logger, paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		logger.Debug("no .env file loaded", "error", err)
		return
	}
	logger.Debug("loaded .env file", "paths", paths)
}

// Load resolves options with precedence env > config file > defaults. When
// configFile is empty, config.yaml is looked up in the data directory.
func Load(v *viper.Viper, configFile, defaultDataDir string) (Options, error) {
	defaults := Defaults(defaultDataDir)
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("backend", defaults.Backend)
	v.SetDefault("tick_interval", defaults.TickInterval)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(v.GetString("data_dir"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Options{}, fmt.Errorf("read config: %w", err)
		}
	}

	var options Options
	if err := v.Unmarshal(&options); err != nil {
		return Options{}, fmt.Errorf("decode config: %w", err)
	}
	if err := options.Validate(); err != nil {
		return Options{}, err
	}
	return options, nil
}

// Validate rejects options the engine cannot run with.
func (options Options) Validate() error {
	if options.DataDir == "" {
		return errors.New("config: data_dir is empty")
	}
	switch options.Backend {
	case storage.BackendYAML, storage.BackendSQLite:
	default:
		return fmt.Errorf("config: unknown backend %q (want %s or %s)", options.Backend, storage.BackendYAML, storage.BackendSQLite)
	}
	if options.TickInterval <= 0 {
		return fmt.Errorf("config: tick_interval must be positive, got %s", options.TickInterval)
	}
	if _, err := parseLevel(options.LogLevel); err != nil {
		return err
	}
	if options.LogFormat != "text" && options.LogFormat != "json" {
		return fmt.Errorf("config: log_format %q must be text or json", options.LogFormat)
	}
	return nil
}

// NewLogger builds the process logger described by options.
func NewLogger(w io.Writer, options Options) (*slog.Logger, error) {
	level, err := parseLevel(options.LogLevel)
	if err != nil {
		return nil, err
	}
	handlerOptions := &slog.HandlerOptions{Level: level}
	if options.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOptions)), nil
	}
	return slog.New(slog.NewTextHandler(w, handlerOptions)), nil
}

func parseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return level, fmt.Errorf("config: log_level %q: %w", value, err)
	}
	return level, nil
}
