package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"

	"tempo/internal/cli"
	"tempo/internal/config"
	"tempo/internal/core/timekeeper"
	"tempo/internal/notify"
	"tempo/internal/platform"
	"tempo/internal/storage"
	"tempo/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	bootstrap := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	config.LoadDotEnv(bootstrap)

	service := platform.NewService()
	defaultDataDir, err := service.DataDir()
	if err != nil {
		return fmt.Errorf("finding data directory: %w", err)
	}

	options, err := config.Load(viper.New(), os.Getenv(config.EnvPrefix+"_CONFIG"), defaultDataDir)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(os.Stderr, options)
	if err != nil {
		return err
	}

	backend, err := storage.Open(options.Backend, options.DataDir)
	if err != nil {
		return err
	}
	defer backend.Close()

	snapshot, err := backend.Load()
	if err != nil {
		logger.Warn("could not load saved state, starting from defaults", "error", err)
	}

	keeper := timekeeper.New(snapshot, backend, timekeeper.Config{
		TickInterval: options.TickInterval,
		Logger:       logger,
	})
	player := notify.NewBellPlayer(os.Stdout)

	app := &cli.App{
		Keeper:   keeper,
		Options:  options,
		Logger:   logger,
		Platform: service,
		Player:   player,
		Lock: func() (func(), error) {
			guard, err := platform.AcquireSingleInstance(options.DataDir)
			if err != nil {
				return nil, err
			}
			return func() { _ = guard.Release() }, nil
		},
		Reload: func() error {
			fresh, err := backend.Load()
			if err != nil {
				return fmt.Errorf("reload saved state: %w", err)
			}
			keeper.Reload(fresh)
			return nil
		},
		LaunchTray: func(ctx context.Context) error {
			return ui.Launch(ctx, keeper, player, logger)
		},
		Executable: os.Executable,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
