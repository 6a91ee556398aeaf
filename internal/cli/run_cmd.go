package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"tempo/internal/cli/formatter"
	"tempo/internal/core/model"
	"tempo/internal/core/timekeeper"
	"tempo/internal/notify"
)

type runOptions struct {
	timer        time.Duration
	pomodoroTag  string
	pomodoro     bool
	stopwatch    bool
	exitWhenDone bool
	statusEvery  time.Duration
}

func newRunCmd(app *App) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the engine in the foreground until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.pomodoro = cmd.Flags().Changed("pomodoro")
			return app.withLock(func() error {
				return runLoop(cmd.Context(), app, opts, cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().DurationVar(&opts.timer, "timer", 0, "Start a countdown, e.g. 10m")
	cmd.Flags().StringVar(&opts.pomodoroTag, "pomodoro", "", "Start a Pomodoro cycle with this tag")
	cmd.Flags().BoolVar(&opts.stopwatch, "stopwatch", false, "Start the stopwatch")
	cmd.Flags().BoolVar(&opts.exitWhenDone, "exit-when-done", false, "Exit once the countdown and Pomodoro cycle have finished")
	cmd.Flags().DurationVar(&opts.statusEvery, "status-every", time.Minute, "Print a status line at this interval (0 disables)")

	return cmd
}

// syncWriter serializes writes from the dispatcher and the status loop.
type syncWriter struct {
	mu  sync.Mutex
	out io.Writer
}

func (writer *syncWriter) Write(p []byte) (int, error) {
	writer.mu.Lock()
	defer writer.mu.Unlock()
	return writer.out.Write(p)
}

// writerSink prints notifications for the headless loop.
type writerSink struct {
	out io.Writer
}

func (sink writerSink) Notify(title, body string) error {
	_, err := fmt.Fprintf(sink.out, "%s %s\n", formatter.StyleYellow.Render(title+":"), body)
	return err
}

func runLoop(ctx context.Context, app *App, opts runOptions, out io.Writer) error {
	keeper := app.Keeper
	output := &syncWriter{out: out}
	format := keeper.Settings().TimeFormat

	dispatcher := notify.NewDispatcher(
		notify.MultiSink{writerSink{out: output}, notify.NewLogSink(app.Logger)},
		app.Player, keeper, app.Logger)
	dispatched := keeper.Subscribe(64)
	progress := keeper.Subscribe(64)

	if opts.timer != 0 {
		if err := keeper.StartTimer(opts.timer); err != nil && !errors.Is(err, model.ErrIO) {
			return err
		}
	}
	if opts.pomodoro {
		if err := keeper.StartPomodoro(opts.pomodoroTag); err != nil {
			return err
		}
	}
	if opts.stopwatch {
		keeper.StartStopwatch()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		dispatcher.Run(ctx, dispatched)
	}()

	keeper.Start()
	defer func() {
		keeper.Stop()
		wg.Wait()
		if status := keeper.Status(); status.Stopwatch.Mode != model.StopwatchIdle {
			fmt.Fprintf(output, "Stopwatch: %s\n", formatter.Duration(status.Stopwatch.Elapsed))
		}
	}()

	fmt.Fprintln(output, formatter.StatusLine(keeper.Status(), format))
	lastStatus := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-progress:
			if !ok {
				return nil
			}
			if event.Type != timekeeper.EventProgress {
				continue
			}
			if opts.statusEvery > 0 && time.Since(lastStatus) >= opts.statusEvery {
				lastStatus = time.Now()
				fmt.Fprintln(output, formatter.StatusLine(event.Status, format))
			}
			if opts.exitWhenDone && finished(event.Status) {
				return nil
			}
		}
	}
}

func finished(status timekeeper.Status) bool {
	timerActive := status.Timer.Mode == model.TimerRunning || status.Timer.Mode == model.TimerPaused
	return !timerActive && status.Pomodoro.Phase == model.PhaseIdle
}

func newTrayCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tray",
		Short: "Run the desktop tray app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.LaunchTray == nil {
				return errors.New("tray is not available in this build")
			}
			return app.withLock(func() error {
				return app.LaunchTray(cmd.Context())
			})
		},
	}
}
