package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"tempo/internal/cli/formatter"
	"tempo/internal/core/model"
)

func newStatsCmd(app *App) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show Pomodoro statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verify {
				if err := app.Keeper.VerifyStats(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.StyleGreen.Render("Stats match session history."))
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatStats(app.Keeper.Stats(), app.Keeper.SessionsToday(), app.Keeper.SessionsThisWeek()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "Check totals against the session history")

	return cmd
}

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Pomodoro session history",
	}

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Export completed sessions as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			history := app.Keeper.ExportHistory()
			if out == "" || out == "-" {
				return writeHistoryCSV(cmd.OutOrStdout(), history)
			}
			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create export file: %w: %w", model.ErrIO, err)
			}
			if err := writeHistoryCSV(file, history); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("close export file: %w: %w", model.ErrIO, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d sessions to %s\n", len(history), out)
			return nil
		},
	}
	export.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")

	cmd.AddCommand(export)
	return cmd
}

func writeHistoryCSV(w io.Writer, history []model.Session) error {
	writer := csv.NewWriter(w)
	// The first three columns match the older date,tag,timestamp export.
	if err := writer.Write([]string{"date", "tag", "timestamp", "started_at", "minutes"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, session := range history {
		startedAt := ""
		if !session.StartedAt.IsZero() {
			startedAt = session.StartedAt.Format(time.RFC3339)
		}
		record := []string{
			session.Date,
			session.Tag,
			session.CompletedAt.Format(time.RFC3339),
			startedAt,
			strconv.Itoa(session.Minutes),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
