package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/drummonds/pageshot/config"
	"github.com/drummonds/pageshot/database"
)

// openHistory opens the configured run history database
func openHistory(cfg config.Config) (*database.BunDB, error) {
	if cfg.HistoryDB == "" {
		return nil, errors.New("no run history configured, set --history-db or PAGESHOT_HISTORY_DB")
	}
	db, err := database.NewRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}
	return db, nil
}

func newRunsCmd(app *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect and prune the run history",
	}
	addHistoryFlags(cmd.PersistentFlags())

	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.load("", "")
			if err != nil {
				return err
			}
			db, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.GetRecentRuns(limit, offset)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATUS\tPROGRESS\tDOCUMENTS\tCREATED\tINPUT")
			for _, run := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%d%%\t%d\t%s\t%s\n",
					run.ID, run.Status, run.Progress, run.TotalDocuments, humanize.Time(run.CreatedAt), run.InputDir)
			}
			return tw.Flush()
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	listCmd.Flags().IntVar(&offset, "offset", 0, "number of runs to skip")

	showCmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show one run and its per-document results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := ulid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run ID %q: %w", args[0], err)
			}
			cfg, err := app.load("", "")
			if err != nil {
				return err
			}
			db, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			run, err := db.GetRun(runID)
			if err != nil {
				return fmt.Errorf("run %s not found: %w", runID, err)
			}
			conversions, err := db.GetRunConversions(runID)
			if err != nil {
				return fmt.Errorf("failed to get conversions of run %s: %w", runID, err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Run %s\n", run.ID)
			fmt.Fprintf(w, "  Status:    %s (%d%%)\n", run.Status, run.Progress)
			fmt.Fprintf(w, "  Input:     %s\n", run.InputDir)
			fmt.Fprintf(w, "  Output:    %s\n", run.OutputDir)
			fmt.Fprintf(w, "  Documents: %d\n", run.TotalDocuments)
			fmt.Fprintf(w, "  Created:   %s\n", run.CreatedAt.Format(time.RFC3339))
			if run.CompletedAt != nil {
				fmt.Fprintf(w, "  Completed: %s\n", run.CompletedAt.Format(time.RFC3339))
			}
			if run.Error != "" {
				fmt.Fprintf(w, "  Error:     %s\n", run.Error)
			}

			if len(conversions) == 0 {
				return nil
			}
			fmt.Fprintln(w)
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tRESULT\tPAGES\tSIZE\tTIME\tPATH")
			for _, c := range conversions {
				result := "ok"
				if !c.Success {
					result = c.Error
				}
				fmt.Fprintf(tw, "%d\t%s\t%d/%d\t%s\t%s\t%s\n",
					c.Ordinal+1, result, c.PagesConverted, c.PageCount,
					humanize.Bytes(uint64(c.BytesWritten)), c.Duration.Round(time.Millisecond), c.Path)
			}
			return tw.Flush()
		},
	}

	var olderThan time.Duration
	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished runs older than --older-than",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive, got %s", olderThan)
			}
			cfg, err := app.load("", "")
			if err != nil {
				return err
			}
			db, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			deleted, err := db.DeleteOldRuns(olderThan)
			if err != nil {
				return fmt.Errorf("failed to prune runs: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d runs older than %s\n", deleted, olderThan)
			return nil
		},
	}
	pruneCmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "age of the runs to delete")

	cmd.AddCommand(listCmd, showCmd, pruneCmd)
	return cmd
}
