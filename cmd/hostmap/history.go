package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/hostmap/internal/config"
	"github.com/nao1215/hostmap/internal/history"
	"github.com/nao1215/hostmap/internal/model"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent load and crawl runs",
		Long: `History lists the runs recorded in the local run store, newest first.

Every load and crawl records what it operated on, its row counts, and how
it ended. The store lives in the XDG data directory and never leaves the
machine.

Examples:
  # List the 20 most recent runs
  hostmap history

  # List more runs, as JSON
  hostmap history --limit 100 --json`,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", config.DefaultHistoryLimit,
		"Maximum number of runs to list")
	cmd.Flags().BoolP("json", "j", false, "Output the runs as JSON")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	store, err := history.Open(config.XDGDataDir(), history.DefaultOptions())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded yet")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tTARGET\tROWS\tSTATUS\tSTARTED\tDURATION")
	for _, run := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
			run.ID,
			run.Kind,
			run.Target(),
			runRowCount(run),
			runStatus(run),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Duration().Round(time.Second),
		)
	}
	return w.Flush()
}

// runRowCount returns the row counter that matters for the run's kind:
// rows loaded for loads, mapping rows written for crawls.
func runRowCount(run model.Run) int64 {
	if run.Kind == model.RunKindCrawl {
		return run.Mappings
	}
	return run.RowsLoaded
}

// runStatus renders how the run ended.
func runStatus(run model.Run) string {
	if run.Failed() {
		return "failed"
	}
	return "ok"
}
