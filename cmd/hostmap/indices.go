package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nao1215/hostmap/internal/config"
)

// NewIndicesCmd creates the indices command.
func NewIndicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indices",
		Short: "List the available Common Crawl indexes",
		Long: `Indices lists the Common Crawl collections available for crawling,
newest first. Pass one of the listed IDs to "hostmap crawl --index-id".

Examples:
  # List indexes as a table
  hostmap indices

  # List indexes as JSON
  hostmap indices --json`,
		RunE: runIndicesCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output the index list as JSON")
	cmd.Flags().String("config", "",
		"Configuration file path (default: hostmap.yaml in current or config directory)")

	return cmd
}

// runIndicesCmd executes the indices command.
func runIndicesCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	if err := applyConfigFile(cfg); err != nil {
		return err
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	logger := setupLogger(getVerboseFlag(cmd))
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	client := newCrawlerClient(cfg, logger)
	indexes, err := client.Indices(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(indexes)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCDX API")
	for _, index := range indexes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", index.ID, index.Name, index.CDXAPI)
	}
	return w.Flush()
}
