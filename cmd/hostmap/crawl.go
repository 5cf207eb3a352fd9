package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/hostmap/internal/config"
	"github.com/nao1215/hostmap/internal/crawler"
	"github.com/nao1215/hostmap/internal/model"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Build a mapping dataset from a Common Crawl index",
		Long: `Crawl walks the cluster index of a Common Crawl collection, resolves the
IP address each captured host was served from, and writes host,date,ip
rows to a mapping dataset.

For every host block in cluster.idx the crawler fetches the matching CDX
records, keeps at most one capture per calendar day, and reads the
WARC-IP-Address header of each kept capture from the WARC file. The index
is fetched with ranged requests, so only the relevant byte slices of the
multi-gigabyte shards are downloaded.

Examples:
  # Crawl the newest available index
  hostmap crawl

  # Crawl a specific index with 8 workers
  hostmap crawl -i CC-MAIN-2020-50 -c 8

  # Write the dataset to a custom path (plain CSV without the .gz suffix)
  hostmap crawl -i CC-MAIN-2020-50 -o /data/mapping-2020-50.csv.gz

  # Inspect the parsed cluster.idx pointers instead of crawling
  hostmap crawl -i CC-MAIN-2020-50 --dump-cluster-idx`,
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("index-id", "i", "",
		"Common Crawl index to walk, e.g. CC-MAIN-2020-50 (default: newest)")
	cmd.Flags().StringP("output", "o", "",
		"Output path (default: mapping-<index-id>.csv.gz; .gz selects gzip)")
	cmd.Flags().IntP("concurrency", "c", config.DefaultConcurrency(),
		"Number of concurrent fetch workers")
	cmd.Flags().Bool("dump-cluster-idx", false,
		"Dump the parsed cluster.idx pointers as CSV and exit without crawling")
	cmd.Flags().String("config", "",
		"Configuration file path (default: hostmap.yaml in current or config directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildCrawlConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.ValidateForCrawl(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(getVerboseFlag(cmd))
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runCrawl(ctx, cfg, logger)
}

// buildCrawlConfig creates a Config for a crawl run from cobra command
// flags. Precedence is built-in defaults, then the config file, then flags.
func buildCrawlConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if err := applyConfigFile(cfg); err != nil {
		return nil, err
	}

	cfg.IndexID, err = cmd.Flags().GetString("index-id")
	if err != nil {
		return nil, err
	}

	cfg.OutputFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
		if err != nil {
			return nil, err
		}
	}

	cfg.DumpClusterIdx, err = cmd.Flags().GetBool("dump-cluster-idx")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// newCrawlerClient builds the Common Crawl client from the configuration.
func newCrawlerClient(cfg *config.Config, logger *slog.Logger) *crawler.Client {
	opts := []crawler.Option{
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithTimeout(cfg.HTTPTimeout),
		crawler.WithRetryAttempts(cfg.RetryAttempts),
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithLogger(logger),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, crawler.WithBaseURL(cfg.BaseURL))
	}
	if cfg.CollinfoURL != "" {
		opts = append(opts, crawler.WithCollinfoURL(cfg.CollinfoURL))
	}
	return crawler.NewClient(opts...)
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	client := newCrawlerClient(cfg, logger)

	index, err := resolveIndex(ctx, client, cfg.IndexID, logger)
	if err != nil {
		return err
	}

	if cfg.DumpClusterIdx {
		return dumpClusterIdx(ctx, client, index.ID, logger)
	}

	output := cfg.OutputFile
	if output == "" {
		output = defaultOutputName(index.ID)
	}

	run := model.NewRun(model.RunKindCrawl)
	run.Index = index.ID
	run.Output = output

	out, err := crawler.OpenOutput(output)
	if err != nil {
		return err
	}

	stats, crawlErr := client.Crawl(ctx, index.ID, out)
	if closeErr := out.Close(); crawlErr == nil && closeErr != nil {
		crawlErr = fmt.Errorf("failed to finish output file: %w", closeErr)
	}

	run.Pointers = stats.Pointers
	run.SkippedHosts = stats.Skipped
	run.FailedPointers = stats.Failed
	run.Mappings = stats.Mappings
	if crawlErr != nil {
		run.ErrorMessage = crawlErr.Error()
	}
	run.Finish()

	saveRun(ctx, run, logger)

	if crawlErr != nil {
		return crawlErr
	}

	logger.Info("crawl finished",
		"index", index.ID,
		"output", output,
		"mappings", run.Mappings,
		"elapsed", run.Duration(),
	)
	return nil
}

// resolveIndex picks the index to crawl: the requested one, or the newest
// available when no ID was given.
func resolveIndex(ctx context.Context, client *crawler.Client, indexID string, logger *slog.Logger) (model.Index, error) {
	if indexID != "" {
		return client.FindIndex(ctx, indexID)
	}

	index, err := client.LatestIndex(ctx)
	if err != nil {
		return model.Index{}, err
	}
	logger.Info("no index requested, using the newest one",
		"index", index.ID,
		"name", index.Name,
	)
	return index, nil
}

// dumpClusterIdx writes the parsed cluster.idx pointers of the index as a
// gzip-compressed CSV file, for offline inspection of what a crawl would
// fetch.
func dumpClusterIdx(ctx context.Context, client *crawler.Client, indexID string, logger *slog.Logger) error {
	pointers, skipped, err := client.ClusterPointers(ctx, indexID)
	if err != nil {
		return err
	}

	path := clusterIdxDumpName(indexID)
	out, err := crawler.OpenOutput(path)
	if err != nil {
		return err
	}

	for _, pointer := range pointers {
		if _, err := io.WriteString(out, pointer.CSV()+"\n"); err != nil {
			_ = out.Close()
			return fmt.Errorf("failed to write pointer dump: %w", err)
		}
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to finish pointer dump: %w", err)
	}

	logger.Info("dumped cluster.idx pointers",
		"index", indexID,
		"pointers", len(pointers),
		"skipped_hosts", skipped,
		"output", path,
	)
	return nil
}

// defaultOutputName derives the dataset file name from the index ID,
// e.g. "CC-MAIN-2020-50" becomes "mapping-cc-main-2020-50.csv.gz".
func defaultOutputName(indexID string) string {
	return "mapping-" + strings.ToLower(indexID) + ".csv.gz"
}

// clusterIdxDumpName derives the pointer dump file name from the index ID.
func clusterIdxDumpName(indexID string) string {
	return "cluster-idx-" + strings.ToLower(indexID) + ".csv.gz"
}
