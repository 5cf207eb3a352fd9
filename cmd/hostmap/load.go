package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/hostmap/internal/config"
	"github.com/nao1215/hostmap/internal/history"
	"github.com/nao1215/hostmap/internal/loader"
	"github.com/nao1215/hostmap/internal/model"
	"github.com/nao1215/hostmap/internal/pipeline"
	"github.com/nao1215/hostmap/internal/report"
)

// NewLoadCmd creates the load command.
func NewLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Deduplicate a mapping dataset and bulk-load it into Postgres",
		Long: `Load reduces a gzip-compressed mapping dataset of domain,date,ip rows to
the most recent observation per domain and replaces the contents of the
destination table with the result.

The reduced rows are staged to a flat file and loaded through the COPY
protocol inside one transaction, so the table always reflects exactly one
complete dataset. Loading the same dataset twice leaves the table unchanged.

Connection parameters come from a dotenv credentials file (default:
.reverse-dns-db-cred, searched for from the working directory upward) via
the REVERSE_DNS_DB_USER/PASSWORD/HOST/PORT environment variables.

Examples:
  # Load a dataset into the table derived from its name (here: 2020_nov)
  hostmap load -i mapping-2020-nov.csv.gz

  # Load into an explicitly named table
  hostmap load -i mapping-2020-nov.csv.gz -t host_mappings

  # Keep the staging file and write a Markdown run report
  hostmap load -i mapping-2020-nov.csv.gz --keep-staging -r report.md

  # Write both a Markdown and a machine-readable JSON report
  hostmap load -i mapping-2020-nov.csv.gz -r report.md -r report.json`,
		RunE: runLoadCmd,
	}

	cmd.Flags().StringP("input-file", "i", "",
		"Gzip-compressed mapping dataset to load (required)")
	cmd.Flags().StringP("table-name", "t", "",
		"Destination table (default: derived from the input file name)")
	cmd.Flags().StringP("credentials", "c", "",
		"Dotenv file with Postgres connection parameters")
	cmd.Flags().String("staging-dir", "",
		"Directory for the staging file (default: system temp directory)")
	cmd.Flags().Bool("keep-staging", false,
		"Keep the staging file after a successful load")
	cmd.Flags().StringArrayP("report", "r", nil,
		"Write a run report to this path ('-' for stdout, .json for JSON; repeatable)")
	cmd.Flags().String("config", "",
		"Configuration file path (default: hostmap.yaml in current or config directory)")

	return cmd
}

// runLoadCmd executes the load command.
func runLoadCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildLoadConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.ValidateForLoad(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(getVerboseFlag(cmd))
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runLoad(ctx, cfg, logger)
}

// buildLoadConfig creates a Config for a load run from cobra command flags.
// Precedence is built-in defaults, then the config file, then flags.
func buildLoadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if err := applyConfigFile(cfg); err != nil {
		return nil, err
	}

	cfg.InputFile, err = cmd.Flags().GetString("input-file")
	if err != nil {
		return nil, err
	}

	cfg.TableName, err = cmd.Flags().GetString("table-name")
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("credentials") {
		cfg.CredentialsFile, err = cmd.Flags().GetString("credentials")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("staging-dir") {
		cfg.StagingDir, err = cmd.Flags().GetString("staging-dir")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("keep-staging") {
		cfg.KeepStaging, err = cmd.Flags().GetBool("keep-staging")
		if err != nil {
			return nil, err
		}
	}

	cfg.ReportFiles, err = cmd.Flags().GetStringArray("report")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// runLoad executes the load pipeline.
func runLoad(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	table := cfg.TableName
	if table == "" {
		derived, err := loader.DeriveTableName(cfg.InputFile)
		if err != nil {
			return err
		}
		table = derived
		logger.Info("derived table name from input file", "table", table)
	}

	creds, err := config.LoadCredentials(cfg.CredentialsFile)
	if err != nil {
		return err
	}
	if err := creds.Validate(); err != nil {
		return err
	}

	logger.Info("starting load",
		"input", cfg.InputFile,
		"table", table,
		"host", creds.Host,
	)

	run := model.NewRun(model.RunKindLoad)
	run.Input = cfg.InputFile
	run.Table = table

	db, err := loader.Open(ctx, creds.DSN(), loader.DefaultOptions())
	if err != nil {
		return err
	}
	defer db.Close()

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(
		pipeline.NewReduceStep(cfg.InputFile,
			pipeline.WithStagingDir(cfg.StagingDir),
			pipeline.WithReduceLogger(logger),
		),
		pipeline.NewEnsureTableStep(db),
		pipeline.NewCopyStep(db),
		pipeline.NewCleanupStep(
			pipeline.WithKeepStaging(cfg.KeepStaging),
			pipeline.WithCleanupLogger(logger),
		),
	)

	execErr := p.Execute(ctx, run)
	run.Finish()

	saveRun(ctx, run, logger)

	if len(cfg.ReportFiles) > 0 {
		if err := writeRunReports(cfg.ReportFiles, run); err != nil {
			logger.Error("failed to write run reports", "paths", cfg.ReportFiles, "error", err)
			if execErr == nil {
				return err
			}
		}
	}

	if execErr != nil {
		return execErr
	}

	logger.Info("load complete",
		"table", table,
		"rows_read", run.RowsRead,
		"domains_kept", run.DomainsKept,
		"rows_loaded", run.RowsLoaded,
		"elapsed", run.Duration(),
	)
	return nil
}

// saveRun records the run in the local history store. History is a
// convenience; failing to record never fails the run itself.
func saveRun(ctx context.Context, run *model.Run, logger *slog.Logger) {
	// The run must be recorded even when it was cancelled.
	ctx = context.WithoutCancel(ctx)

	store, err := history.Open(config.XDGDataDir(), history.DefaultOptions())
	if err != nil {
		logger.Warn("failed to open history store", "error", err)
		return
	}
	defer func() { _ = store.Close() }()

	id, err := store.SaveRun(ctx, run)
	if err != nil {
		logger.Warn("failed to record run in history", "error", err)
		return
	}
	run.ID = id
}

// writeRunReports writes one report per path, fanned out through a single
// MultiWriter so every destination sees the same run. A path of "-" writes
// to stdout; the extension selects the format.
func writeRunReports(paths []string, run *model.Run) error {
	writers := make([]report.Writer, 0, len(paths))
	files := make([]*os.File, 0, len(paths))
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()

	for _, path := range paths {
		var out io.Writer = os.Stdout
		if path != "-" {
			if dir := filepath.Dir(path); dir != "" && dir != "." {
				if err := os.MkdirAll(dir, 0750); err != nil {
					return fmt.Errorf("failed to create report directory: %w", err)
				}
			}
			f, err := os.Create(path) //nolint:gosec // User-provided report path is intentional
			if err != nil {
				return fmt.Errorf("failed to create report file: %w", err)
			}
			files = append(files, f)
			out = f
		}
		writers = append(writers, newReportWriter(path, out))
	}

	if _, err := report.NewMultiWriter(writers...).Write(run); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	return nil
}

// newReportWriter picks the report format from the path extension. A .json
// path gets the versioned JSON report; everything else, stdout included,
// gets Markdown.
func newReportWriter(path string, out io.Writer) report.Writer {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	}
	return report.NewMarkdownWriter(out)
}
