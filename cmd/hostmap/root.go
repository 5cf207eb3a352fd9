// Package main provides the entry point for the hostmap CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/hostmap/internal/config"
	"github.com/nao1215/hostmap/internal/log"
)

// NewRootCmd creates the root command for hostmap.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hostmap",
		Short: "Common Crawl host-to-IP mapping toolchain",
		Long: `Hostmap produces, deduplicates, and loads host-to-IP mapping datasets.

The crawl command walks a Common Crawl index and writes a mapping dataset
of host,date,ip rows. The load command reduces such a dataset to the most
recent observation per domain and bulk-loads it into a Postgres table.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewLoadCmd())
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewIndicesCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates a structured logger based on verbosity setting.
// The handler masks credential-bearing attributes, because load runs log
// connection details sourced from the credentials file.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// applyConfigFile loads the YAML config file onto cfg.
// An explicitly specified file that does not exist is an error; a missing
// default file is not, because the flags and built-in defaults suffice.
func applyConfigFile(cfg *config.Config) error {
	explicit := cfg.ConfigFilePath != ""
	path := config.FindConfigFile(cfg.ConfigFilePath)
	if path == "" {
		if explicit {
			return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
		}
		return nil
	}

	cf, err := config.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	cf.Apply(cfg)
	return nil
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM,
// so an interrupted run stops between pipeline steps or crawl fetches.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
