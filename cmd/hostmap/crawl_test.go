package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/nao1215/hostmap/internal/config"
)

// TestNewCrawlCmd tests the crawl command creation.
func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "crawl" {
			t.Errorf("expected use 'crawl', got %q", cmd.Use)
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()

		shorthands := map[string]string{
			"index-id":         "i",
			"output":           "o",
			"concurrency":      "c",
			"dump-cluster-idx": "",
			"config":           "",
		}
		for name, shorthand := range shorthands {
			flag := cmd.Flags().Lookup(name)
			if flag == nil {
				t.Errorf("expected %s flag", name)
				continue
			}
			if flag.Shorthand != shorthand {
				t.Errorf("flag %s: expected shorthand %q, got %q", name, shorthand, flag.Shorthand)
			}
		}
	})
}

// TestBuildCrawlConfig tests flag-to-config wiring.
func TestBuildCrawlConfig(t *testing.T) {
	t.Parallel()

	t.Run("applies flags", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{
			"-i", "CC-MAIN-2020-50",
			"-o", "out.csv.gz",
			"-c", "2",
			"--dump-cluster-idx",
		}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildCrawlConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.IndexID != "CC-MAIN-2020-50" {
			t.Errorf("unexpected index ID: %s", cfg.IndexID)
		}
		if cfg.OutputFile != "out.csv.gz" {
			t.Errorf("unexpected output file: %s", cfg.OutputFile)
		}
		if cfg.Concurrency != 2 {
			t.Errorf("unexpected concurrency: %d", cfg.Concurrency)
		}
		if !cfg.DumpClusterIdx {
			t.Error("expected dump-cluster-idx to be set")
		}
	})

	t.Run("concurrency defaults when flag is omitted", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildCrawlConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Concurrency != config.DefaultConcurrency() {
			t.Errorf("expected default concurrency %d, got %d",
				config.DefaultConcurrency(), cfg.Concurrency)
		}
	})
}

// TestRunCrawlCmdValidation tests that invalid invocations fail before any
// network I/O happens.
func TestRunCrawlCmdValidation(t *testing.T) {
	t.Parallel()

	t.Run("rejects zero concurrency", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"-c", "0"})

		err := cmd.Execute()
		if !errors.Is(err, config.ErrInvalidConcurrency) {
			t.Errorf("expected ErrInvalidConcurrency, got %v", err)
		}
	})
}

// TestOutputNames tests file name derivation from index IDs.
func TestOutputNames(t *testing.T) {
	t.Parallel()

	t.Run("dataset name lowercases the index ID", func(t *testing.T) {
		t.Parallel()

		if got := defaultOutputName("CC-MAIN-2020-50"); got != "mapping-cc-main-2020-50.csv.gz" {
			t.Errorf("unexpected output name: %s", got)
		}
	})

	t.Run("pointer dump name lowercases the index ID", func(t *testing.T) {
		t.Parallel()

		if got := clusterIdxDumpName("CC-MAIN-2020-50"); got != "cluster-idx-cc-main-2020-50.csv.gz" {
			t.Errorf("unexpected dump name: %s", got)
		}
	})
}
