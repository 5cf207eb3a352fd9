package pipeline

import (
	"compress/gzip"
	"context"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"golang.org/x/crypto/sha3"

	"github.com/nao1215/hostmap/internal/model"
)

// writeGzipFile writes lines to a gzip-compressed file and returns its path.
func writeGzipFile(t *testing.T, dir, name string, lines []string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(strings.Join(lines, "\n") + "\n")); err != nil {
		t.Fatalf("failed to write gzip content: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close file: %v", err)
	}
	return path
}

// TestNewReduceStep tests the ReduceStep constructor.
func TestNewReduceStep(t *testing.T) {
	t.Parallel()

	t.Run("creates with defaults", func(t *testing.T) {
		t.Parallel()

		step := NewReduceStep("mapping-2020-nov.csv.gz")

		if step.inputPath != "mapping-2020-nov.csv.gz" {
			t.Errorf("unexpected input path: %s", step.inputPath)
		}
		if step.stagingDir != "" {
			t.Errorf("expected empty staging dir, got %s", step.stagingDir)
		}
		if step.logger == nil {
			t.Error("expected non-nil logger")
		}
	})

	t.Run("applies WithStagingDir", func(t *testing.T) {
		t.Parallel()

		step := NewReduceStep("in.gz", WithStagingDir("/tmp/staging"))

		if step.stagingDir != "/tmp/staging" {
			t.Errorf("expected staging dir /tmp/staging, got %s", step.stagingDir)
		}
	})

	t.Run("applies WithReduceLogger", func(t *testing.T) {
		t.Parallel()

		logger := slog.Default()
		step := NewReduceStep("in.gz", WithReduceLogger(logger))

		if step.logger != logger {
			t.Error("expected custom logger")
		}
	})

	t.Run("Name returns correct value", func(t *testing.T) {
		t.Parallel()

		if got := NewReduceStep("in.gz").Name(); got != "reduce" {
			t.Errorf("expected name 'reduce', got %q", got)
		}
	})
}

// TestReduceStepDo tests reduction and staging end to end.
func TestReduceStepDo(t *testing.T) {
	t.Parallel()

	t.Run("reduces and stages one row per domain", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		input := writeGzipFile(t, dir, "mapping-2020-nov.csv.gz", []string{
			"a.com,2020-01-01,1.1.1.1",
			"a.com,2020-02-01,2.2.2.2",
			"b.com,2020-05-01,9.9.9.9",
			"b.com,2020-01-01,9.9.9.9",
		})

		stagingDir := t.TempDir()
		step := NewReduceStep(input, WithStagingDir(stagingDir))

		run := model.NewRun(model.RunKindLoad)
		if err := step.Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if run.RowsRead != 4 {
			t.Errorf("expected 4 rows read, got %d", run.RowsRead)
		}
		if run.DomainsKept != 2 {
			t.Errorf("expected 2 domains kept, got %d", run.DomainsKept)
		}
		if filepath.Dir(run.StagingPath) != stagingDir {
			t.Errorf("staging file %s not in staging dir %s", run.StagingPath, stagingDir)
		}

		content, err := os.ReadFile(run.StagingPath)
		if err != nil {
			t.Fatalf("failed to read staging file: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(content)), "\n")
		slices.Sort(lines)
		want := []string{"a.com,2.2.2.2", "b.com,9.9.9.9"}
		if !slices.Equal(lines, want) {
			t.Errorf("unexpected staged rows: got %v, want %v", lines, want)
		}
	})

	t.Run("records the digest of the staged content", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		input := writeGzipFile(t, dir, "mapping-2021-jan.csv.gz", []string{
			"a.com,2021-01-01,1.1.1.1",
		})

		step := NewReduceStep(input, WithStagingDir(t.TempDir()))
		run := model.NewRun(model.RunKindLoad)
		if err := step.Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(run.StagingPath)
		if err != nil {
			t.Fatalf("failed to read staging file: %v", err)
		}

		hash := sha3.New256()
		hash.Write(content)
		if want := hex.EncodeToString(hash.Sum(nil)); run.StagingDigest != want {
			t.Errorf("digest mismatch: got %s, want %s", run.StagingDigest, want)
		}
	})

	t.Run("fails on missing input file", func(t *testing.T) {
		t.Parallel()

		step := NewReduceStep(filepath.Join(t.TempDir(), "absent.csv.gz"))
		if err := step.Do(context.Background(), model.NewRun(model.RunKindLoad)); err == nil {
			t.Error("expected error for missing input file")
		}
	})

	t.Run("fails on non-gzip input", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "mapping-plain.csv.gz")
		if err := os.WriteFile(path, []byte("a.com,2020-01-01,1.1.1.1\n"), 0600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		step := NewReduceStep(path)
		if err := step.Do(context.Background(), model.NewRun(model.RunKindLoad)); err == nil {
			t.Error("expected error for non-gzip input")
		}
	})

	t.Run("fails on malformed row", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		input := writeGzipFile(t, dir, "mapping-bad.csv.gz", []string{
			"a.com,2020-01-01,1.1.1.1",
			"b.com,no-ip-field",
		})

		step := NewReduceStep(input, WithStagingDir(t.TempDir()))
		err := step.Do(context.Background(), model.NewRun(model.RunKindLoad))
		if err == nil {
			t.Fatal("expected error for malformed row")
		}
		if !strings.Contains(err.Error(), "line 2") {
			t.Errorf("expected line number in error, got %v", err)
		}
	})
}

// TestEnsureTableStep tests the step's static behavior.
func TestEnsureTableStep(t *testing.T) {
	t.Parallel()

	t.Run("Name returns correct value", func(t *testing.T) {
		t.Parallel()

		if got := NewEnsureTableStep(nil).Name(); got != "ensure_table" {
			t.Errorf("expected name 'ensure_table', got %q", got)
		}
	})
}

// TestCopyStep tests the step's static behavior.
func TestCopyStep(t *testing.T) {
	t.Parallel()

	t.Run("Name returns correct value", func(t *testing.T) {
		t.Parallel()

		if got := NewCopyStep(nil).Name(); got != "copy" {
			t.Errorf("expected name 'copy', got %q", got)
		}
	})
}

// TestCleanupStep tests staging file cleanup.
func TestCleanupStep(t *testing.T) {
	t.Parallel()

	t.Run("Name returns correct value", func(t *testing.T) {
		t.Parallel()

		if got := NewCleanupStep().Name(); got != "cleanup" {
			t.Errorf("expected name 'cleanup', got %q", got)
		}
	})

	t.Run("removes the staging file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "staging.csv")
		if err := os.WriteFile(path, []byte("a.com,1.1.1.1\n"), 0600); err != nil {
			t.Fatalf("failed to write staging file: %v", err)
		}

		run := model.NewRun(model.RunKindLoad)
		run.StagingPath = path

		if err := NewCleanupStep().Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("expected staging file to be removed")
		}
	})

	t.Run("keeps the staging file when configured", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "staging.csv")
		if err := os.WriteFile(path, []byte("a.com,1.1.1.1\n"), 0600); err != nil {
			t.Fatalf("failed to write staging file: %v", err)
		}

		run := model.NewRun(model.RunKindLoad)
		run.StagingPath = path

		if err := NewCleanupStep(WithKeepStaging(true)).Do(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected staging file to survive: %v", err)
		}
	})

	t.Run("run without staging file is a no-op", func(t *testing.T) {
		t.Parallel()

		if err := NewCleanupStep().Do(context.Background(), model.NewRun(model.RunKindLoad)); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("fails when the staging file is already gone", func(t *testing.T) {
		t.Parallel()

		run := model.NewRun(model.RunKindLoad)
		run.StagingPath = filepath.Join(t.TempDir(), "vanished.csv")

		if err := NewCleanupStep().Do(context.Background(), run); err == nil {
			t.Error("expected error for missing staging file")
		}
	})
}
