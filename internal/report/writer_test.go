package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/hostmap/internal/model"
)

// createLoadRun creates a finished load run with sample data for testing.
func createLoadRun() *model.Run {
	return &model.Run{
		ID:            7,
		Kind:          model.RunKindLoad,
		Input:         "mapping-2020-nov.csv.gz",
		Table:         "2020_nov",
		StagingDigest: "ab12cd34",
		RowsRead:      10000,
		DomainsKept:   8000,
		RowsLoaded:    8000,
		Steps:         []string{"reduce", "ensure_table", "copy", "cleanup"},
		StartedAt:     time.Date(2020, 11, 30, 12, 0, 0, 0, time.UTC),
		FinishedAt:    time.Date(2020, 11, 30, 12, 1, 30, 0, time.UTC),
	}
}

// createCrawlRun creates a finished crawl run with sample data for testing.
func createCrawlRun() *model.Run {
	return &model.Run{
		ID:             8,
		Kind:           model.RunKindCrawl,
		Index:          "CC-MAIN-2020-50",
		Output:         "mapping-cc-main-2020-50.csv.gz",
		Pointers:       3000,
		SkippedHosts:   1500,
		FailedPointers: 12,
		Mappings:       250000,
		StartedAt:      time.Date(2020, 12, 1, 8, 0, 0, 0, time.UTC),
		FinishedAt:     time.Date(2020, 12, 1, 10, 30, 0, 0, time.UTC),
	}
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes load run properties", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createLoadRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Hostmap Run Report") {
			t.Error("expected output to contain report header")
		}
		if !strings.Contains(output, "mapping-2020-nov.csv.gz") {
			t.Error("expected output to contain the input dataset")
		}
		if !strings.Contains(output, "2020_nov") {
			t.Error("expected output to contain the destination table")
		}
		if !strings.Contains(output, "ab12cd34") {
			t.Error("expected output to contain the staging digest")
		}
	})

	t.Run("formats counters with thousands separators", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createLoadRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "10,000") {
			t.Error("expected rows read to be formatted with separators")
		}
	})

	t.Run("writes crawl run counters", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createCrawlRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "CC-MAIN-2020-50") {
			t.Error("expected output to contain the index ID")
		}
		if !strings.Contains(output, "250,000") {
			t.Error("expected mapping count with separators")
		}
		if !strings.Contains(output, "1,500") {
			t.Error("expected the skipped host count")
		}
	})

	t.Run("warns about skipped host blocks", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createCrawlRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "could not be fetched") {
			t.Error("expected a warning about skipped host blocks")
		}
	})

	t.Run("reports failure state", func(t *testing.T) {
		t.Parallel()

		run := createLoadRun()
		run.ErrorMessage = "failed to clear table 2020_nov: connection refused"

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "connection refused") {
			t.Error("expected the failure message in the report")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createLoadRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded model.Run
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Table != "2020_nov" {
			t.Errorf("expected table 2020_nov, got %s", decoded.Table)
		}
		if decoded.RowsLoaded != 8000 {
			t.Errorf("expected 8000 rows loaded, got %d", decoded.RowsLoaded)
		}
	})

	t.Run("omits fields of the other run kind", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createLoadRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(buf.String(), "pointers") {
			t.Error("expected crawl counters to be omitted from a load run")
		}
	})

	t.Run("pretty print indents output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createLoadRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "\n  ") {
			t.Error("expected indented output")
		}
	})
}

// TestFullJSONWriter tests the metadata-wrapped JSON writer.
func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("wraps the run with version metadata", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewFullJSONWriter(&buf, "v1.2.3").Write(createCrawlRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded JSONRun
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Version != "v1.2.3" {
			t.Errorf("expected version v1.2.3, got %s", decoded.Version)
		}
		if decoded.Run == nil || decoded.Run.Index != "CC-MAIN-2020-50" {
			t.Error("expected the wrapped run to carry the index ID")
		}
	})
}

// failingWriter always returns an error, for MultiWriter error paths.
type failingWriter struct{}

func (failingWriter) Write(*model.Run) (int, error) {
	return 0, errors.New("write failed")
}

// TestMultiWriter tests fan-out to multiple writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var md, js bytes.Buffer
		w := NewMultiWriter(NewMarkdownWriter(&md), NewJSONWriter(&js))

		if _, err := w.Write(createLoadRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if md.Len() == 0 {
			t.Error("expected markdown output")
		}
		if js.Len() == 0 {
			t.Error("expected JSON output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMultiWriter(failingWriter{}, NewJSONWriter(&buf))

		if _, err := w.Write(createLoadRun()); err == nil {
			t.Fatal("expected error from failing writer")
		}
		if buf.Len() != 0 {
			t.Error("expected later writers to be skipped after an error")
		}
	})
}
