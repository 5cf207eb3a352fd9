package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const collinfoFixture = `[
  {
    "id": "CC-MAIN-2020-50",
    "name": "November 2020 Index",
    "timegate": "https://index.commoncrawl.org/CC-MAIN-2020-50/",
    "cdx-api": "https://index.commoncrawl.org/CC-MAIN-2020-50-index"
  },
  {
    "id": "CC-MAIN-2024-10",
    "name": "February 2024 Index",
    "timegate": "https://index.commoncrawl.org/CC-MAIN-2024-10/",
    "cdx-api": "https://index.commoncrawl.org/CC-MAIN-2024-10-index"
  },
  {
    "id": "CC-MAIN-2009-2010",
    "name": "Index of 2009 - 2010",
    "timegate": "https://index.commoncrawl.org/CC-MAIN-2009-2010/",
    "cdx-api": "https://index.commoncrawl.org/CC-MAIN-2009-2010-index"
  }
]`

// collinfoServer serves body on every request and counts the requests.
func collinfoServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body)) //nolint:errcheck
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestClientIndices(t *testing.T) {
	t.Parallel()

	t.Run("returns indexes sorted newest first", func(t *testing.T) {
		t.Parallel()

		server, _ := collinfoServer(t, http.StatusOK, collinfoFixture)
		c := NewClient(WithHTTPClient(server.Client()), WithCollinfoURL(server.URL))

		indexes, err := c.Indices(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		wantOrder := []string{"CC-MAIN-2024-10", "CC-MAIN-2020-50", "CC-MAIN-2009-2010"}
		if len(indexes) != len(wantOrder) {
			t.Fatalf("expected %d indexes, got %d", len(wantOrder), len(indexes))
		}
		for i, want := range wantOrder {
			if indexes[i].ID != want {
				t.Errorf("position %d: expected %s, got %s", i, want, indexes[i].ID)
			}
		}
		if got, want := indexes[1].CDXAPI, "https://index.commoncrawl.org/CC-MAIN-2020-50-index"; got != want {
			t.Errorf("expected cdx-api %q, got %q", want, got)
		}
	})

	t.Run("fails on an empty index list", func(t *testing.T) {
		t.Parallel()

		server, _ := collinfoServer(t, http.StatusOK, "[]")
		c := NewClient(WithHTTPClient(server.Client()), WithCollinfoURL(server.URL))

		if _, err := c.Indices(context.Background()); !errors.Is(err, ErrNoIndexes) {
			t.Fatalf("expected ErrNoIndexes, got %v", err)
		}
	})

	t.Run("fails on malformed JSON", func(t *testing.T) {
		t.Parallel()

		server, _ := collinfoServer(t, http.StatusOK, "{not json")
		c := NewClient(WithHTTPClient(server.Client()), WithCollinfoURL(server.URL))

		if _, err := c.Indices(context.Background()); err == nil {
			t.Fatal("expected an error, got nil")
		}
	})

	t.Run("retries server errors", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				http.Error(w, "flaky", http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(collinfoFixture)) //nolint:errcheck
		}))
		defer server.Close()

		c := NewClient(WithHTTPClient(server.Client()), WithCollinfoURL(server.URL), WithRetryAttempts(3))
		if _, err := c.Indices(context.Background()); err != nil {
			t.Fatalf("unexpected error after retries: %v", err)
		}
		if got := calls.Load(); got != 3 {
			t.Errorf("expected 3 requests, got %d", got)
		}
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		t.Parallel()

		server, calls := collinfoServer(t, http.StatusNotFound, "gone")
		c := NewClient(WithHTTPClient(server.Client()), WithCollinfoURL(server.URL), WithRetryAttempts(3))

		if _, err := c.Indices(context.Background()); err == nil {
			t.Fatal("expected an error, got nil")
		}
		if got := calls.Load(); got != 1 {
			t.Errorf("expected 1 request, got %d", got)
		}
	})
}

func TestClientLatestIndex(t *testing.T) {
	t.Parallel()

	server, _ := collinfoServer(t, http.StatusOK, collinfoFixture)
	c := NewClient(WithHTTPClient(server.Client()), WithCollinfoURL(server.URL))

	index, err := c.LatestIndex(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if index.ID != "CC-MAIN-2024-10" {
		t.Errorf("expected CC-MAIN-2024-10, got %s", index.ID)
	}
}

func TestClientFindIndex(t *testing.T) {
	t.Parallel()

	t.Run("finds an index by ID", func(t *testing.T) {
		t.Parallel()

		server, _ := collinfoServer(t, http.StatusOK, collinfoFixture)
		c := NewClient(WithHTTPClient(server.Client()), WithCollinfoURL(server.URL))

		index, err := c.FindIndex(context.Background(), "CC-MAIN-2020-50")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if index.Name != "November 2020 Index" {
			t.Errorf("expected November 2020 Index, got %q", index.Name)
		}
	})

	t.Run("reports unknown IDs", func(t *testing.T) {
		t.Parallel()

		server, _ := collinfoServer(t, http.StatusOK, collinfoFixture)
		c := NewClient(WithHTTPClient(server.Client()), WithCollinfoURL(server.URL))

		_, err := c.FindIndex(context.Background(), "CC-MAIN-1999-00")
		if !errors.Is(err, ErrIndexNotFound) {
			t.Fatalf("expected ErrIndexNotFound, got %v", err)
		}
	})
}
