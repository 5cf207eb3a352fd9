package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/hostmap/internal/model"
)

const (
	// dbFileName is the database file created inside the data directory.
	dbFileName = "history.db"

	// DefaultLimit is how many runs RecentRuns returns when the caller
	// passes a non-positive limit.
	DefaultLimit = 20
)

// Store keeps a local record of past runs.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent read
	// performance. This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history store inside dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is
// returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("history database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check history database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	// modernc.org/sqlite takes the open mode as a query parameter.
	// mode=rw refuses to create a missing file; mode=rwc creates it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// SQLite supports a single writer, so one connection is enough.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- One row per load or crawl run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		input TEXT,
		table_name TEXT,
		index_id TEXT,
		output TEXT,
		rows_read INTEGER DEFAULT 0,
		domains_kept INTEGER DEFAULT 0,
		rows_loaded INTEGER DEFAULT 0,
		pointers INTEGER DEFAULT 0,
		skipped_hosts INTEGER DEFAULT 0,
		failed_pointers INTEGER DEFAULT 0,
		mappings INTEGER DEFAULT 0,
		staging_digest TEXT,
		error TEXT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun inserts one run and returns the ID the store assigned to it.
// Timestamps are stored as RFC3339 in UTC; an unfinished run stores NULL.
func (s *Store) SaveRun(ctx context.Context, run *model.Run) (int64, error) {
	query := `
	INSERT INTO runs (
		kind, input, table_name, index_id, output,
		rows_read, domains_kept, rows_loaded,
		pointers, skipped_hosts, failed_pointers, mappings,
		staging_digest, error, started_at, finished_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var finishedAt any
	if !run.FinishedAt.IsZero() {
		finishedAt = run.FinishedAt.UTC().Format(time.RFC3339)
	}

	result, err := s.db.ExecContext(ctx, query,
		run.Kind,
		run.Input,
		run.Table,
		run.Index,
		run.Output,
		run.RowsRead,
		run.DomainsKept,
		run.RowsLoaded,
		run.Pointers,
		run.SkippedHosts,
		run.FailedPointers,
		run.Mappings,
		run.StagingDigest,
		run.ErrorMessage,
		run.StartedAt.UTC().Format(time.RFC3339),
		finishedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	return result.LastInsertId()
}

// RecentRuns returns the newest runs, most recent first. A non-positive
// limit falls back to DefaultLimit.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `
	SELECT id, kind, input, table_name, index_id, output,
		rows_read, domains_kept, rows_loaded,
		pointers, skipped_hosts, failed_pointers, mappings,
		staging_digest, error, started_at, finished_at
	FROM runs
	ORDER BY started_at DESC, id DESC
	LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var (
			run        model.Run
			startedAt  string
			finishedAt sql.NullString
		)
		err := rows.Scan(
			&run.ID,
			&run.Kind,
			&run.Input,
			&run.Table,
			&run.Index,
			&run.Output,
			&run.RowsRead,
			&run.DomainsKept,
			&run.RowsLoaded,
			&run.Pointers,
			&run.SkippedHosts,
			&run.FailedPointers,
			&run.Mappings,
			&run.StagingDigest,
			&run.ErrorMessage,
			&startedAt,
			&finishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.StartedAt = parseTimestamp(startedAt)
		if finishedAt.Valid && finishedAt.String != "" {
			run.FinishedAt = parseTimestamp(finishedAt.String)
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The store writes RFC3339; the rest cover values written by SQLite's own
// datetime helpers. The order matters: more specific formats come first.
var timestampFormats = []string{
	time.RFC3339,              // What SaveRun writes
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
