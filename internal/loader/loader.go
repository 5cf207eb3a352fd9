package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgDuplicateTable is the SQLSTATE Postgres reports when CREATE TABLE hits
// an existing relation.
const pgDuplicateTable = "42P07"

// Options configures the Postgres connection pool.
type Options struct {
	// MaxConns caps the pool size. A load run executes one statement at a
	// time, so the pool exists for connection reuse, not parallelism.
	MaxConns int32

	// ConnectTimeout bounds establishing each new connection.
	ConnectTimeout time.Duration
}

// DefaultOptions returns the default loader options.
func DefaultOptions() Options {
	return Options{
		MaxConns:       2,
		ConnectTimeout: 15 * time.Second,
	}
}

// Loader owns a Postgres connection pool for the duration of one load run.
type Loader struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres using a keyword/value DSN and verifies the
// connection with a ping. An empty DSN is valid: the driver then falls back
// to its defaults and the libpq environment, mirroring how psql behaves.
func Open(ctx context.Context, dsn string, opts Options) (*Loader, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres configuration: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.ConnectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = opts.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &Loader{pool: pool}, nil
}

// Close releases the connection pool.
func (l *Loader) Close() {
	l.pool.Close()
}

// EnsureTable creates the destination mapping table if it does not exist.
// A duplicate-table error is treated as success so repeated loads into the
// same table just work; any other database error is returned as-is.
func (l *Loader) EnsureTable(ctx context.Context, table string) error {
	if _, err := l.pool.Exec(ctx, createStatement(table)); err != nil {
		if isDuplicateTable(err) {
			return nil
		}
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

// Load replaces the contents of table with the rows in the staging file,
// inside a single transaction: delete everything, then stream the file
// through the COPY protocol. It returns the number of rows COPY reported.
//
// The staging file must hold "domain,ip" lines as written by the reducer;
// Postgres itself validates each ip against the inet column type.
func (l *Loader) Load(ctx context.Context, table, stagingPath string) (int64, error) {
	f, err := os.Open(stagingPath) //nolint:gosec // staging path is produced by this program
	if err != nil {
		return 0, fmt.Errorf("failed to open staging file: %w", err)
	}
	defer func() { _ = f.Close() }()

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	// Rollback after a successful commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	ident := pgx.Identifier{table}.Sanitize()
	if _, err := tx.Exec(ctx, "DELETE FROM "+ident); err != nil {
		return 0, fmt.Errorf("failed to clear table %s: %w", table, err)
	}

	tag, err := tx.Conn().PgConn().CopyFrom(ctx, f, copyStatement(table))
	if err != nil {
		return 0, fmt.Errorf("failed to copy staged rows into %s: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit load into %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}

// createStatement renders the CREATE TABLE statement for a mapping table.
func createStatement(table string) string {
	return fmt.Sprintf(`CREATE TABLE %s (
	domain text PRIMARY KEY,
	ip inet NOT NULL
)`, pgx.Identifier{table}.Sanitize())
}

// copyStatement renders the COPY statement fed by the staging file.
// CSV format matches the staging rows exactly and keeps COPY's text-format
// backslash handling out of the picture.
func copyStatement(table string) string {
	return fmt.Sprintf("COPY %s (domain, ip) FROM STDIN (FORMAT csv)", pgx.Identifier{table}.Sanitize())
}

// isDuplicateTable reports whether err is Postgres telling us the table is
// already there.
func isDuplicateTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgDuplicateTable
}
