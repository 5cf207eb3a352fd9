// Package history provides SQLite-based storage for past hostmap runs.
//
// Every load and crawl records one row: what was read, where it went, the
// row counters, and how the run ended. The history command reads these
// rows back for display.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of a
// plain log file or JSON lines because:
//  1. No external dependencies - the history is a single file
//  2. CGO-free implementation allows easy cross-compilation
//  3. Ordering and limiting recent runs is a one-line query
//  4. WAL mode keeps concurrent reads cheap
//
// The database lives in the XDG data directory by default, one file per
// user rather than per project.
package history
