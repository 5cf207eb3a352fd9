package pipeline

import (
	"compress/gzip"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/crypto/sha3"

	"github.com/nao1215/hostmap/internal/dedup"
	"github.com/nao1215/hostmap/internal/loader"
	"github.com/nao1215/hostmap/internal/model"
)

// stagingFilePattern names staging files so a crashed run's leftovers in
// the temp directory are recognizable.
const stagingFilePattern = "hostmap-staging-*.csv"

// ReduceStep reads the gzip-compressed input dataset, folds it down to one
// row per domain, and writes the result to a staging file for COPY.
//
// Design decision: Reduction and staging are one step rather than two
// because the reduction map is the only thing connecting them; splitting
// the step would mean parking the map on the Run record between steps for
// no operational gain. The staging file path and its SHA3-256 digest go on
// the run, so a kept staging file can later be matched to the exact run
// that produced it.
type ReduceStep struct {
	// inputPath is the gzip-compressed mapping dataset to read.
	inputPath string

	// stagingDir is where the staging file is created.
	// Empty means the operating system's temporary directory.
	stagingDir string

	// logger for structured logging.
	logger *slog.Logger
}

// ReduceStepOption configures a ReduceStep.
type ReduceStepOption func(*ReduceStep)

// WithStagingDir sets the directory the staging file is created in.
func WithStagingDir(dir string) ReduceStepOption {
	return func(s *ReduceStep) {
		s.stagingDir = dir
	}
}

// WithReduceLogger sets a custom logger for the reduce step.
func WithReduceLogger(logger *slog.Logger) ReduceStepOption {
	return func(s *ReduceStep) {
		s.logger = logger
	}
}

// NewReduceStep creates the reduction step for one input dataset.
func NewReduceStep(inputPath string, opts ...ReduceStepOption) *ReduceStep {
	s := &ReduceStep{
		inputPath: inputPath,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ReduceStep) Name() string {
	return "reduce"
}

// Do executes the reduce step. On success the run carries the staging file
// path, its digest, and the row counters.
func (s *ReduceStep) Do(_ context.Context, run *model.Run) error {
	reducer := dedup.New()
	if err := s.consume(reducer); err != nil {
		return err
	}

	run.RowsRead = reducer.Observations()
	run.DomainsKept = int64(reducer.Len())
	s.logger.Info("reduced input dataset",
		"input", s.inputPath,
		"rows_read", run.RowsRead,
		"domains_kept", run.DomainsKept,
	)

	path, digest, err := s.stage(reducer)
	if err != nil {
		return err
	}
	run.StagingPath = path
	run.StagingDigest = digest

	s.logger.Debug("staged reduced rows",
		"staging", path,
		"digest", digest,
	)
	return nil
}

// consume streams the decompressed input through the reducer.
func (s *ReduceStep) consume(reducer *dedup.Reducer) error {
	f, err := os.Open(s.inputPath) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to decompress %s: %w", s.inputPath, err)
	}
	defer func() { _ = gz.Close() }()

	if err := reducer.Consume(gz); err != nil {
		return fmt.Errorf("failed to reduce %s: %w", s.inputPath, err)
	}
	return nil
}

// stage writes the reduced rows to a fresh staging file and returns its
// path and the SHA3-256 digest of its contents. A partially written file
// is removed.
func (s *ReduceStep) stage(reducer *dedup.Reducer) (string, string, error) {
	f, err := os.CreateTemp(s.stagingDir, stagingFilePattern)
	if err != nil {
		return "", "", fmt.Errorf("failed to create staging file: %w", err)
	}

	hash := sha3.New256()
	if _, err := reducer.WriteTo(io.MultiWriter(f, hash)); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", "", fmt.Errorf("failed to close staging file: %w", err)
	}

	return f.Name(), hex.EncodeToString(hash.Sum(nil)), nil
}

// EnsureTableStep makes sure the destination table exists before the load.
// A table that is already there counts as success; the loader swallows the
// duplicate-table error so repeated loads into one table just work.
type EnsureTableStep struct {
	// db holds the Postgres connection for the run.
	db *loader.Loader
}

// NewEnsureTableStep creates the table-ensuring step.
func NewEnsureTableStep(db *loader.Loader) *EnsureTableStep {
	return &EnsureTableStep{db: db}
}

// Name returns the step name.
func (s *EnsureTableStep) Name() string {
	return "ensure_table"
}

// Do executes the ensure-table step against the run's destination table.
func (s *EnsureTableStep) Do(ctx context.Context, run *model.Run) error {
	return s.db.EnsureTable(ctx, run.Table)
}

// CopyStep replaces the destination table's contents with the staged rows,
// inside one transaction: delete everything, then COPY the staging file in.
type CopyStep struct {
	// db holds the Postgres connection for the run.
	db *loader.Loader
}

// NewCopyStep creates the bulk-copy step.
func NewCopyStep(db *loader.Loader) *CopyStep {
	return &CopyStep{db: db}
}

// Name returns the step name.
func (s *CopyStep) Name() string {
	return "copy"
}

// Do executes the copy step and records how many rows COPY reported.
func (s *CopyStep) Do(ctx context.Context, run *model.Run) error {
	rows, err := s.db.Load(ctx, run.Table, run.StagingPath)
	if err != nil {
		return err
	}
	run.RowsLoaded = rows
	return nil
}

// CleanupStep removes the staging file after a successful load.
// It only runs when every earlier step succeeded, so a failed load keeps
// its staging file around for inspection regardless of configuration.
type CleanupStep struct {
	// keepStaging leaves the staging file in place when true.
	keepStaging bool

	// logger for structured logging.
	logger *slog.Logger
}

// CleanupStepOption configures a CleanupStep.
type CleanupStepOption func(*CleanupStep)

// WithKeepStaging leaves the staging file in place after the load.
func WithKeepStaging(keep bool) CleanupStepOption {
	return func(s *CleanupStep) {
		s.keepStaging = keep
	}
}

// WithCleanupLogger sets a custom logger for the cleanup step.
func WithCleanupLogger(logger *slog.Logger) CleanupStepOption {
	return func(s *CleanupStep) {
		s.logger = logger
	}
}

// NewCleanupStep creates the staging cleanup step.
func NewCleanupStep(opts ...CleanupStepOption) *CleanupStep {
	s := &CleanupStep{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CleanupStep) Name() string {
	return "cleanup"
}

// Do executes the cleanup step. A run that never staged anything has
// nothing to clean up.
func (s *CleanupStep) Do(_ context.Context, run *model.Run) error {
	if run.StagingPath == "" {
		return nil
	}
	if s.keepStaging {
		s.logger.Info("keeping staging file", "staging", run.StagingPath)
		return nil
	}
	if err := os.Remove(run.StagingPath); err != nil {
		return fmt.Errorf("failed to remove staging file: %w", err)
	}
	s.logger.Debug("removed staging file", "staging", run.StagingPath)
	return nil
}
