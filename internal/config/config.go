package config

import (
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen based on typical Common Crawl data access
// characteristics and sane Postgres loading behavior.
const (
	// DefaultHTTPTimeout is set to 90 seconds because ranged requests against
	// the Common Crawl data bucket can stall while cold objects are fetched
	// from storage. A shorter timeout would abort large cluster.idx downloads
	// that are making slow but steady progress.
	DefaultHTTPTimeout = 90 * time.Second

	// DefaultRetryAttempts is the number of tries for each HTTP request.
	// The data bucket regularly sheds load with 503s during busy hours, so
	// a couple of retries recover most transient failures without stalling
	// a crawl on a genuinely broken block.
	DefaultRetryAttempts = 3

	// DefaultUserAgent identifies hostmap in HTTP requests.
	// Using a descriptive User-Agent is good practice and lets Common Crawl
	// operators identify this traffic in their logs.
	DefaultUserAgent = "hostmap/1.0 (+https://github.com/nao1215/hostmap)"

	// DefaultCredentialsFile is the dotenv file holding Postgres connection
	// parameters. The name is shared with other reverse-DNS tooling that
	// reads the same database, so all of them find one file.
	DefaultCredentialsFile = ".reverse-dns-db-cred"

	// DefaultHistoryLimit is how many past runs the history command lists.
	DefaultHistoryLimit = 20

	// AppName is the application name used for XDG directory paths.
	AppName = "hostmap"

	// MaxConcurrency caps the crawl worker count. Each worker holds one
	// ranged HTTP request open; past eight the data bucket starts rate
	// limiting and extra workers only add contention.
	MaxConcurrency = 8
)

// DefaultConcurrency returns the default number of crawl workers:
// one per CPU, capped at MaxConcurrency.
func DefaultConcurrency() int {
	n := runtime.NumCPU()
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}

// Config holds all configuration options for hostmap.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., LoadConfig, CrawlConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// InputFile is the gzip-compressed mapping dataset to load.
	// Required for the load command; the file name must end in ".gz".
	InputFile string

	// TableName is the destination Postgres table. When empty, the load
	// command derives it from the input file name: "mapping-2020-nov.csv.gz"
	// becomes "2020_nov".
	TableName string

	// CredentialsFile is the dotenv file holding Postgres connection
	// parameters. When empty, the default file name is searched for from
	// the working directory upward.
	CredentialsFile string

	// StagingDir is where reduced rows are staged before COPY.
	// Empty means the operating system's temporary directory.
	StagingDir string

	// KeepStaging keeps the staging file after a successful load.
	// Useful for auditing exactly which rows went into the table.
	KeepStaging bool

	// ReportFiles are the output paths for run reports. The extension of
	// each path selects the format: ".json" gets the JSON report, anything
	// else Markdown. When empty, no report is written.
	ReportFiles []string

	// IndexID selects the Common Crawl index to crawl, e.g. "CC-MAIN-2020-50".
	// When empty, the newest available index is used.
	IndexID string

	// OutputFile is where the crawl writes mapping rows. When empty, the
	// name is derived from the index: "mapping-cc-main-2020-50.csv.gz".
	// Paths ending in ".gz" are gzip-compressed.
	OutputFile string

	// DumpClusterIdx makes the crawl command write the parsed cluster.idx
	// pointers to a CSV file instead of crawling, for offline inspection.
	DumpClusterIdx bool

	// Concurrency is the number of crawl workers fetching host blocks.
	Concurrency int

	// HTTPTimeout is the per-request timeout for index and data fetches.
	HTTPTimeout time.Duration

	// RetryAttempts is how many times each HTTP request is tried.
	RetryAttempts uint

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// BaseURL overrides where crawl data and index shards are fetched from.
	// Empty means the crawler's default (the public Common Crawl bucket).
	// Mainly useful for mirrors and tests.
	BaseURL string

	// CollinfoURL overrides where the index list is fetched from.
	// Empty means the crawler's default.
	CollinfoURL string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for hostmap.yaml in the current directory
	// and then in the XDG config directory.
	ConfigFilePath string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, retries).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		HTTPTimeout:   DefaultHTTPTimeout,
		RetryAttempts: DefaultRetryAttempts,
		UserAgent:     DefaultUserAgent,
		Concurrency:   DefaultConcurrency(),
	}
}

// XDGDataDir returns the XDG data directory for hostmap.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/hostmap
// On macOS: ~/Library/Application Support/hostmap
// On Windows: %LOCALAPPDATA%\hostmap
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for hostmap.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/hostmap
// On macOS: ~/Library/Application Support/hostmap
// On Windows: %APPDATA%\hostmap
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for hostmap.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.cache/hostmap
// On macOS: ~/Library/Caches/hostmap
// On Windows: %LOCALAPPDATA%\hostmap\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// ValidateForLoad checks the configuration of a load run.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before touching the database.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) ValidateForLoad() error {
	// The input dataset is the one thing a load cannot proceed without
	if c.InputFile == "" {
		return ErrNoInputFile
	}

	// The reducer streams through a gzip reader; a plain file here means
	// the caller pointed at the wrong artifact
	if !strings.HasSuffix(c.InputFile, ".gz") {
		return ErrInputNotGzip
	}

	return nil
}

// ValidateForCrawl checks the configuration of a crawl run.
// The same first-error-wins policy as ValidateForLoad applies.
func (c *Config) ValidateForCrawl() error {
	// Zero workers would mean no crawling at all
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.HTTPTimeout <= 0 {
		return ErrInvalidTimeout
	}

	// Zero attempts would mean no requests are ever sent
	if c.RetryAttempts == 0 {
		return ErrInvalidRetryAttempts
	}

	return nil
}
