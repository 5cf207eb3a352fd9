package config

import "errors"

// Configuration validation errors.
// These errors are returned by the Validate* methods and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in the validators. This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoInputFile is returned when the load command is run without an
	// input dataset.
	ErrNoInputFile = errors.New("no input file specified: provide a mapping dataset with --input-file")

	// ErrInputNotGzip is returned when the input file name does not end in
	// ".gz". Mapping datasets are always gzip-compressed; anything else is
	// almost certainly the wrong file.
	ErrInputNotGzip = errors.New("input file must be gzip-compressed (name must end in .gz)")

	// ErrInvalidConcurrency is returned when the crawl worker count is not
	// positive. Zero workers would mean the crawl never makes progress.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidTimeout is returned when the HTTP timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRetryAttempts is returned when the retry attempt count is
	// zero. Attempt counts include the first try, so zero means no requests.
	ErrInvalidRetryAttempts = errors.New("invalid retry attempts: must be at least 1")

	// ErrInvalidDBPort is returned when the database port read from the
	// environment is not a number.
	ErrInvalidDBPort = errors.New("invalid database port: must be numeric")
)
