package model

import "time"

// Run kinds recorded in history and reports.
const (
	RunKindLoad  = "load"
	RunKindCrawl = "crawl"
)

// Run captures the outcome of one hostmap execution. Load runs fill the
// input, table and row counters; crawl runs fill the index, output and
// pointer counters. Unused fields are omitted from JSON output.
type Run struct {
	// ID is assigned by the history store on save.
	ID int64 `json:"id,omitempty"`
	// Kind is RunKindLoad or RunKindCrawl.
	Kind string `json:"kind"`

	// Input is the mapping dataset a load run read.
	Input string `json:"input,omitempty"`
	// Table is the destination table of a load run.
	Table string `json:"table,omitempty"`
	// StagingPath is where the reduced rows were staged.
	StagingPath string `json:"staging_path,omitempty"`
	// StagingDigest is the SHA3-256 digest of the staging file contents.
	StagingDigest string `json:"staging_digest,omitempty"`
	// RowsRead counts the observation rows read from the input.
	RowsRead int64 `json:"rows_read,omitempty"`
	// DomainsKept counts the reduced rows staged for loading.
	DomainsKept int64 `json:"domains_kept,omitempty"`
	// RowsLoaded counts the rows reported by COPY after the load.
	RowsLoaded int64 `json:"rows_loaded,omitempty"`

	// Index is the Common Crawl index a crawl run walked.
	Index string `json:"index,omitempty"`
	// Output is the file a crawl run wrote.
	Output string `json:"output,omitempty"`
	// Pointers counts the host blocks taken from cluster.idx.
	Pointers int64 `json:"pointers,omitempty"`
	// SkippedHosts counts cluster.idx entries dropped before the crawl
	// because their key was not a hostname.
	SkippedHosts int64 `json:"skipped_hosts,omitempty"`
	// FailedPointers counts host blocks whose fetches failed.
	FailedPointers int64 `json:"failed_pointers,omitempty"`
	// Mappings counts the crawl rows written to the output.
	Mappings int64 `json:"mappings,omitempty"`

	// Steps lists the pipeline steps that ran, in order.
	Steps []string `json:"steps,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	// ErrorMessage holds the error that stopped the run, if any.
	ErrorMessage string `json:"error,omitempty"`
}

// NewRun returns a Run of the given kind with the start time stamped.
func NewRun(kind string) *Run {
	return &Run{Kind: kind, StartedAt: time.Now().UTC()}
}

// Finish stamps the end time of the run.
func (r *Run) Finish() {
	r.FinishedAt = time.Now().UTC()
}

// Duration returns how long the run took. Unfinished runs measure up to now.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failed reports whether the run stopped on an error.
func (r *Run) Failed() bool {
	return r.ErrorMessage != ""
}

// DuplicatesCollapsed returns how many observation rows the reduction folded
// away on a load run.
func (r *Run) DuplicatesCollapsed() int64 {
	n := r.RowsRead - r.DomainsKept
	if n < 0 {
		return 0
	}
	return n
}

// Target names what the run operated on, for history listings.
func (r *Run) Target() string {
	switch r.Kind {
	case RunKindLoad:
		return r.Table
	case RunKindCrawl:
		return r.Index
	}
	return ""
}
