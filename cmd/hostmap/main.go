// Package main provides the entry point for the hostmap CLI.
//
// Hostmap is a Common Crawl host-to-IP mapping toolchain. It crawls the
// Common Crawl index to produce mapping datasets, deduplicates them to the
// latest observation per domain, and bulk-loads the result into Postgres.
//
// Usage:
//
//	hostmap crawl --index-id CC-MAIN-2020-50
//	hostmap load --input-file mapping-2020-nov.csv.gz
//
// See --help for all available options.
package main

// main is the entry point for hostmap.
func main() {
	Execute()
}
