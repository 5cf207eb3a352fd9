// Package model defines the core data structures used throughout hostmap.
//
// This package contains the following main types:
//   - Observation: One domain/date/IP row of a mapping dataset
//   - Mapping: One crawl result row with a validated IP address
//   - Index: A Common Crawl monthly index as listed by collinfo.json
//   - ClusterPointer: The location of one host's block inside a CDX shard
//   - Run: The recorded outcome of one load or crawl execution
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (crawler, dedup, pipeline, report, history)
// need to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
