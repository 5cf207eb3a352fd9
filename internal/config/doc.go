// Package config provides configuration structures and utilities for hostmap.
// It defines the options for loading mapping datasets into Postgres, crawling
// Common Crawl indexes, and resolving database credentials from the
// environment and dotenv files.
package config
