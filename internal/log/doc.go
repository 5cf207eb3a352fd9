// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (credentials, tokens, DSNs)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Security Features
//
// The SecureHandler automatically sanitizes sensitive information in log output:
//   - Database credentials and connection strings (password=..., postgres:// URIs)
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Secret values detected by pattern matching (passwords, tokens, keys)
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of secrets in logs that may be shared or stored. hostmap reads
// Postgres credentials from the environment, and those values must never
// reach the log stream.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("connected",
//	    "dsn", "host=db user=app password=hunter2",  // Will be sanitized
//	    "table", "2020_nov",
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
