package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = "hostmap.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the hostmap.yaml configuration file.
// Every field is optional; anything left out keeps its built-in default,
// and CLI flags override the file.
type File struct {
	// Concurrency is the number of crawl workers.
	Concurrency int `yaml:"concurrency,omitempty"`

	// HTTPTimeoutSeconds is the per-request timeout in seconds.
	HTTPTimeoutSeconds int `yaml:"httpTimeoutSeconds,omitempty"`

	// RetryAttempts is how many times each HTTP request is tried.
	RetryAttempts uint `yaml:"retryAttempts,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// BaseURL overrides the crawl data endpoint, e.g. for a mirror.
	BaseURL string `yaml:"baseUrl,omitempty"`

	// CollinfoURL overrides where the index list is fetched from.
	CollinfoURL string `yaml:"collinfoUrl,omitempty"`

	// CredentialsFile points at the dotenv file with Postgres parameters.
	CredentialsFile string `yaml:"credentialsFile,omitempty"`

	// StagingDir is where reduced rows are staged before COPY.
	StagingDir string `yaml:"stagingDir,omitempty"`

	// KeepStaging keeps staging files after successful loads.
	KeepStaging bool `yaml:"keepStaging,omitempty"`
}

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for hostmap.yaml in the current directory
// 3. Look for hostmap.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check XDG config directory
	xdgConfig := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}

// Apply copies the file's set fields onto the config. Zero values mean
// "not set in the file" and leave the config untouched, so the precedence
// stays built-in defaults < config file < CLI flags.
func (cf *File) Apply(c *Config) {
	if cf.Concurrency > 0 {
		c.Concurrency = cf.Concurrency
	}
	if cf.HTTPTimeoutSeconds > 0 {
		c.HTTPTimeout = time.Duration(cf.HTTPTimeoutSeconds) * time.Second
	}
	if cf.RetryAttempts > 0 {
		c.RetryAttempts = cf.RetryAttempts
	}
	if cf.UserAgent != "" {
		c.UserAgent = cf.UserAgent
	}
	if cf.BaseURL != "" {
		c.BaseURL = cf.BaseURL
	}
	if cf.CollinfoURL != "" {
		c.CollinfoURL = cf.CollinfoURL
	}
	if cf.CredentialsFile != "" {
		c.CredentialsFile = cf.CredentialsFile
	}
	if cf.StagingDir != "" {
		c.StagingDir = cf.StagingDir
	}
	if cf.KeepStaging {
		c.KeepStaging = true
	}
}
