package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names for Postgres connection parameters.
// The REVERSE_DNS_ prefix namespaces these away from libpq's own PG*
// variables, so hostmap never accidentally picks up credentials meant
// for another tool.
const (
	EnvDBUser     = "REVERSE_DNS_DB_USER"
	EnvDBPassword = "REVERSE_DNS_DB_PASSWORD"
	EnvDBPort     = "REVERSE_DNS_DB_PORT"
	EnvDBHost     = "REVERSE_DNS_DB_HOST"
	EnvDBName     = "REVERSE_DNS_DB_NAME"
)

// Credentials holds the Postgres connection parameters for the mapping
// database. Empty fields are left out of the DSN so the driver's defaults
// apply; in particular, an empty Database falls back to the user name,
// which is standard Postgres behavior.
type Credentials struct {
	User     string
	Password string
	Host     string
	Port     string
	Database string
}

// LoadCredentials resolves database credentials from a dotenv file and the
// environment. The file at path is loaded first; when path is empty the
// default credentials file name is searched for from the working directory
// upward. File values override variables already present in the environment,
// so the checked-out file is the single source of truth for the database it
// names; only variables the file leaves unset fall back to the environment.
//
// A missing default file is not an error: the variables may be set directly
// in the environment. An explicitly given path that cannot be read is.
func LoadCredentials(path string) (Credentials, error) {
	credPath := path
	if credPath == "" {
		credPath = findCredentialsFile()
	}
	if credPath != "" {
		if err := godotenv.Overload(credPath); err != nil {
			if path == "" && os.IsNotExist(err) {
				// Racing deletion of a discovered file; fall through to env.
				credPath = ""
			} else {
				return Credentials{}, fmt.Errorf("failed to load credentials file %s: %w", credPath, err)
			}
		}
	}

	return Credentials{
		User:     os.Getenv(EnvDBUser),
		Password: os.Getenv(EnvDBPassword),
		Host:     os.Getenv(EnvDBHost),
		Port:     os.Getenv(EnvDBPort),
		Database: os.Getenv(EnvDBName),
	}, nil
}

// findCredentialsFile looks for the default credentials file in the working
// directory and each parent, returning the first hit or "".
func findCredentialsFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, DefaultCredentialsFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Validate checks the credential values that can be checked offline.
// Missing fields are not errors: the driver substitutes its defaults
// (localhost, port 5432, the OS user) for anything left empty.
func (c Credentials) Validate() error {
	if c.Port != "" {
		if _, err := strconv.Atoi(c.Port); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidDBPort, c.Port)
		}
	}
	return nil
}

// DSN renders the credentials as a keyword/value connection string.
// Only set fields are included. Values are quoted when they contain
// characters the keyword/value format would otherwise misparse.
func (c Credentials) DSN() string {
	parts := make([]string, 0, 5)
	add := func(key, value string) {
		if value != "" {
			parts = append(parts, key+"="+quoteDSNValue(value))
		}
	}
	add("host", c.Host)
	add("port", c.Port)
	add("user", c.User)
	add("password", c.Password)
	add("database", c.Database)
	return strings.Join(parts, " ")
}

// quoteDSNValue single-quotes a DSN value when it contains whitespace or
// quote characters, escaping per the libpq keyword/value rules.
func quoteDSNValue(v string) string {
	if !strings.ContainsAny(v, " \t'\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
