package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// MappingFilePrefix is the file name prefix mapping datasets carry. Table
// name derivation relies on it, so inputs without the prefix must name
// their table explicitly.
const MappingFilePrefix = "mapping-"

// ErrNotMappingFile is returned when a table name cannot be derived because
// the input file does not follow the mapping-<name> naming convention.
var ErrNotMappingFile = errors.New("cannot derive table name: file name must look like mapping-<name>.csv.gz")

// DeriveTableName derives the destination table name from a mapping file
// path: the base name up to the first dot, minus the "mapping-" prefix,
// with dashes turned into underscores.
//
//	mapping-2020-nov.csv.gz -> 2020_nov
//	data/mapping-cc-main-2020-50.csv.gz -> cc_main_2020_50
func DeriveTableName(path string) (string, error) {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, MappingFilePrefix) {
		return "", fmt.Errorf("%w: %s", ErrNotMappingFile, base)
	}

	stem, _, _ := strings.Cut(base, ".")
	name := strings.ReplaceAll(strings.TrimPrefix(stem, MappingFilePrefix), "-", "_")
	if name == "" {
		return "", fmt.Errorf("%w: %s", ErrNotMappingFile, base)
	}
	return name, nil
}
