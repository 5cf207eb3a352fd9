package crawler

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/idna"
)

// errNotHostname marks SURT keys that do not name a host: IP literals and
// keys that cannot be converted to a valid hostname. Callers skip those
// instead of aborting, because the dataset mixes both kinds.
var errNotHostname = errors.New("not a hostname")

// parseSURTHost converts a SURT key prefix into a hostname in normal
// order. SURT keys store the host with its labels reversed and separated
// by commas, so "com,example)/path" names example.com. A port suffix on
// the last label is dropped.
//
// Keys whose first label is all digits are reversed IP literals. They
// carry no name-to-address information, so they are rejected with
// errNotHostname. Unicode labels are converted to punycode; keys that
// fail the conversion are rejected the same way.
func parseSURTHost(surt string) (string, error) {
	key, _, _ := strings.Cut(surt, ")")
	key, _, _ = strings.Cut(key, ":")

	labels := strings.Split(key, ",")
	if isAllDigits(labels[0]) {
		return "", errNotHostname
	}

	slices.Reverse(labels)
	host, err := idna.ToASCII(strings.Join(labels, "."))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errNotHostname, err)
	}
	return host, nil
}

// isAllDigits reports whether s consists only of ASCII digits. The empty
// string counts as all digits so that empty SURT labels are rejected with
// the IP literals.
func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
