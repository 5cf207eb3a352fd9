package dedup

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/hostmap/internal/model"
)

// Scanner buffer sizes for Consume. Dataset lines are a domain, a date and
// an IP, so even the ceiling is generous.
const (
	initialBufSize = 64 * 1024
	maxLineSize    = 1024 * 1024
)

// entry is the value side of the reduction map: the winning observation
// for one domain so far.
type entry struct {
	date string
	ip   string
}

// Reducer folds observations into one (date, ip) pair per domain, keeping
// the pair with the latest observation date. See the package documentation
// for the exact tie-breaking rules.
//
// The zero value is not usable; construct with New. Reducer is not safe for
// concurrent use.
type Reducer struct {
	entries      map[string]entry
	observations int64
}

// New returns an empty Reducer.
func New() *Reducer {
	return &Reducer{entries: make(map[string]entry)}
}

// Add folds one observation into the reduction.
//
// The first sighting of a domain stores its (date, ip) pair without looking
// at the date. A repeat sighting with the same IP is skipped, also without
// looking at either date. Only a repeat with a different IP forces both
// dates to parse; the new pair replaces the stored one when its date is
// strictly later, and on equal dates the stored pair stays.
func (r *Reducer) Add(o model.Observation) error {
	r.observations++

	stored, ok := r.entries[o.Domain]
	if !ok {
		r.entries[o.Domain] = entry{date: o.Date, ip: o.IP}
		return nil
	}
	if o.IP == stored.ip {
		return nil
	}

	newDate, err := time.Parse(model.DateLayout, o.Date)
	if err != nil {
		return fmt.Errorf("invalid observation date %q for domain %s: %w", o.Date, o.Domain, err)
	}
	storedDate, err := time.Parse(model.DateLayout, stored.date)
	if err != nil {
		return fmt.Errorf("invalid stored date %q for domain %s: %w", stored.date, o.Domain, err)
	}

	if newDate.After(storedDate) {
		r.entries[o.Domain] = entry{date: o.Date, ip: o.IP}
	}
	return nil
}

// Consume reads newline-delimited observation rows until EOF and folds each
// into the reduction. The first malformed row aborts with its line number;
// a partially consumed reader leaves the Reducer with everything folded so
// far.
func (r *Reducer) Consume(rd io.Reader) error {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, initialBufSize), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		o, err := model.ParseObservation(strings.TrimSpace(scanner.Text()))
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if err := r.Add(o); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read observations: %w", err)
	}
	return nil
}

// WriteTo writes one "domain,ip" line per reduced entry to w, implementing
// io.WriterTo. The output is staging input for COPY, which does not care
// about row order, so entries are written in map iteration order.
func (r *Reducer) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for domain, e := range r.entries {
		n, err := fmt.Fprintf(w, "%s,%s\n", domain, e.ip)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("failed to write staging row for %s: %w", domain, err)
		}
	}
	return written, nil
}

// Observations returns how many observation rows have been folded in.
func (r *Reducer) Observations() int64 {
	return r.observations
}

// Len returns the number of distinct domains seen so far.
func (r *Reducer) Len() int {
	return len(r.entries)
}

// Lookup returns the winning (date, ip) pair for a domain, if present.
func (r *Reducer) Lookup(domain string) (date, ip string, ok bool) {
	e, found := r.entries[domain]
	if !found {
		return "", "", false
	}
	return e.date, e.ip, true
}
