package model

import (
	"fmt"
	"net/netip"
	"strings"
)

// DateLayout is the calendar date format used on mapping dataset rows, both
// in crawl output and on the load path.
const DateLayout = "2006-01-02"

// ObservationFieldCount is the number of comma-separated fields on one
// dataset row: domain, date, ip.
const ObservationFieldCount = 3

// Observation is one row of a mapping dataset: a domain name, the calendar
// date it was observed, and the IP address it resolved to on that date.
//
// The date is kept as raw text. Reduction only parses it when two
// observations of the same domain disagree on the IP, so rows that never
// reach that comparison never pay for (or fail on) date parsing.
type Observation struct {
	Domain string
	Date   string
	IP     string
}

// ParseObservation parses one "domain,date,ip" dataset row. Field values are
// carried as-is; see Observation for when dates get parsed.
func ParseObservation(line string) (Observation, error) {
	fields := strings.Split(line, ",")
	if len(fields) != ObservationFieldCount {
		return Observation{}, fmt.Errorf("expected %d comma-separated fields, got %d", ObservationFieldCount, len(fields))
	}
	return Observation{Domain: fields[0], Date: fields[1], IP: fields[2]}, nil
}

// Mapping is one crawl result row: a host name, the capture day, and the IP
// address the crawler contacted for that capture.
type Mapping struct {
	Host string
	Date string
	IP   netip.Addr
}

// CSV renders the mapping in the same domain,date,ip shape that
// ParseObservation reads back.
func (m Mapping) CSV() string {
	return m.Host + "," + m.Date + "," + m.IP.String()
}
