package crawler

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/nao1215/hostmap/internal/model"
)

const (
	// warcHeaderCap bounds how many bytes of a WARC record are fetched.
	// The WARC-IP-Address header sits in the record's first few hundred
	// bytes; the payload behind it is never needed.
	warcHeaderCap = 901

	// warcIPHeader names the server IP address the crawler connected to
	// when it captured the record.
	warcIPHeader = "WARC-IP-Address"
)

// errNoIPHeader is returned when a WARC record head carries no parsable
// WARC-IP-Address header.
var errNoIPHeader = errors.New("no WARC-IP-Address header in record")

// retrieveIP fetches the head of the WARC record named by a cdx index
// record and extracts the IP address the host resolved to at capture
// time.
func (c *Client) retrieveIP(ctx context.Context, host, day string, record model.CDXRecord) (model.Mapping, error) {
	offset, length, err := record.ByteRange()
	if err != nil {
		return model.Mapping{}, err
	}
	if length > warcHeaderCap {
		length = warcHeaderCap
	}

	body, err := c.get(ctx, c.baseURL+"/"+record.Filename, byteRangeHeader(offset, length))
	if err != nil {
		return model.Mapping{}, fmt.Errorf("fetch warc record: %w", err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return model.Mapping{}, fmt.Errorf("decompress warc record: %w", err)
	}
	gz.Multistream(false)

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		name, value, ok := strings.Cut(scanner.Text(), ": ")
		if !ok || name != warcIPHeader {
			continue
		}
		ip, err := netip.ParseAddr(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		return model.Mapping{Host: host, Date: day, IP: ip}, nil
	}

	// The capped fetch truncates the gzip member mid-stream, so the
	// scanner always ends with a decode error once the headers run out.
	// That error carries no signal; only the missing header does.
	return model.Mapping{}, errNoIPHeader
}
