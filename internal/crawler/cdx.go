package crawler

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nao1215/hostmap/internal/model"
)

// QueryPointer fetches the cdx block a pointer covers and resolves one
// mapping per capture day for the pointer's host.
//
// A block is a single gzip member holding lines of the form
// "SURT timestamp {json}". The byte range covers neighboring hosts in the
// same block, so records for other hosts are ignored. For each calendar
// day the first well-formed record wins; the day is consumed even when
// its WARC lookup yields no IP afterward, so a later record for the same
// day is never retried.
func (c *Client) QueryPointer(ctx context.Context, pointer model.ClusterPointer) ([]model.Mapping, error) {
	body, err := c.get(ctx, pointer.IndexFile, byteRangeHeader(pointer.Offset, pointer.Length))
	if err != nil {
		return nil, fmt.Errorf("fetch cdx block: %w", err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decompress cdx block: %w", err)
	}
	// The inclusive range reaches one byte into the next gzip member.
	// Stop at the member boundary instead of decoding that byte.
	gz.Multistream(false)

	var mappings []model.Mapping
	seenDays := make(map[string]bool)

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		surt, rest, ok := strings.Cut(scanner.Text(), " ")
		if !ok {
			continue
		}
		timestamp, rawJSON, ok := strings.Cut(rest, " ")
		if !ok {
			continue
		}

		host, err := parseSURTHost(surt)
		if err != nil || host != pointer.Host {
			continue
		}

		day, err := captureDay(timestamp)
		if err != nil {
			c.logger.Debug("skip cdx record", "host", host, "error", err)
			continue
		}
		if seenDays[day] {
			continue
		}

		var record model.CDXRecord
		if err := json.Unmarshal([]byte(rawJSON), &record); err != nil {
			c.logger.Debug("skip cdx record", "host", host, "day", day, "error", err)
			continue
		}
		seenDays[day] = true

		mapping, err := c.retrieveIP(ctx, host, day, record)
		if err != nil {
			c.logger.Debug("no ip for capture", "host", host, "day", day, "error", err)
			continue
		}
		mappings = append(mappings, mapping)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read cdx block: %w", err)
	}

	return mappings, nil
}

// captureDay reduces a capture timestamp (YYYYMMDDhhmmss) to its calendar
// day in ISO form.
func captureDay(timestamp string) (string, error) {
	if len(timestamp) < 8 {
		return "", fmt.Errorf("capture timestamp %q too short", timestamp)
	}
	day, err := time.Parse("20060102", timestamp[:8])
	if err != nil {
		return "", fmt.Errorf("capture timestamp: %w", err)
	}
	return day.Format(model.DateLayout), nil
}
