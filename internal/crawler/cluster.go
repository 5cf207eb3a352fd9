package crawler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nao1215/hostmap/internal/model"
)

// pointerFieldCount is the number of tab-separated fields in a
// cluster.idx line: "SURT timestamp", cdx file, offset, length, count.
const pointerFieldCount = 5

// ClusterPointers downloads and parses cluster.idx for the index, one
// pointer per line. Lines whose SURT key is an IP literal or fails
// hostname conversion are skipped; the second return value counts them.
// A structurally malformed line aborts with its line number.
func (c *Client) ClusterPointers(ctx context.Context, indexID string) ([]model.ClusterPointer, int, error) {
	body, err := c.getStream(ctx, c.clusterIdxURL(indexID))
	if err != nil {
		return nil, 0, fmt.Errorf("fetch cluster.idx: %w", err)
	}
	defer body.Close()

	var (
		pointers []model.ClusterPointer
		skipped  int
		lineNo   int
	)
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}

		pointer, err := c.parsePointer(indexID, line)
		if errors.Is(err, errNotHostname) {
			skipped++
			continue
		}
		if err != nil {
			return nil, 0, fmt.Errorf("cluster.idx line %d: %w", lineNo, err)
		}
		pointers = append(pointers, pointer)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read cluster.idx: %w", err)
	}

	c.logger.Debug("parsed cluster.idx",
		"index", indexID,
		"pointers", len(pointers),
		"skipped_hosts", skipped,
	)

	return pointers, skipped, nil
}

// parsePointer parses one cluster.idx line. Errors from the SURT key wrap
// errNotHostname; everything else is a malformed line.
func (c *Client) parsePointer(indexID, line string) (model.ClusterPointer, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != pointerFieldCount {
		return model.ClusterPointer{}, fmt.Errorf("expected %d tab-separated fields, got %d", pointerFieldCount, len(fields))
	}

	surt, timestamp, ok := strings.Cut(fields[0], " ")
	if !ok {
		return model.ClusterPointer{}, fmt.Errorf("missing timestamp in %q", fields[0])
	}

	host, err := parseSURTHost(surt)
	if err != nil {
		return model.ClusterPointer{}, err
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return model.ClusterPointer{}, fmt.Errorf("timestamp: %w", err)
	}
	offset, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return model.ClusterPointer{}, fmt.Errorf("offset: %w", err)
	}
	length, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return model.ClusterPointer{}, fmt.Errorf("length: %w", err)
	}

	return model.ClusterPointer{
		Host:      host,
		Timestamp: ts,
		IndexFile: fmt.Sprintf("%s/cc-index/collections/%s/indexes/%s", c.baseURL, indexID, fields[1]),
		Offset:    offset,
		Length:    length,
	}, nil
}

// clusterIdxURL returns the cluster.idx location for an index.
func (c *Client) clusterIdxURL(indexID string) string {
	return fmt.Sprintf("%s/cc-index/collections/%s/indexes/cluster.idx", c.baseURL, indexID)
}
