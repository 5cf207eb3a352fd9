package crawler

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/nao1215/hostmap/internal/model"
	"golang.org/x/sync/errgroup"
)

const (
	// mappingQueueSize buffers mappings between the fetch workers and the
	// single writer goroutine so slow disk writes do not stall fetches.
	mappingQueueSize = 1024

	// progressInterval is how many resolved pointers pass between
	// progress log lines.
	progressInterval = 1000
)

// Stats summarizes one crawl.
type Stats struct {
	// Pointers is how many host blocks the index contained.
	Pointers int64

	// Skipped is how many cluster.idx entries were dropped before the
	// crawl because their key was an IP literal or not a hostname.
	Skipped int64

	// Failed is how many host blocks could not be fetched or parsed.
	Failed int64

	// Mappings is how many host,date,ip lines were written.
	Mappings int64
}

// Crawl resolves every pointer of the index concurrently and writes the
// resulting mapping lines to w. A pointer that keeps failing after
// retries is logged and skipped; only write errors and cancellation abort
// the crawl. The returned Stats are valid even when an error is returned.
func (c *Client) Crawl(ctx context.Context, indexID string, w io.Writer) (Stats, error) {
	pointers, skipped, err := c.ClusterPointers(ctx, indexID)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Pointers: int64(len(pointers)), Skipped: int64(skipped)}
	c.logger.Info("starting crawl",
		"index", indexID,
		"pointers", stats.Pointers,
		"skipped_hosts", stats.Skipped,
		"concurrency", c.concurrency,
	)
	startTime := time.Now()

	// The writer goroutine owns w. It keeps draining after a write error
	// so the workers never block on a dead output file.
	out := make(chan model.Mapping, mappingQueueSize)
	writerDone := make(chan struct{})
	var (
		written  int64
		writeErr error
	)
	go func() {
		defer close(writerDone)
		for mapping := range out {
			if writeErr != nil {
				continue
			}
			if _, err := io.WriteString(w, mapping.CSV()+"\n"); err != nil {
				writeErr = err
				continue
			}
			written++
		}
	}()

	var (
		processed atomic.Int64
		failed    atomic.Int64
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, pointer := range pointers {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			mappings, err := c.QueryPointer(ctx, pointer)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				failed.Add(1)
				c.logger.Warn("skip host block",
					"host", pointer.Host,
					"error", err,
				)
			}

			for _, mapping := range mappings {
				select {
				case out <- mapping:
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			if n := processed.Add(1); n%progressInterval == 0 {
				c.logger.Info("crawl progress",
					"processed", n,
					"total", stats.Pointers,
				)
			}
			return nil
		})
	}

	err = g.Wait()
	close(out)
	<-writerDone

	stats.Failed = failed.Load()
	stats.Mappings = written

	if err != nil {
		return stats, err
	}
	if writeErr != nil {
		return stats, fmt.Errorf("write output: %w", writeErr)
	}

	c.logger.Info("crawl complete",
		"index", indexID,
		"pointers", stats.Pointers,
		"skipped_hosts", stats.Skipped,
		"failed", stats.Failed,
		"mappings", stats.Mappings,
		"elapsed", time.Since(startTime),
	)

	return stats, nil
}
