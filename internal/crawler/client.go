package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// Default endpoints of the public Common Crawl dataset.
const (
	// DefaultBaseURL serves cluster.idx files, cdx index blocks, and WARC
	// segments.
	DefaultBaseURL = "https://data.commoncrawl.org"

	// DefaultCollinfoURL lists the available crawl indexes as JSON.
	DefaultCollinfoURL = "https://index.commoncrawl.org/collinfo.json"
)

// Client fetches and parses Common Crawl index data.
//
// Design decision: One Client owns every request of a crawl rather than
// creating per-request clients because:
//  1. Connection reuse matters when a crawl issues hundreds of thousands
//     of small ranged requests against the same two hosts
//  2. The retry policy and User-Agent stay consistent across request types
//  3. Tests can swap the HTTP client for a test server's
type Client struct {
	// httpClient performs all requests. Its timeout covers the full
	// response body read, not just the connection.
	httpClient *http.Client

	// baseURL is where crawl data and index shards live.
	baseURL string

	// collinfoURL is where the index list lives.
	collinfoURL string

	// userAgent is the User-Agent header to send.
	userAgent string

	// retryAttempts is the total number of tries per request.
	retryAttempts uint

	// concurrency is the number of workers resolving pointers in Crawl.
	concurrency int

	// logger receives progress and skip events.
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout. The timeout includes reading
// the response body, so it must accommodate the cluster.idx download.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithBaseURL overrides where crawl data and index shards are fetched
// from. Useful for mirrors and tests.
func WithBaseURL(rawURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(rawURL, "/")
	}
}

// WithCollinfoURL overrides where the index list is fetched from.
func WithCollinfoURL(rawURL string) Option {
	return func(c *Client) {
		c.collinfoURL = rawURL
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRetryAttempts sets how many times each request is tried in total.
func WithRetryAttempts(n uint) Option {
	return func(c *Client) {
		if n > 0 {
			c.retryAttempts = n
		}
	}
}

// WithConcurrency sets the number of concurrent crawl workers.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client for the public Common Crawl endpoints.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:    &http.Client{Timeout: 90 * time.Second},
		baseURL:       DefaultBaseURL,
		collinfoURL:   DefaultCollinfoURL,
		userAgent:     "hostmap/1.0 (+https://github.com/nao1215/hostmap)",
		retryAttempts: 3,
		concurrency:   4,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// get fetches a resource and returns its body. byteRange is a Range
// header value such as "bytes=0-1024"; empty fetches the whole resource.
func (c *Client) get(ctx context.Context, rawURL, byteRange string) ([]byte, error) {
	var body []byte
	err := retry.Do(
		func() error {
			b, err := c.getOnce(ctx, rawURL, byteRange)
			if err != nil {
				return err
			}
			body = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.retryAttempts),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// getOnce performs a single attempt of get.
func (c *Client) getOnce(ctx context.Context, rawURL, byteRange string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if byteRange != "" {
		req.Header.Set("Range", byteRange)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, statusErr(rawURL, resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// getStream fetches a resource and returns its body as a stream. Retries
// cover establishing the response; read errors after that surface to the
// caller. Used for cluster.idx, which is too large to hold in memory.
func (c *Client) getStream(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	var body io.ReadCloser
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("User-Agent", c.userAgent)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				_ = resp.Body.Close()
				return statusErr(rawURL, resp.StatusCode, resp.Status)
			}
			body = resp.Body
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.retryAttempts),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// statusErr converts a non-success HTTP status into an error. Client
// errors other than 429 are permanent, so they are marked unrecoverable
// and not retried.
func statusErr(rawURL string, code int, status string) error {
	err := fmt.Errorf("%s: unexpected status %s", rawURL, status)
	if code >= http.StatusBadRequest && code < http.StatusInternalServerError &&
		code != http.StatusTooManyRequests {
		return retry.Unrecoverable(err)
	}
	return err
}

// byteRangeHeader builds an inclusive Range header value covering length
// bytes starting at offset.
func byteRangeHeader(offset, length int64) string {
	return fmt.Sprintf("bytes=%d-%d", offset, offset+length)
}
