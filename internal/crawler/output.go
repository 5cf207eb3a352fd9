package crawler

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// outputBufferSize is the write buffer in front of the output file.
// Mapping lines are tiny, so they are batched before hitting gzip and
// the file.
const outputBufferSize = 128 * 1024

// OpenOutput creates the crawl output file at path. When path ends in
// ".gz" the writes are gzip-compressed. Close flushes the buffer,
// finishes the gzip stream, and closes the file.
func OpenOutput(path string) (io.WriteCloser, error) {
	f, err := os.Create(path) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	out := &outputFile{file: f}
	if strings.HasSuffix(path, ".gz") {
		out.gzip = gzip.NewWriter(f)
		out.buf = bufio.NewWriterSize(out.gzip, outputBufferSize)
	} else {
		out.buf = bufio.NewWriterSize(f, outputBufferSize)
	}
	return out, nil
}

// outputFile layers a buffer and optional gzip compression over a file.
type outputFile struct {
	buf  *bufio.Writer
	gzip *gzip.Writer // nil for plain output
	file *os.File
}

// Write buffers p.
func (o *outputFile) Write(p []byte) (int, error) {
	return o.buf.Write(p)
}

// Close flushes the layers in write order and closes the file. The first
// failure is reported, but the file is closed regardless.
func (o *outputFile) Close() error {
	err := o.buf.Flush()
	if o.gzip != nil {
		if gzErr := o.gzip.Close(); err == nil {
			err = gzErr
		}
	}
	if closeErr := o.file.Close(); err == nil {
		err = closeErr
	}
	return err
}
