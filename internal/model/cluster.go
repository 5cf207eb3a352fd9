package model

import (
	"fmt"
	"strconv"
)

// ClusterPointer locates the block of one compressed CDX shard that holds
// the index records of a single host. The cluster.idx file of an index
// stores one such pointer per block.
type ClusterPointer struct {
	// Host is the hostname reassembled from the block's SURT key.
	Host string
	// Timestamp is the 14-digit capture timestamp on the idx line.
	Timestamp int64
	// IndexFile is the absolute URL of the CDX shard holding the block.
	IndexFile string
	// Offset is the byte position of the block inside the shard.
	Offset int64
	// Length is the compressed size of the block in bytes.
	Length int64
}

// CSV renders the pointer as one line of a cluster index dump.
func (p ClusterPointer) CSV() string {
	return fmt.Sprintf("%s,%d,%s,%d,%d", p.Host, p.Timestamp, p.IndexFile, p.Offset, p.Length)
}

// CDXRecord is the JSON document on the tail of one CDX index line. Numeric
// fields arrive as strings on the wire; ByteRange converts the pair needed
// for fetching.
type CDXRecord struct {
	URL          string `json:"url"`
	Mime         string `json:"mime"`
	MimeDetected string `json:"mime-detected"`
	Status       string `json:"status"`
	Digest       string `json:"digest"`
	Length       string `json:"length"`
	Offset       string `json:"offset"`
	Filename     string `json:"filename"`
}

// ByteRange returns the byte offset and length of the WARC record the CDX
// entry points at.
func (r CDXRecord) ByteRange() (offset, length int64, err error) {
	offset, err = strconv.ParseInt(r.Offset, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid warc offset %q: %w", r.Offset, err)
	}
	length, err = strconv.ParseInt(r.Length, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid warc length %q: %w", r.Length, err)
	}
	return offset, length, nil
}
