package domain

import (
	"context"
	"io"
	"time"
)

// BlobInfo describes one stored object.
type BlobInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// BlobWriter uploads objects to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// BlobReader retrieves and inspects stored objects.
type BlobReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// Archiver moves aged opportunity rows into blob storage.
type Archiver interface {
	// ArchiveOpportunities uploads all opportunities detected before the
	// cutoff as JSONL and prunes the archived rows. Returns the number of
	// archived records.
	ArchiveOpportunities(ctx context.Context, before time.Time) (int64, error)
}
