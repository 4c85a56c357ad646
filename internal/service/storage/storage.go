package storage

import (
	"context"
	"io"
	"time"
)

// VideoStore is the object storage surface the checkoff workflow needs:
// write-once uploads by path, existence checks for caller-supplied paths and
// time-limited signed read URLs for review.
type VideoStore interface {
	Upload(ctx context.Context, path string, data io.Reader, size int64, contentType string) error
	Exists(ctx context.Context, path string) (bool, error)
	PresignedGetURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}
