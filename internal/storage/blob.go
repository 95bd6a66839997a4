package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var ErrNotFound = errors.New("blob not found")

type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) // returns canonical key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// SignedURL returns a time-limited direct download URL, or "" when the
	// store cannot sign and the caller should stream Get instead.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// CleanKey turns an untrusted key into a relative slash path with no ".."
// segments. It returns "" when nothing usable is left.
func CleanKey(key string) string {
	k := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	k = strings.TrimPrefix(k, "/")
	if k == "." {
		return ""
	}
	return k
}
