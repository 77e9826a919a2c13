// Package store persists uploaded images in object storage and hands out
// time-limited download URLs.
package store

import (
	"context"
	"io"
	"time"
)

// Error Contract:
// - URL returns sentinel.ErrNotFound when the object does not exist
// - Return wrapped errors with context for infrastructure failures
type Store interface {
	// Upload writes the object. Overwrites silently; object names embed a
	// uuid so collisions do not happen in practice.
	Upload(ctx context.Context, objectName, contentType string, body io.Reader) error
	// URL returns a presigned, expiring download URL for an existing object.
	URL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}
