// Package storage puts submission attachments in a public object store and
// hands back the URL recorded on the event.
package storage

import (
	"context"
)

const (
	CacheControlSeconds = 3600
	DriverSupabase      = "supabase"
	DriverCloudinary    = "cloudinary"
)

// ObjectStore never overwrites: uploading to an existing key fails.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
