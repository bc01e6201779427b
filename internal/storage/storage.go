// Package storage keeps uploaded images on local disk or in S3.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrObjectNotFound is returned by Open when no object exists under the key.
var ErrObjectNotFound = errors.New("object not found")

// ErrInvalidKey is returned for keys that could escape the store root.
var ErrInvalidKey = errors.New("invalid object key")

// Object is an opened stored object. Callers must close Body.
type Object struct {
	Body io.ReadCloser
	Size int64
}

// Store persists uploaded images by key.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Open(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ImageContentType returns the content type for an image name and whether
// its extension is one of the accepted image formats.
func ImageContentType(name string) (string, bool) {
	ct, ok := imageTypes[strings.ToLower(path.Ext(name))]
	return ct, ok
}

// ValidKey reports whether key is a relative slash-separated path with no
// parent references.
func ValidKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.ContainsRune(key, '\\') {
		return false
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return false
		}
	}
	return true
}
