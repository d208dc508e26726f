// Package storage stores uploaded blobs (avatars, covers, goal images and
// comment photos) and hands back opaque URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Storage defines the interface for file storage operations.
type Storage interface {
	// Save stores the content under key.
	Save(ctx context.Context, key string, body io.Reader, contentType string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the public URL of key.
	URL(key string) string
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageExtension returns the file extension for an accepted image content
// type. ok is false for anything else.
func ImageExtension(contentType string) (ext string, ok bool) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok = allowedImageTypes[ct]
	return ext, ok
}

// NewKey builds a collision-free object key under folder.
func NewKey(folder, ext string) string {
	return path.Join(folder, uuid.NewString()+ext)
}

// KeyFromURL recovers the object key from a URL produced by s. It returns ""
// for URLs that s did not produce.
func KeyFromURL(s Storage, url string) string {
	base := s.URL("")
	if url == "" || !strings.HasPrefix(url, base) {
		return ""
	}
	return strings.TrimPrefix(url, base)
}

// Upload is Save followed by URL.
func Upload(ctx context.Context, s Storage, folder, contentType string, body io.Reader) (key, url string, err error) {
	ext, ok := ImageExtension(contentType)
	if !ok {
		return "", "", fmt.Errorf("unsupported content type %q", contentType)
	}
	key = NewKey(folder, ext)
	if err := s.Save(ctx, key, body, contentType); err != nil {
		return "", "", err
	}
	return key, s.URL(key), nil
}
