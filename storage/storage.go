// Package storage keeps room image files, on local disk or in S3.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"room-booking/config"
)

// ImageStore persists image blobs under a slash-separated key and returns
// the public URL of each stored blob.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (url string, err error)
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (ImageStore, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
	case "s3":
		return NewS3Store(ctx, cfg)
	}
	return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
}

// Extensions of the accepted image content types.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ExtensionFor returns the file extension of an accepted image content type.
func ExtensionFor(contentType string) (string, bool) {
	ext, ok := imageExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	return ext, ok
}

var ErrBadDataURI = errors.New("invalid base64 image")

// DecodeDataURI decodes either a "data:<mime>;base64,<payload>" URI or a bare
// base64 payload. The returned content type is empty for bare payloads.
func DecodeDataURI(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, "", ErrBadDataURI
	}

	contentType := ""
	if strings.HasPrefix(s, "data:") {
		meta, payload, ok := strings.Cut(s, ";base64,")
		if !ok {
			return nil, "", ErrBadDataURI
		}
		contentType = strings.ToLower(strings.TrimPrefix(meta, "data:"))
		if contentType == "image/jpg" {
			contentType = "image/jpeg"
		}
		s = payload
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.URLEncoding.DecodeString(s)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrBadDataURI, err)
		}
	}
	return data, contentType, nil
}
