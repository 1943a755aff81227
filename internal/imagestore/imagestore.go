// Package imagestore persists recipe images and hands back stable keys. Two
// implementations exist: a local disk store served under /media/, and an S3
// (or MinIO) store that serves reads through presigned URLs.
package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// ErrNotAnImage is returned when an upload cannot be decoded as an image.
var ErrNotAnImage = errors.New("payload is not a decodable image")

// Store is the blob store collaborator. Keys are opaque to callers; only the
// store knows how to turn one back into a servable URL.
type Store interface {
	Save(ctx context.Context, key string, data []byte) error
	URL(ctx context.Context, key string) (string, error)
}

// NewKey returns a fresh storage key, partitioned by date so buckets and
// media directories stay browsable.
func NewKey() string {
	d := time.Now()
	return fmt.Sprintf("recipes/%d/%02d/%02d/%s.jpg", d.Year(), d.Month(), d.Day(), uuid.New())
}

// Normalize decodes an upload to prove it is an image and re-encodes it as
// JPEG, so stored objects always match the key extension. Garbage payloads
// come back as ErrNotAnImage.
func Normalize(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, ErrNotAnImage
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
