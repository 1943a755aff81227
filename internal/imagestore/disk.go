package imagestore

import (
	"context"
	"os"
	"path/filepath"
)

// DiskStore writes images under a media root on the local filesystem. The
// router serves the root at /media/.
type DiskStore struct {
	root string
}

// NewDiskStore creates a DiskStore, ensuring the media root exists.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, err
	}
	return &DiskStore{root: root}, nil
}

// Root returns the media root path, for mounting the file server.
func (s *DiskStore) Root() string {
	return s.root
}

func (s *DiskStore) Save(_ context.Context, key string, data []byte) error {
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (s *DiskStore) URL(_ context.Context, key string) (string, error) {
	return "/media/" + key, nil
}
