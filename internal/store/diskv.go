package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/peterbourgon/diskv/v3"
)

// Disk is a KV backed by one file per key under a base directory.
type Disk struct {
	d *diskv.Diskv
}

// OpenDisk creates the base directory if needed and returns a diskv-backed KV.
func OpenDisk(basePath string) (*Disk, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create record dir: %w", err)
	}
	return &Disk{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		Transform:    func(string) []string { return []string{} },
		TempDir:      filepath.Join(basePath, ".tmp"),
		CacheSizeMax: 1024 * 1024,
	})}, nil
}

// Get implements KV.
func (s *Disk) Get(_ context.Context, key string) ([]byte, error) {
	val, err := s.d.Read(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return val, nil
}

// Put implements KV. Writes go through TempDir and a rename, so a crash
// leaves either the old or the new value.
func (s *Disk) Put(_ context.Context, key string, value []byte) error {
	return s.d.Write(key, value)
}

// Delete implements KV.
func (s *Disk) Delete(_ context.Context, key string) error {
	if !s.d.Has(key) {
		return nil
	}
	return s.d.Erase(key)
}
