package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

const (
	// ImageExt is appended to every asset id on disk.
	ImageExt = ".jpg"

	// GeneratedDir holds images written by the generation client, named by prompt hash.
	GeneratedDir = "generated"
)

// DiskStore keeps image assets under a root directory, one subdirectory per
// AssetType plus GeneratedDir.
type DiskStore struct {
	root string

	mu sync.RWMutex
}

func NewDiskStore(root string) (*DiskStore, error) {
	if root == "" {
		return nil, fmt.Errorf("root path is required")
	}

	s := &DiskStore{root: root}

	err := s.ensureDirs()
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Root returns the directory that holds every asset.
func (s *DiskStore) Root() string {
	return s.root
}

// Path returns the deterministic file path for an asset. The file may not exist.
func (s *DiskStore) Path(t AssetType, id Identifier) string {
	return filepath.Join(s.root, t.String(), id.String()+ImageExt)
}

// GeneratedPath returns the file path for a generated image named by hash.
func (s *DiskStore) GeneratedPath(id Identifier) string {
	return filepath.Join(s.root, GeneratedDir, id.String()+ImageExt)
}

// Exists reports whether the asset file is present on disk.
func (s *DiskStore) Exists(t AssetType, id Identifier) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, err
	}
	if err := id.Validate(); err != nil {
		return false, fmt.Errorf("asset %q: %w", id, err)
	}
	return s.exists(s.Path(t, id))
}

// GeneratedExists reports whether a generated image with the given hash is on disk.
func (s *DiskStore) GeneratedExists(id Identifier) (bool, error) {
	if err := id.Validate(); err != nil {
		return false, fmt.Errorf("generated %q: %w", id, err)
	}
	return s.exists(s.GeneratedPath(id))
}

func (s *DiskStore) exists(path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", path, err)
	}
	return !info.IsDir(), nil
}

// Save writes the asset bytes to its deterministic path and returns that path.
func (s *DiskStore) Save(t AssetType, id Identifier, r io.Reader) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	if err := id.Validate(); err != nil {
		return "", fmt.Errorf("asset %q: %w", id, err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading asset data: %w", err)
	}

	path := s.Path(t, id)
	if err := s.write(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// SaveGenerated writes image bytes produced by the generation client.
func (s *DiskStore) SaveGenerated(id Identifier, data []byte) (string, error) {
	if err := id.Validate(); err != nil {
		return "", fmt.Errorf("generated %q: %w", id, err)
	}

	path := s.GeneratedPath(id)
	if err := s.write(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func (s *DiskStore) write(path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The directory may have been removed by a concurrent Reset.
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return atomicWrite(path, data, 0644)
}

// Reset deletes everything under the root and recreates the directory layout.
// Removing a root that does not exist is not an error.
func (s *DiskStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(s.root); err != nil {
		return fmt.Errorf("removing %s: %w", s.root, err)
	}
	return s.ensureDirsLocked()
}

func (s *DiskStore) ensureDirs() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureDirsLocked()
}

func (s *DiskStore) ensureDirsLocked() error {
	dirs := make([]string, 0, len(AssetTypes)+1)
	for _, t := range AssetTypes {
		dirs = append(dirs, t.String())
	}
	dirs = append(dirs, GeneratedDir)

	for _, d := range dirs {
		err := os.MkdirAll(filepath.Join(s.root, d), 0755)
		if err != nil {
			return fmt.Errorf("creating asset directory %s: %w", d, err)
		}
	}
	return nil
}

// atomicWrite writes data to a temp file then renames it to the target path.
// This prevents partial or empty files if the process is interrupted.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		if removeErr := os.Remove(tmp); removeErr != nil {
			slog.Warn("failed to remove temp file after rename failure", "path", tmp, "error", removeErr)
		}
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
