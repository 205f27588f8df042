package snapstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"tidy-go/internal/safety"
)

// FileSystemStore keeps snapshots on the local filesystem, one directory per
// operation:
//
//	<root>/
//	  <operation_id>/
//	    content      (file snapshot bytes, absent for non-file targets)
//	    meta.toml    (metadata sidecar)
//
// Keying by operation id keeps concurrent invocations from ever touching the
// same directory.
type FileSystemStore struct {
	root string
}

// NewFileSystemStore creates a store rooted at the given path.
func NewFileSystemStore(root string) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("creating snapshot root: %w", err)
	}
	return &FileSystemStore{root: root}, nil
}

func (s *FileSystemStore) opDir(opID string) string {
	return filepath.Join(s.root, opID)
}

func (s *FileSystemStore) PutContent(opID string, r io.Reader, size int64) error {
	dir := s.opDir(opID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	return writeAtomic(filepath.Join(dir, "content"), r, size)
}

func (s *FileSystemStore) GetContent(opID string, w io.Writer) error {
	f, err := os.Open(filepath.Join(s.opDir(opID), "content"))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("snapshot content not found for operation %s", opID)
		}
		return fmt.Errorf("opening snapshot content: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("reading snapshot content: %w", err)
	}
	return nil
}

func (s *FileSystemStore) PutMeta(opID string, meta *safety.SnapshotMeta) error {
	dir := s.opDir(opID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".tmp-meta-*")
	if err != nil {
		return fmt.Errorf("creating sidecar temp file: %w", err)
	}
	tmpPath := f.Name()

	if err := toml.NewEncoder(f).Encode(meta); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encoding sidecar: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing sidecar temp file: %w", err)
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, "meta.toml")); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming sidecar: %w", err)
	}
	return nil
}

func (s *FileSystemStore) GetMeta(opID string) (*safety.SnapshotMeta, error) {
	data, err := os.ReadFile(filepath.Join(s.opDir(opID), "meta.toml"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading sidecar: %w", err)
	}

	var meta safety.SnapshotMeta
	if err := toml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decoding sidecar for operation %s: %w", opID, err)
	}
	return &meta, nil
}

func (s *FileSystemStore) Delete(opID string) error {
	if err := os.RemoveAll(s.opDir(opID)); err != nil {
		return fmt.Errorf("deleting snapshot %s: %w", opID, err)
	}
	return nil
}

func (s *FileSystemStore) List() ([]*safety.SnapshotInfo, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("listing snapshot root: %w", err)
	}

	var infos []*safety.SnapshotInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.GetMeta(entry.Name())
		if err != nil || meta == nil {
			// A directory without a readable sidecar is a partial write;
			// report it with the directory mtime so the sweep can claim it.
			info, statErr := entry.Info()
			if statErr != nil {
				continue
			}
			infos = append(infos, &safety.SnapshotInfo{
				OperationID: entry.Name(),
				CreatedAt:   info.ModTime(),
			})
			continue
		}
		infos = append(infos, &safety.SnapshotInfo{
			OperationID: meta.OperationID,
			CreatedAt:   meta.CreatedAt,
		})
	}
	return infos, nil
}

func (s *FileSystemStore) ValidateSetup() error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("snapshot root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("snapshot root is not a directory: %s", s.root)
	}
	return nil
}

// writeAtomic writes data from r to destPath using a temp file and rename.
func writeAtomic(destPath string, r io.Reader, expectedSize int64) error {
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing snapshot data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemStore implements safety.SnapshotStore
var _ safety.SnapshotStore = (*FileSystemStore)(nil)
