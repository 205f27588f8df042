package sysadapter

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"tidy-go/internal/safety"
)

// OSFileSystem is the real filesystem implementation of safety.FileSystem.
// It performs actual filesystem operations using the os package.
type OSFileSystem struct{}

// NewOSFileSystem creates a filesystem adapter over the real filesystem.
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

// Stat returns metadata for path, or (nil, nil) when the path does not exist.
func (f *OSFileSystem) Stat(path string) (*safety.FileInfo, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	// Symlinks, devices and other special files are refused rather than
	// followed; mutating through a link would touch a path the engine
	// never validated.
	mode := info.Mode()
	if !mode.IsRegular() && !mode.IsDir() {
		return nil, fmt.Errorf("unsupported file type for %s: %s", path, mode.Type())
	}

	fi := &safety.FileInfo{
		Size:    info.Size(),
		Mode:    mode,
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}
	fillStatData(fi, info)
	return fi, nil
}

func (f *OSFileSystem) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (f *OSFileSystem) WriteFile(path string, r io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating parent directory for %s: %w", path, err)
	}

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// SetMeta applies mode, ownership, and times. Ownership failures are
// tolerated when not running as root; the restored content is still usable.
func (f *OSFileSystem) SetMeta(path string, info *safety.FileInfo) error {
	if err := os.Chmod(path, info.Mode.Perm()); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Chown(path, int(info.UID), int(info.GID)); err != nil && !os.IsPermission(err) {
		return fmt.Errorf("chown %s: %w", path, err)
	}
	atime := info.AccessTime
	if atime.IsZero() {
		atime = info.ModTime
	}
	if err := os.Chtimes(path, atime, info.ModTime); err != nil {
		return fmt.Errorf("chtimes %s: %w", path, err)
	}
	return nil
}

func (f *OSFileSystem) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

func (f *OSFileSystem) Truncate(path string) error {
	if err := os.Truncate(path, 0); err != nil {
		return fmt.Errorf("truncating %s: %w", path, err)
	}
	return nil
}

func (f *OSFileSystem) MakeDir(path string, mode fs.FileMode) error {
	if err := os.MkdirAll(path, mode.Perm()); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	return nil
}

func (f *OSFileSystem) RemoveEmptyDir(path string) error {
	// os.Remove fails on non-empty directories, which is exactly the
	// guarantee callers rely on.
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing directory %s: %w", path, err)
	}
	return nil
}

func (f *OSFileSystem) DirEntryCount(path string) (int, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return 0, fmt.Errorf("reading directory %s: %w", path, err)
	}
	return len(entries), nil
}

// Compile-time check that OSFileSystem implements the safety.FileSystem interface
var _ safety.FileSystem = (*OSFileSystem)(nil)
