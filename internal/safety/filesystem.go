package safety

import (
	"io"
	"io/fs"
	"time"
)

// FileInfo describes a path's metadata as captured before mutation.
type FileInfo struct {
	Size       int64
	Mode       fs.FileMode
	ModTime    time.Time
	AccessTime time.Time
	UID        int64
	GID        int64
	IsDir      bool
}

// FileSystem abstracts the filesystem operations the engine performs, both
// for snapshot/restore and for executing file operations. Implementations
// must report a missing path from Stat as (nil, nil), not an error.
type FileSystem interface {
	// Stat returns metadata for path, or (nil, nil) if it does not exist.
	Stat(path string) (*FileInfo, error)

	// Open opens an existing file for reading.
	Open(path string) (io.ReadCloser, error)

	// WriteFile creates or truncates path and writes r to it with the given
	// mode. Parent directories are created as needed.
	WriteFile(path string, r io.Reader, mode fs.FileMode) error

	// SetMeta applies mode, times, and (when permitted) ownership to path.
	SetMeta(path string, info *FileInfo) error

	// Remove deletes a regular file.
	Remove(path string) error

	// Truncate empties a regular file in place, keeping its metadata.
	Truncate(path string) error

	// MakeDir creates a directory with the given mode.
	MakeDir(path string, mode fs.FileMode) error

	// RemoveEmptyDir removes a directory, failing if it is not empty.
	RemoveEmptyDir(path string) error

	// DirEntryCount returns the number of entries directly inside path.
	DirEntryCount(path string) (int, error)
}
