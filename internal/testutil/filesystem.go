package testutil

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"tidy-go/internal/safety"
)

// MockFile is one entry in the mock filesystem.
type MockFile struct {
	Content []byte
	Mode    fs.FileMode
	ModTime time.Time
	Atime   time.Time
	UID     int64
	GID     int64
	IsDir   bool
}

// MockFileSystem is an in-memory filesystem for testing. Error fields let
// tests force individual operations to fail.
type MockFileSystem struct {
	Files map[string]*MockFile

	// When set, the named operation returns this error.
	RemoveErr   error
	TruncateErr error
	WriteErr    error

	// Per-path failures, checked before the global ones.
	RemoveErrs map[string]error
	OpenErrs   map[string]error
}

// NewMockFileSystem creates an empty mock filesystem.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		Files:      make(map[string]*MockFile),
		RemoveErrs: make(map[string]error),
		OpenErrs:   make(map[string]error),
	}
}

// AddFile adds a regular file with default ownership and times.
func (m *MockFileSystem) AddFile(path string, content []byte) *MockFile {
	f := &MockFile{
		Content: content,
		Mode:    0644,
		ModTime: time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC),
		Atime:   time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC),
		UID:     1000,
		GID:     1000,
	}
	m.Files[path] = f
	return f
}

// AddDirectory adds a directory entry.
func (m *MockFileSystem) AddDirectory(path string) *MockFile {
	f := &MockFile{
		Mode:    0755 | fs.ModeDir,
		ModTime: time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC),
		UID:     1000,
		GID:     1000,
		IsDir:   true,
	}
	m.Files[path] = f
	return f
}

func (m *MockFileSystem) Stat(path string) (*safety.FileInfo, error) {
	f, ok := m.Files[path]
	if !ok {
		return nil, nil
	}
	return &safety.FileInfo{
		Size:       int64(len(f.Content)),
		Mode:       f.Mode,
		ModTime:    f.ModTime,
		AccessTime: f.Atime,
		UID:        f.UID,
		GID:        f.GID,
		IsDir:      f.IsDir,
	}, nil
}

func (m *MockFileSystem) Open(path string) (io.ReadCloser, error) {
	if err := m.OpenErrs[path]; err != nil {
		return nil, err
	}
	f, ok := m.Files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	if f.IsDir {
		return nil, fmt.Errorf("cannot open directory: %s", path)
	}
	return io.NopCloser(bytes.NewReader(f.Content)), nil
}

func (m *MockFileSystem) WriteFile(path string, r io.Reader, mode fs.FileMode) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.Files[path] = &MockFile{
		Content: content,
		Mode:    mode,
		ModTime: time.Now(),
		UID:     1000,
		GID:     1000,
	}
	return nil
}

func (m *MockFileSystem) SetMeta(path string, info *safety.FileInfo) error {
	f, ok := m.Files[path]
	if !ok {
		return fmt.Errorf("file not found: %s", path)
	}
	f.Mode = info.Mode
	f.ModTime = info.ModTime
	f.Atime = info.AccessTime
	f.UID = info.UID
	f.GID = info.GID
	return nil
}

func (m *MockFileSystem) Remove(path string) error {
	if err := m.RemoveErrs[path]; err != nil {
		return err
	}
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	if _, ok := m.Files[path]; !ok {
		return fmt.Errorf("file not found: %s", path)
	}
	delete(m.Files, path)
	return nil
}

func (m *MockFileSystem) Truncate(path string) error {
	if m.TruncateErr != nil {
		return m.TruncateErr
	}
	f, ok := m.Files[path]
	if !ok {
		return fmt.Errorf("file not found: %s", path)
	}
	f.Content = nil
	return nil
}

func (m *MockFileSystem) MakeDir(path string, mode fs.FileMode) error {
	m.Files[path] = &MockFile{Mode: mode | fs.ModeDir, IsDir: true, ModTime: time.Now()}
	return nil
}

func (m *MockFileSystem) RemoveEmptyDir(path string) error {
	f, ok := m.Files[path]
	if !ok {
		return fmt.Errorf("directory not found: %s", path)
	}
	if !f.IsDir {
		return fmt.Errorf("not a directory: %s", path)
	}
	count, err := m.DirEntryCount(path)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("directory not empty: %s", path)
	}
	delete(m.Files, path)
	return nil
}

func (m *MockFileSystem) DirEntryCount(path string) (int, error) {
	if _, ok := m.Files[path]; !ok {
		return 0, fmt.Errorf("directory not found: %s", path)
	}
	prefix := path + "/"
	count := 0
	for p := range m.Files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		// Only direct children count.
		if !strings.Contains(strings.TrimPrefix(p, prefix), "/") {
			count++
		}
	}
	return count, nil
}

// Content returns the content of a file, failing the lookup if missing.
func (m *MockFileSystem) Content(path string) ([]byte, bool) {
	f, ok := m.Files[path]
	if !ok {
		return nil, false
	}
	return f.Content, true
}

// Compile-time check
var _ safety.FileSystem = (*MockFileSystem)(nil)
