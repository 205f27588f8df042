package snapstore

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"tidy-go/internal/safety"
)

// MemoryStore is an in-memory implementation of safety.SnapshotStore,
// useful for testing. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	content map[string][]byte
	meta    map[string]*safety.SnapshotMeta
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		content: make(map[string][]byte),
		meta:    make(map[string]*safety.SnapshotMeta),
	}
}

func (m *MemoryStore) PutContent(opID string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading snapshot content: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.content[opID] = data
	return nil
}

func (m *MemoryStore) GetContent(opID string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.content[opID]
	if !ok {
		return fmt.Errorf("snapshot content not found for operation %s", opID)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing snapshot content: %w", err)
	}
	return nil
}

func (m *MemoryStore) PutMeta(opID string, meta *safety.SnapshotMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *meta
	m.meta[opID] = &clone
	return nil
}

func (m *MemoryStore) GetMeta(opID string) (*safety.SnapshotMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	meta, ok := m.meta[opID]
	if !ok {
		return nil, nil
	}
	clone := *meta
	return &clone, nil
}

func (m *MemoryStore) Delete(opID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.content, opID)
	delete(m.meta, opID)
	return nil
}

func (m *MemoryStore) List() ([]*safety.SnapshotInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]*safety.SnapshotInfo, 0, len(m.meta))
	for opID, meta := range m.meta {
		infos = append(infos, &safety.SnapshotInfo{
			OperationID: opID,
			CreatedAt:   meta.CreatedAt,
		})
	}
	return infos, nil
}

func (m *MemoryStore) ValidateSetup() error { return nil }

// Compile-time check
var _ safety.SnapshotStore = (*MemoryStore)(nil)
