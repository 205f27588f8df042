package journal

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"tidy-go/internal/safety"
)

// MemoryJournal is an in-memory implementation of safety.Journal. Nothing
// survives the process; it exists for tests and throwaway runs. Safe for
// concurrent use.
type MemoryJournal struct {
	mu  sync.RWMutex
	ops map[string]*safety.Operation
}

// NewMemoryJournal creates an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{ops: make(map[string]*safety.Operation)}
}

func (j *MemoryJournal) Record(op *safety.Operation) error {
	if op.ID == "" {
		return fmt.Errorf("operation has no id")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, exists := j.ops[op.ID]; exists {
		return fmt.Errorf("duplicate operation id: %s", op.ID)
	}
	clone := *op
	j.ops[op.ID] = &clone
	return nil
}

func (j *MemoryJournal) UpdateStatus(id string, status safety.OperationStatus, errMsg string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	op, ok := j.ops[id]
	if !ok {
		return fmt.Errorf("no such operation: %s", id)
	}
	if !op.Status.CanTransition(status) {
		return fmt.Errorf("operation %s: illegal status transition %s -> %s", id, op.Status, status)
	}
	op.Status = status
	op.Error = errMsg
	op.UpdatedAt = time.Now()
	return nil
}

func (j *MemoryJournal) Get(id string) (*safety.Operation, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	op, ok := j.ops[id]
	if !ok {
		return nil, nil
	}
	clone := *op
	return &clone, nil
}

func (j *MemoryJournal) List(limit int) ([]*safety.Operation, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	ops := j.sortedLocked()
	if limit > 0 && len(ops) > limit {
		ops = ops[:limit]
	}

	out := make([]*safety.Operation, len(ops))
	for i, op := range ops {
		clone := *op
		out[i] = &clone
	}
	return out, nil
}

func (j *MemoryJournal) Trim(maxCount int) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if maxCount < 0 {
		maxCount = 0
	}
	ops := j.sortedLocked()
	removed := 0
	for i := maxCount; i < len(ops); i++ {
		delete(j.ops, ops[i].ID)
		removed++
	}
	return removed, nil
}

func (j *MemoryJournal) Purge(cutoff time.Time) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	removed := 0
	for id, op := range j.ops {
		if op.CreatedAt.Before(cutoff) {
			delete(j.ops, id)
			removed++
		}
	}
	return removed, nil
}

func (j *MemoryJournal) Close() error { return nil }

// sortedLocked returns all operations newest first. Callers must hold mu.
func (j *MemoryJournal) sortedLocked() []*safety.Operation {
	ops := make([]*safety.Operation, 0, len(j.ops))
	for _, op := range j.ops {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(a, b int) bool {
		if !ops[a].CreatedAt.Equal(ops[b].CreatedAt) {
			return ops[a].CreatedAt.After(ops[b].CreatedAt)
		}
		return ops[a].ID > ops[b].ID
	})
	return ops
}

// Compile-time check
var _ safety.Journal = (*MemoryJournal)(nil)
