package safety

import "time"

// Journal is the durable, queryable record of every attempted operation.
// Each record is its own atomic unit: appended once, updated in place by id.
// Uniqueness of operation IDs makes concurrent process instances safe
// without a lock manager.
type Journal interface {
	// Record appends a new operation record. The operation's ID, status, and
	// timestamps must already be set by the caller.
	Record(op *Operation) error

	// UpdateStatus transitions an operation's status, persisting errMsg as
	// the failure detail when non-empty. Illegal transitions (see
	// OperationStatus.CanTransition) are rejected.
	UpdateStatus(id string, status OperationStatus, errMsg string) error

	// Get returns an operation by id, or (nil, nil) if no such record exists.
	Get(id string) (*Operation, error)

	// List returns at most limit operations, most recent first.
	List(limit int) ([]*Operation, error)

	// Trim deletes the oldest records beyond maxCount, returning the number
	// removed.
	Trim(maxCount int) (int, error)

	// Purge deletes records created before cutoff, returning the number
	// removed.
	Purge(cutoff time.Time) (int, error)

	// Close releases the underlying store.
	Close() error
}
