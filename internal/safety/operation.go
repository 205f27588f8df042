package safety

import "time"

// OperationType identifies the kind of mutation an Operation performs.
// The set is closed: execute and undo dispatch exhaustively over it.
type OperationType string

const (
	OpFileDelete      OperationType = "file_delete"
	OpFileModify      OperationType = "file_modify"
	OpPackageRemove   OperationType = "package_remove"
	OpServiceStop     OperationType = "service_stop"
	OpDirectoryCreate OperationType = "directory_create"
)

// OperationTypes lists all valid operation types.
var OperationTypes = []OperationType{
	OpFileDelete,
	OpFileModify,
	OpPackageRemove,
	OpServiceStop,
	OpDirectoryCreate,
}

// Valid reports whether t is a known operation type.
func (t OperationType) Valid() bool {
	switch t {
	case OpFileDelete, OpFileModify, OpPackageRemove, OpServiceStop, OpDirectoryCreate:
		return true
	}
	return false
}

// TargetKind identifies what kind of system object an operation's target names.
type TargetKind string

const (
	KindFile      TargetKind = "file"
	KindDirectory TargetKind = "directory"
	KindService   TargetKind = "service"
	KindPackage   TargetKind = "package"
)

// TargetKind returns the kind of target the operation type acts on.
func (t OperationType) TargetKind() TargetKind {
	switch t {
	case OpFileDelete, OpFileModify:
		return KindFile
	case OpDirectoryCreate:
		return KindDirectory
	case OpServiceStop:
		return KindService
	case OpPackageRemove:
		return KindPackage
	}
	return ""
}

// NeedsSnapshot reports whether undoing an operation of this type requires
// captured prior state. DirectoryCreate is the only type reversible from the
// journal entry alone.
func (t OperationType) NeedsSnapshot() bool {
	return t != OpDirectoryCreate
}

// OperationStatus is the lifecycle state of an Operation.
// Transitions are monotonic: Pending -> Completed | Failed, Completed -> Undone.
type OperationStatus string

const (
	StatusPending   OperationStatus = "pending"
	StatusCompleted OperationStatus = "completed"
	StatusFailed    OperationStatus = "failed"
	StatusUndone    OperationStatus = "undone"
)

// CanTransition reports whether a status change from s to next is legal.
func (s OperationStatus) CanTransition(next OperationStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusCompleted || next == StatusFailed
	case StatusCompleted:
		return next == StatusUndone
	}
	return false
}

// Operation is one requested mutation against one target, tracked end-to-end
// by a unique id. Records are created before the mutation happens and never
// rewritten except for status, error text, and the updated timestamp.
type Operation struct {
	ID          string
	Type        OperationType
	Target      string
	Description string
	Status      OperationStatus
	BackupRef   string // snapshot reference; empty when no snapshot was taken
	Error       string // failure detail, set when status is failed
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
