package safety

import (
	"io"
	"time"
)

// SnapshotMeta is the metadata sidecar stored with every snapshot.
// For file targets it carries the stat data needed to restore the file
// faithfully; for service and package targets it carries the descriptive
// prior state instead (there is no content to copy for those kinds).
type SnapshotMeta struct {
	OperationID string        `toml:"operation_id"`
	Target      string        `toml:"target"`
	Kind        TargetKind    `toml:"kind"`
	Type        OperationType `toml:"type"`
	CreatedAt   time.Time     `toml:"created_at"`

	// File metadata (file kind only).
	Size       int64     `toml:"size,omitempty"`
	Mode       uint32    `toml:"mode,omitempty"`
	ModTime    time.Time `toml:"mod_time,omitempty"`
	AccessTime time.Time `toml:"access_time,omitempty"`
	UID        int64     `toml:"uid,omitempty"`
	GID        int64     `toml:"gid,omitempty"`

	// PriorState describes non-file targets: "active"/"inactive" for
	// services, the installed version for packages.
	PriorState string `toml:"prior_state,omitempty"`

	// Encrypted marks snapshot content that was encrypted before storage.
	Encrypted bool `toml:"encrypted,omitempty"`
}

// SnapshotInfo is a store listing entry, used by the retention sweep.
type SnapshotInfo struct {
	OperationID string
	CreatedAt   time.Time
}

// SnapshotStore persists snapshots keyed by operation ID. Keying by the
// globally unique operation ID is what prevents cross-operation collision
// under concurrent invocations. Content is streamed via io.Reader/io.Writer
// so large files never have to fit in memory on the store side.
type SnapshotStore interface {
	// PutContent stores snapshot content for an operation. size is the
	// number of bytes that will be read from r.
	PutContent(opID string, r io.Reader, size int64) error

	// GetContent retrieves snapshot content and writes it to w.
	GetContent(opID string, w io.Writer) error

	// PutMeta stores the metadata sidecar for an operation.
	PutMeta(opID string, meta *SnapshotMeta) error

	// GetMeta returns the metadata sidecar, or (nil, nil) if no snapshot
	// exists for the operation.
	GetMeta(opID string) (*SnapshotMeta, error)

	// Delete removes a snapshot (content and sidecar) entirely.
	Delete(opID string) error

	// List returns an entry per stored snapshot, in no particular order.
	List() ([]*SnapshotInfo, error)

	// ValidateSetup verifies the store is accessible and properly configured.
	ValidateSetup() error
}
