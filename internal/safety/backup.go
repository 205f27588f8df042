package safety

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"time"
)

// BackupManager snapshots a target's pre-mutation state into the snapshot
// store and restores it during undo. File targets get byte content plus stat
// metadata; service and package targets get a descriptive prior-state record
// only, since content is not meaningful for those kinds.
type BackupManager struct {
	store     SnapshotStore
	fs        FileSystem
	services  ServiceManager
	packages  PackageManager
	encryptor Encryptor // nil means snapshots are stored in plaintext
	logger    Logger
	clock     Clock
}

// NewBackupManager creates a BackupManager. encryptor may be nil when
// snapshot encryption is not configured.
func NewBackupManager(store SnapshotStore, fs FileSystem, services ServiceManager, packages PackageManager, encryptor Encryptor, logger Logger, clock Clock) *BackupManager {
	return &BackupManager{
		store:     store,
		fs:        fs,
		services:  services,
		packages:  packages,
		encryptor: encryptor,
		logger:    logger,
		clock:     clock,
	}
}

// Snapshot captures the pre-mutation state of target for the operation with
// the given id and type. It returns the backup reference (the operation id)
// on success, or a *BackupError.
func (m *BackupManager) Snapshot(opID string, opType OperationType, target string) (string, error) {
	meta := &SnapshotMeta{
		OperationID: opID,
		Target:      target,
		Kind:        opType.TargetKind(),
		Type:        opType,
		CreatedAt:   m.clock.Now(),
	}

	switch meta.Kind {
	case KindFile:
		if err := m.snapshotFile(opID, target, meta); err != nil {
			return "", &BackupError{Target: target, Err: err}
		}
	case KindDirectory:
		// DirectoryCreate: the snapshot records that the path did not exist.
		meta.PriorState = "absent"
	case KindService:
		state, err := m.services.State(target)
		if err != nil {
			return "", &BackupError{Target: target, Err: fmt.Errorf("querying service state: %w", err)}
		}
		meta.PriorState = "inactive"
		if state.Active {
			meta.PriorState = "active"
		}
	case KindPackage:
		version, err := m.packages.InstalledVersion(target)
		if err != nil {
			return "", &BackupError{Target: target, Err: fmt.Errorf("querying package version: %w", err)}
		}
		meta.PriorState = version
	}

	if err := m.store.PutMeta(opID, meta); err != nil {
		return "", &BackupError{Target: target, Err: fmt.Errorf("storing snapshot metadata: %w", err)}
	}

	m.logger.Debug("snapshot taken", "operation", opID, "target", target)
	return opID, nil
}

// snapshotFile copies the file's bytes (encrypting when configured) and
// records its stat data in meta.
func (m *BackupManager) snapshotFile(opID, target string, meta *SnapshotMeta) error {
	info, err := m.fs.Stat(target)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	if info == nil {
		return fmt.Errorf("target does not exist: %s", target)
	}
	if info.IsDir {
		return fmt.Errorf("target is a directory: %s", target)
	}

	meta.Size = info.Size
	meta.Mode = uint32(info.Mode)
	meta.ModTime = info.ModTime
	meta.AccessTime = info.AccessTime
	meta.UID = info.UID
	meta.GID = info.GID

	f, err := m.fs.Open(target)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	if m.encryptor != nil {
		var buf bytes.Buffer
		if err := m.encryptor.Encrypt(f, &buf); err != nil {
			return fmt.Errorf("encrypting content: %w", err)
		}
		meta.Encrypted = true
		return m.store.PutContent(opID, &buf, int64(buf.Len()))
	}

	return m.store.PutContent(opID, f, info.Size)
}

// Meta returns the snapshot metadata for an operation, or (nil, nil) when no
// snapshot exists.
func (m *BackupManager) Meta(opID string) (*SnapshotMeta, error) {
	return m.store.GetMeta(opID)
}

// RestoreFile writes a file snapshot's content and metadata back to the
// original target path. dec is required when the snapshot content is
// encrypted. Failures are reported as *UndoError so the undo engine can
// surface them per sub-step.
func (m *BackupManager) RestoreFile(meta *SnapshotMeta, dec DecryptionContext) error {
	var content bytes.Buffer
	if err := m.store.GetContent(meta.OperationID, &content); err != nil {
		return &UndoError{
			Kind:   MissingBackup,
			Target: meta.Target,
			Remedy: "the snapshot content is missing or was pruned; restore manually",
			Err:    err,
		}
	}

	var r io.Reader = &content
	if meta.Encrypted {
		if dec == nil {
			return &UndoError{
				Kind:   AdapterFailure,
				Target: meta.Target,
				Remedy: "the snapshot is encrypted; unlock the key with your passphrase",
				Err:    fmt.Errorf("no decryption context provided"),
			}
		}
		var plain bytes.Buffer
		if err := dec.Decrypt(&content, &plain); err != nil {
			return &UndoError{Kind: AdapterFailure, Target: meta.Target, Err: fmt.Errorf("decrypting content: %w", err)}
		}
		r = &plain
	}

	if err := m.fs.WriteFile(meta.Target, r, fileMode(meta)); err != nil {
		return &UndoError{Kind: AdapterFailure, Target: meta.Target, Err: fmt.Errorf("writing content: %w", err)}
	}
	return nil
}

// RestoreFileMeta reapplies the captured stat data to the restored file.
func (m *BackupManager) RestoreFileMeta(meta *SnapshotMeta) error {
	info := &FileInfo{
		Size:       meta.Size,
		Mode:       fileMode(meta),
		ModTime:    meta.ModTime,
		AccessTime: meta.AccessTime,
		UID:        meta.UID,
		GID:        meta.GID,
	}
	if err := m.fs.SetMeta(meta.Target, info); err != nil {
		return &UndoError{Kind: AdapterFailure, Target: meta.Target, Err: fmt.Errorf("restoring metadata: %w", err)}
	}
	return nil
}

// Sweep removes snapshots older than maxAge or beyond maxCount, newest kept
// first. Zero values disable the respective bound. Snapshot retention is
// independent of journal retention: a journal record may outlive its
// snapshot, after which undo reports a missing backup.
func (m *BackupManager) Sweep(maxAge time.Duration, maxCount int) (int, error) {
	infos, err := m.store.List()
	if err != nil {
		return 0, fmt.Errorf("listing snapshots: %w", err)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})

	now := m.clock.Now()
	removed := 0
	for i, info := range infos {
		overCount := maxCount > 0 && i >= maxCount
		overAge := maxAge > 0 && now.Sub(info.CreatedAt) > maxAge
		if !overCount && !overAge {
			continue
		}
		if err := m.store.Delete(info.OperationID); err != nil {
			return removed, fmt.Errorf("deleting snapshot %s: %w", info.OperationID, err)
		}
		m.logger.Info("snapshot pruned", "operation", info.OperationID)
		removed++
	}
	return removed, nil
}

func fileMode(meta *SnapshotMeta) fs.FileMode {
	return fs.FileMode(meta.Mode)
}
