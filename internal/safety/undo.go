package safety

import "fmt"

// UndoOutcomeKind is the terminal result of an undo attempt.
type UndoOutcomeKind string

const (
	// UndoDone: the operation was fully reversed.
	UndoDone UndoOutcomeKind = "undone"
	// UndoAlreadyUndone: the operation was reversed earlier; nothing was
	// mutated again.
	UndoAlreadyUndone UndoOutcomeKind = "already_undone"
	// UndoFailedKind: at least one reversal sub-step failed; see Steps.
	UndoFailedKind UndoOutcomeKind = "failed"
)

// UndoStep is one sub-step of a reversal with its individual result. A
// reversal that restarts a service but fails to restore a file reports both
// outcomes, not a single boolean.
type UndoStep struct {
	Name string
	Err  error // nil when the step succeeded
}

// UndoOutcome reports what an undo attempt did, per sub-step.
type UndoOutcome struct {
	OperationID string
	Kind        UndoOutcomeKind
	Steps       []UndoStep
}

// Failed returns the errors of all failed sub-steps.
func (o *UndoOutcome) Failed() []error {
	var errs []error
	for _, s := range o.Steps {
		if s.Err != nil {
			errs = append(errs, s.Err)
		}
	}
	return errs
}

// Undo reverses a completed operation using its journal entry and snapshot.
// It is idempotent: undoing an already-undone operation reports
// AlreadyUndone without touching the target. dec is only needed when the
// operation's snapshot content is encrypted.
func (e *Engine) Undo(id string, dec DecryptionContext) (*UndoOutcome, error) {
	op, err := e.journal.Get(id)
	if err != nil {
		return nil, fmt.Errorf("loading operation: %w", err)
	}
	if op == nil {
		return nil, fmt.Errorf("no such operation: %s", id)
	}

	switch op.Status {
	case StatusUndone:
		return &UndoOutcome{OperationID: id, Kind: UndoAlreadyUndone}, nil
	case StatusCompleted:
		// reversible
	default:
		return nil, fmt.Errorf("operation %s is %s; only completed operations can be undone", id, op.Status)
	}

	outcome := &UndoOutcome{OperationID: id}
	switch op.Type {
	case OpFileDelete, OpFileModify:
		e.undoFileRestore(op, dec, outcome)
	case OpPackageRemove:
		e.undoPackageRemove(op, outcome)
	case OpServiceStop:
		e.undoServiceStop(op, outcome)
	case OpDirectoryCreate:
		e.undoDirectoryCreate(op, outcome)
	default:
		return nil, fmt.Errorf("operation %s has unknown type %q", id, op.Type)
	}

	if len(outcome.Failed()) > 0 {
		outcome.Kind = UndoFailedKind
		e.logger.Error("undo failed", "operation", id, "failed_steps", len(outcome.Failed()))
		return outcome, nil
	}

	if err := e.journal.UpdateStatus(id, StatusUndone, ""); err != nil {
		return nil, fmt.Errorf("journaling undo of %s: %w", id, err)
	}
	outcome.Kind = UndoDone
	e.logger.Info("operation undone", "operation", id, "target", op.Target)
	return outcome, nil
}

// undoFileRestore restores snapshot content and metadata to the original
// path.
func (e *Engine) undoFileRestore(op *Operation, dec DecryptionContext, outcome *UndoOutcome) {
	meta, err := e.snapshotMeta(op)
	if err != nil {
		outcome.Steps = append(outcome.Steps, UndoStep{Name: "load snapshot", Err: err})
		return
	}

	if err := e.backups.RestoreFile(meta, dec); err != nil {
		outcome.Steps = append(outcome.Steps, UndoStep{Name: "restore content", Err: err})
		return
	}
	outcome.Steps = append(outcome.Steps, UndoStep{Name: "restore content"})

	outcome.Steps = append(outcome.Steps, UndoStep{Name: "restore metadata", Err: e.backups.RestoreFileMeta(meta)})
}

// undoPackageRemove reinstalls the package. The recorded prior version is
// used when a snapshot survives; without one the current version from the
// archive is installed.
func (e *Engine) undoPackageRemove(op *Operation, outcome *UndoOutcome) {
	version := ""
	if op.BackupRef != "" {
		meta, err := e.backups.Meta(op.BackupRef)
		if err != nil {
			outcome.Steps = append(outcome.Steps, UndoStep{Name: "load snapshot", Err: fmt.Errorf("loading snapshot: %w", err)})
			return
		}
		if meta != nil {
			version = meta.PriorState
		}
	}

	step := UndoStep{Name: "reinstall package"}
	if version == "" {
		step.Name = "reinstall package (prior version unknown)"
	}
	if err := e.executorPackages().Install(op.Target, version); err != nil {
		step.Err = &UndoError{Kind: AdapterFailure, Target: op.Target, Err: err}
	}
	outcome.Steps = append(outcome.Steps, step)
}

// undoServiceStop restarts the service only if the recorded prior state was
// active.
func (e *Engine) undoServiceStop(op *Operation, outcome *UndoOutcome) {
	meta, err := e.snapshotMeta(op)
	if err != nil {
		outcome.Steps = append(outcome.Steps, UndoStep{Name: "load snapshot", Err: err})
		return
	}

	if meta.PriorState != "active" {
		outcome.Steps = append(outcome.Steps, UndoStep{Name: "service was not active; nothing to restart"})
		return
	}

	step := UndoStep{Name: "restart service"}
	if err := e.executorServices().Start(op.Target); err != nil {
		step.Err = &UndoError{Kind: AdapterFailure, Target: op.Target, Err: err}
	}
	outcome.Steps = append(outcome.Steps, step)
}

// undoDirectoryCreate removes the directory only when it is still empty.
func (e *Engine) undoDirectoryCreate(op *Operation, outcome *UndoOutcome) {
	count, err := e.executorFS().DirEntryCount(op.Target)
	if err != nil {
		outcome.Steps = append(outcome.Steps, UndoStep{
			Name: "inspect directory",
			Err:  &UndoError{Kind: AdapterFailure, Target: op.Target, Err: err},
		})
		return
	}
	if count > 0 {
		outcome.Steps = append(outcome.Steps, UndoStep{
			Name: "remove directory",
			Err: &UndoError{
				Kind:   TargetNotEmpty,
				Target: op.Target,
				Remedy: "manual intervention required: empty the directory, then undo again",
				Err:    fmt.Errorf("%d entries present", count),
			},
		})
		return
	}

	step := UndoStep{Name: "remove directory"}
	if err := e.executorFS().RemoveEmptyDir(op.Target); err != nil {
		step.Err = &UndoError{Kind: AdapterFailure, Target: op.Target, Err: err}
	}
	outcome.Steps = append(outcome.Steps, step)
}

// snapshotMeta loads the snapshot sidecar an undo needs, converting absence
// into the typed missing-backup error.
func (e *Engine) snapshotMeta(op *Operation) (*SnapshotMeta, error) {
	if op.BackupRef == "" {
		return nil, &UndoError{
			Kind:   MissingBackup,
			Target: op.Target,
			Remedy: "no snapshot was taken for this operation",
		}
	}
	meta, err := e.backups.Meta(op.BackupRef)
	if err != nil {
		return nil, &UndoError{Kind: AdapterFailure, Target: op.Target, Err: fmt.Errorf("loading snapshot: %w", err)}
	}
	if meta == nil {
		return nil, &UndoError{
			Kind:   MissingBackup,
			Target: op.Target,
			Remedy: "the snapshot was pruned by retention; the operation can no longer be undone",
		}
	}
	return meta, nil
}

// Adapter accessors shared with the executor, so undo goes through the same
// collaborators execution did.
func (e *Engine) executorFS() FileSystem           { return e.executor.fs }
func (e *Engine) executorServices() ServiceManager { return e.executor.services }
func (e *Engine) executorPackages() PackageManager { return e.executor.packages }
