package safety

import "fmt"

// BackupError indicates a snapshot could not be taken for a target.
// Whether this aborts the target depends on the SafetyLevel in effect.
type BackupError struct {
	Target string
	Err    error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backing up %s: %v", e.Target, e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }

// ExecutionError indicates an adapter action failed for a target.
// Execution errors are target-level: the batch continues past them.
type ExecutionError struct {
	Target string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing against %s: %v", e.Target, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// UndoErrorKind classifies why a reversal sub-step failed.
type UndoErrorKind string

const (
	// MissingBackup: the journal record outlived its snapshot, or no snapshot
	// was taken (Never backup policy). The operation cannot be reversed.
	MissingBackup UndoErrorKind = "missing_backup"
	// TargetNotEmpty: a created directory has since gained contents and will
	// not be removed automatically.
	TargetNotEmpty UndoErrorKind = "target_not_empty"
	// AdapterFailure: a filesystem, service-manager, or package-manager call
	// failed during reversal.
	AdapterFailure UndoErrorKind = "adapter_failure"
)

// UndoError is a typed reversal failure with remediation text for the caller.
type UndoError struct {
	Kind   UndoErrorKind
	Target string
	Remedy string
	Err    error
}

func (e *UndoError) Error() string {
	msg := fmt.Sprintf("undo %s: %s", e.Target, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Remedy != "" {
		msg += " (" + e.Remedy + ")"
	}
	return msg
}

func (e *UndoError) Unwrap() error { return e.Err }
