package safety

import "fmt"

// BackupPolicy controls which targets get a pre-mutation snapshot.
type BackupPolicy string

const (
	// BackupAlways snapshots every target.
	BackupAlways BackupPolicy = "always"
	// BackupImportantOnly snapshots targets whose undo requires captured
	// prior state (see OperationType.NeedsSnapshot).
	BackupImportantOnly BackupPolicy = "important_only"
	// BackupNever takes no snapshots. Undo of these operations reports
	// a missing backup.
	BackupNever BackupPolicy = "never"
)

// SafetyLevel is a named policy bundle selected per invocation and immutable
// during a workflow run.
type SafetyLevel struct {
	Name                    string
	RequireConfirmation     bool
	RequireBackup           BackupPolicy
	RunBasicChecks          bool
	RunAdvancedChecks       bool
	AllowProtectionOverride bool
	// ContinueOnBackupFailure proceeds without a snapshot when one could not
	// be taken, instead of recording the target as failed.
	ContinueOnBackupFailure bool
}

// Conservative confirms everything, backs up everything, and runs all checks.
func Conservative() SafetyLevel {
	return SafetyLevel{
		Name:                "conservative",
		RequireConfirmation: true,
		RequireBackup:       BackupAlways,
		RunBasicChecks:      true,
		RunAdvancedChecks:   true,
	}
}

// Standard confirms, backs up targets that need snapshots for undo, and runs
// all checks.
func Standard() SafetyLevel {
	return SafetyLevel{
		Name:                "standard",
		RequireConfirmation: true,
		RequireBackup:       BackupImportantOnly,
		RunBasicChecks:      true,
		RunAdvancedChecks:   true,
	}
}

// Aggressive skips confirmation and backups and may override explicit
// protection rules. The built-in critical list still applies.
func Aggressive() SafetyLevel {
	return SafetyLevel{
		Name:                    "aggressive",
		RequireBackup:           BackupNever,
		RunBasicChecks:          true,
		AllowProtectionOverride: true,
		ContinueOnBackupFailure: true,
	}
}

// LevelByName resolves a canonical safety level by name.
func LevelByName(name string) (SafetyLevel, error) {
	switch name {
	case "conservative":
		return Conservative(), nil
	case "standard", "":
		return Standard(), nil
	case "aggressive":
		return Aggressive(), nil
	}
	return SafetyLevel{}, fmt.Errorf("unknown safety level: %q", name)
}

// wantsSnapshot reports whether the policy requires a snapshot for the
// given operation type.
func (p BackupPolicy) wantsSnapshot(t OperationType) bool {
	switch p {
	case BackupAlways:
		return true
	case BackupImportantOnly:
		return t.NeedsSnapshot()
	}
	return false
}
