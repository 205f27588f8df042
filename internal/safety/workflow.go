package safety

import "fmt"

// WorkflowState is the orchestrator's position in the
// validate -> backup -> confirm -> execute -> record sequence.
type WorkflowState string

const (
	StateInit      WorkflowState = "init"
	StateChecked   WorkflowState = "checked"
	StateBackedUp  WorkflowState = "backed_up"
	StateConfirmed WorkflowState = "confirmed"
	StateExecuting WorkflowState = "executing"
	StateDone      WorkflowState = "done"
	StateFailed    WorkflowState = "failed"
	StateBlocked   WorkflowState = "blocked"
)

// Classification is the overall outcome of one workflow run.
type Classification string

const (
	Success        Classification = "success"
	PartialFailure Classification = "partial_failure"
	TotalFailure   Classification = "total_failure"
	Blocked        Classification = "blocked"
)

// Outcome is the per-target result within a batch.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeBlocked   Outcome = "blocked"
)

// TargetResult pairs a target with what happened to it.
type TargetResult struct {
	Target      string
	OperationID string // empty when no operation record was created
	Outcome     Outcome
	Detail      string
}

// BatchResult is the output of one orchestrator run.
type BatchResult struct {
	State          WorkflowState
	Classification Classification
	Results        []TargetResult
	Succeeded      int
	Failed         int
	Skipped        int
	Warnings       []CheckWarning
}

// ExitCode maps the classification to the process exit convention:
// 0 success, 1 blocked or total failure, 2 partial failure.
func (r *BatchResult) ExitCode() int {
	switch r.Classification {
	case Success:
		return 0
	case PartialFailure:
		return 2
	}
	return 1
}

// Engine is the safety workflow orchestrator: the state machine that
// sequences validation, context checks, backups, confirmation, execution,
// and journaling under a selected safety level, and that later reverses
// completed operations on request.
type Engine struct {
	journal   Journal
	backups   *BackupManager
	rules     *RuleEngine
	executor  *Executor
	confirmer Confirmer
	checks    []ContextCheck
	logger    Logger
	clock     Clock
	idgen     IDGenerator
}

// NewEngine creates an Engine with the provided dependencies.
func NewEngine(journal Journal, backups *BackupManager, rules *RuleEngine, executor *Executor, confirmer Confirmer, checks []ContextCheck, logger Logger, clock Clock, idgen IDGenerator) *Engine {
	return &Engine{
		journal:   journal,
		backups:   backups,
		rules:     rules,
		executor:  executor,
		confirmer: confirmer,
		checks:    checks,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
	}
}

// pendingTarget is a target that survived validation, with its pre-assigned
// operation id and the backup reference once a snapshot was taken.
type pendingTarget struct {
	target    string
	opID      string
	backupRef string
}

// Run executes one batch of targets under the given safety level.
// Target-level failures do not abort the batch; a non-overridable protection
// verdict blocks the whole batch before any mutation.
func (e *Engine) Run(opType OperationType, targets []string, description string, level SafetyLevel) (*BatchResult, error) {
	if !opType.Valid() {
		return nil, fmt.Errorf("invalid operation type %q", opType)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets given")
	}

	result := &BatchResult{State: StateInit}
	e.logger.Info("workflow started",
		"type", string(opType), "targets", len(targets), "level", level.Name)

	// Validate. Any non-overridable Protected verdict blocks the batch
	// before anything mutates.
	verdicts, err := e.rules.Validate(targets, opType)
	if err != nil {
		return nil, fmt.Errorf("validating targets: %w", err)
	}

	var pending []pendingTarget
	blocked := false
	for _, v := range verdicts {
		switch v.Kind {
		case VerdictProtected:
			if v.Overridable() && level.AllowProtectionOverride {
				e.logger.Warn("protection overridden", "target", v.Target, "reason", v.Reason)
				pending = append(pending, pendingTarget{target: v.Target})
				continue
			}
			blocked = true
			result.Results = append(result.Results, TargetResult{
				Target: v.Target, Outcome: OutcomeBlocked, Detail: v.Reason,
			})
		case VerdictNotFound:
			result.Skipped++
			result.Results = append(result.Results, TargetResult{
				Target: v.Target, Outcome: OutcomeSkipped, Detail: v.Reason,
			})
		default:
			pending = append(pending, pendingTarget{target: v.Target})
		}
	}
	if blocked {
		result.State = StateBlocked
		result.Classification = Blocked
		e.logger.Warn("workflow blocked", "type", string(opType))
		return result, nil
	}
	result.State = StateChecked

	// Advisory context checks. Warnings go to the confirmation prompt (and
	// the log); a failing check is logged and skipped.
	remaining := targetNames(pending)
	result.Warnings = e.runChecks(opType, remaining, level)

	// Backups. Operation IDs are assigned here so snapshot storage is keyed
	// by the same id the journal record will use.
	for i := range pending {
		pt := &pending[i]
		pt.opID = e.idgen.New()

		if !level.RequireBackup.wantsSnapshot(opType) {
			continue
		}
		ref, err := e.backups.Snapshot(pt.opID, opType, pt.target)
		if err != nil {
			if level.ContinueOnBackupFailure {
				e.logger.Warn("proceeding without backup", "target", pt.target, "error", err)
				continue
			}
			e.logger.Error("backup failed", "target", pt.target, "error", err)
			pt.backupRef = "" // recorded failed below, never executed
			if recErr := e.recordFailed(pt, opType, description, err); recErr != nil {
				return nil, recErr
			}
			result.Failed++
			result.Results = append(result.Results, TargetResult{
				Target: pt.target, OperationID: pt.opID, Outcome: OutcomeFailed, Detail: err.Error(),
			})
			pt.opID = "" // mark as consumed
			continue
		}
		pt.backupRef = ref
	}
	pending = withoutConsumed(pending)
	result.State = StateBackedUp

	// Confirmation.
	if level.RequireConfirmation && len(pending) > 0 {
		ok, err := e.confirmer.Confirm(&ConfirmRequest{
			OpType:      opType,
			Targets:     targetNames(pending),
			Description: description,
			Warnings:    result.Warnings,
		})
		if err != nil {
			return nil, fmt.Errorf("obtaining confirmation: %w", err)
		}
		if !ok {
			e.logger.Info("workflow declined by confirmer")
			for _, pt := range pending {
				result.Results = append(result.Results, TargetResult{
					Target: pt.target, Outcome: OutcomeBlocked, Detail: "not confirmed",
				})
			}
			result.State = StateBlocked
			result.Classification = Blocked
			return result, nil
		}
	}
	result.State = StateConfirmed

	// Execute each target independently. The journal record is written and
	// durable before the mutation, and the status update is persisted before
	// the next target starts.
	result.State = StateExecuting
	for _, pt := range pending {
		op := &Operation{
			ID:          pt.opID,
			Type:        opType,
			Target:      pt.target,
			Description: description,
			Status:      StatusPending,
			BackupRef:   pt.backupRef,
			CreatedAt:   e.clock.Now(),
			UpdatedAt:   e.clock.Now(),
		}
		if err := e.journal.Record(op); err != nil {
			return nil, fmt.Errorf("recording operation for %s: %w", pt.target, err)
		}

		if execErr := e.executor.Execute(opType, pt.target); execErr != nil {
			e.logger.Error("execution failed", "target", pt.target, "error", execErr)
			if err := e.journal.UpdateStatus(pt.opID, StatusFailed, execErr.Error()); err != nil {
				return nil, fmt.Errorf("journaling failure for %s: %w", pt.target, err)
			}
			result.Failed++
			result.Results = append(result.Results, TargetResult{
				Target: pt.target, OperationID: pt.opID, Outcome: OutcomeFailed, Detail: execErr.Error(),
			})
			continue
		}

		if err := e.journal.UpdateStatus(pt.opID, StatusCompleted, ""); err != nil {
			return nil, fmt.Errorf("journaling completion for %s: %w", pt.target, err)
		}
		e.logger.Info("target completed", "target", pt.target, "operation", pt.opID)
		result.Succeeded++
		result.Results = append(result.Results, TargetResult{
			Target: pt.target, OperationID: pt.opID, Outcome: OutcomeCompleted,
		})
	}

	result.Classification = classify(result)
	if result.Failed > 0 {
		result.State = StateFailed
	} else {
		result.State = StateDone
	}
	e.logger.Info("workflow finished",
		"classification", string(result.Classification),
		"succeeded", result.Succeeded, "failed", result.Failed, "skipped", result.Skipped)
	return result, nil
}

// runChecks runs the context checks the level asks for and returns the
// collected warnings.
func (e *Engine) runChecks(opType OperationType, targets []string, level SafetyLevel) []CheckWarning {
	if !level.RunBasicChecks {
		return nil
	}
	var warnings []CheckWarning
	for _, check := range e.checks {
		if check.Advanced() && !level.RunAdvancedChecks {
			continue
		}
		found, err := check.Run(opType, targets)
		if err != nil {
			e.logger.Warn("context check failed", "check", check.Name(), "error", err)
			continue
		}
		for _, w := range found {
			e.logger.Warn("context warning", "check", w.Check, "message", w.Message)
		}
		warnings = append(warnings, found...)
	}
	return warnings
}

// recordFailed journals a target that never reached execution (backup abort)
// directly in the failed state.
func (e *Engine) recordFailed(pt *pendingTarget, opType OperationType, description string, cause error) error {
	op := &Operation{
		ID:          pt.opID,
		Type:        opType,
		Target:      pt.target,
		Description: description,
		Status:      StatusFailed,
		Error:       cause.Error(),
		CreatedAt:   e.clock.Now(),
		UpdatedAt:   e.clock.Now(),
	}
	if err := e.journal.Record(op); err != nil {
		return fmt.Errorf("recording failed operation for %s: %w", pt.target, err)
	}
	return nil
}

// ListOperations returns the journal's most recent operations.
func (e *Engine) ListOperations(limit int) ([]*Operation, error) {
	ops, err := e.journal.List(limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

// GetOperation returns one operation by id, or (nil, nil) if none exists.
func (e *Engine) GetOperation(id string) (*Operation, error) {
	return e.journal.Get(id)
}

func classify(r *BatchResult) Classification {
	switch {
	case r.Failed == 0:
		return Success
	case r.Succeeded == 0:
		return TotalFailure
	default:
		return PartialFailure
	}
}

func targetNames(pending []pendingTarget) []string {
	names := make([]string, len(pending))
	for i, pt := range pending {
		names[i] = pt.target
	}
	return names
}

func withoutConsumed(pending []pendingTarget) []pendingTarget {
	kept := pending[:0]
	for _, pt := range pending {
		if pt.opID != "" {
			kept = append(kept, pt)
		}
	}
	return kept
}
