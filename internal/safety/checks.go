package safety

// CheckWarning is one advisory finding from a context check.
type CheckWarning struct {
	Check   string
	Message string
}

// ContextCheck inspects ambient system state before a workflow executes.
// Checks never mutate anything; their findings are advisory. A check that
// errors is logged and skipped, it does not block the batch.
type ContextCheck interface {
	// Name identifies the check in warnings and logs.
	Name() string

	// Advanced reports whether the check only runs when the safety level
	// enables advanced checks.
	Advanced() bool

	// Run inspects the system in the context of the pending operation and
	// returns zero or more warnings.
	Run(opType OperationType, targets []string) ([]CheckWarning, error)
}
