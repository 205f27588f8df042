package safety

// ConfirmRequest summarizes what is about to happen so the Confirmer can
// present it: the operation, the targets that survived validation, and any
// advisory warnings the context checks raised.
type ConfirmRequest struct {
	OpType      OperationType
	Targets     []string
	Description string
	Warnings    []CheckWarning
}

// Confirmer decides whether a destructive batch may proceed. Production asks
// a human at the terminal; tests inject canned answers.
type Confirmer interface {
	Confirm(req *ConfirmRequest) (bool, error)
}
