package safety

import "fmt"

// Executor dispatches an operation to the matching adapter. The switch is
// exhaustive over OperationType; adding a type without a branch here is a
// compile-visible TODO, not a silent fallthrough.
type Executor struct {
	fs       FileSystem
	services ServiceManager
	packages PackageManager
}

// NewExecutor creates an Executor over the given adapters.
func NewExecutor(fs FileSystem, services ServiceManager, packages PackageManager) *Executor {
	return &Executor{fs: fs, services: services, packages: packages}
}

// Execute performs the mutation for one target. Failures are returned as
// *ExecutionError.
func (e *Executor) Execute(opType OperationType, target string) error {
	var err error
	switch opType {
	case OpFileDelete:
		err = e.fs.Remove(target)
	case OpFileModify:
		err = e.fs.Truncate(target)
	case OpDirectoryCreate:
		err = e.fs.MakeDir(target, 0755)
	case OpServiceStop:
		err = e.services.Stop(target)
	case OpPackageRemove:
		err = e.packages.Remove(target)
	default:
		err = fmt.Errorf("unknown operation type %q", opType)
	}
	if err != nil {
		return &ExecutionError{Target: target, Err: err}
	}
	return nil
}
