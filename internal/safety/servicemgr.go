package safety

// ServiceState is a service's observed state at query time.
type ServiceState struct {
	Exists bool
	Active bool
}

// ServiceManager abstracts the host's service manager (systemd in
// production). Queries are read-only; Stop and Start mutate.
type ServiceManager interface {
	// State returns the current state of a named service.
	State(name string) (*ServiceState, error)

	// Stop stops a running service.
	Stop(name string) error

	// Start starts a stopped service.
	Start(name string) error

	// ListRunning returns the names of currently running services.
	ListRunning() ([]string, error)
}
