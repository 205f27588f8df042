package testutil

import (
	"fmt"

	"tidy-go/internal/safety"
)

// MockServiceManager is an in-memory service manager. Services map names to
// active state; absent names do not exist.
type MockServiceManager struct {
	Services map[string]bool

	StopErr  error
	StartErr error

	// Stopped and Started record mutation order for assertions.
	Stopped []string
	Started []string
}

func NewMockServiceManager() *MockServiceManager {
	return &MockServiceManager{Services: make(map[string]bool)}
}

func (m *MockServiceManager) State(name string) (*safety.ServiceState, error) {
	active, ok := m.Services[name]
	return &safety.ServiceState{Exists: ok, Active: active}, nil
}

func (m *MockServiceManager) Stop(name string) error {
	if m.StopErr != nil {
		return m.StopErr
	}
	if _, ok := m.Services[name]; !ok {
		return fmt.Errorf("unknown service: %s", name)
	}
	m.Services[name] = false
	m.Stopped = append(m.Stopped, name)
	return nil
}

func (m *MockServiceManager) Start(name string) error {
	if m.StartErr != nil {
		return m.StartErr
	}
	if _, ok := m.Services[name]; !ok {
		return fmt.Errorf("unknown service: %s", name)
	}
	m.Services[name] = true
	m.Started = append(m.Started, name)
	return nil
}

func (m *MockServiceManager) ListRunning() ([]string, error) {
	var running []string
	for name, active := range m.Services {
		if active {
			running = append(running, name)
		}
	}
	return running, nil
}

// MockPackageManager is an in-memory package manager mapping names to
// installed versions.
type MockPackageManager struct {
	Installed map[string]string

	RemoveErr  error
	InstallErr error

	Removed  []string
	Installs []string
}

func NewMockPackageManager() *MockPackageManager {
	return &MockPackageManager{Installed: make(map[string]string)}
}

func (m *MockPackageManager) InstalledVersion(name string) (string, error) {
	return m.Installed[name], nil
}

func (m *MockPackageManager) Remove(name string) error {
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	if m.Installed[name] == "" {
		return fmt.Errorf("package not installed: %s", name)
	}
	delete(m.Installed, name)
	m.Removed = append(m.Removed, name)
	return nil
}

func (m *MockPackageManager) Install(name, version string) error {
	if m.InstallErr != nil {
		return m.InstallErr
	}
	if version == "" {
		version = "latest"
	}
	m.Installed[name] = version
	m.Installs = append(m.Installs, name+"="+version)
	return nil
}

// Compile-time checks
var _ safety.ServiceManager = (*MockServiceManager)(nil)
var _ safety.PackageManager = (*MockPackageManager)(nil)
