package sysadapter

import (
	"fmt"
	"os/exec"
	"strings"

	"tidy-go/internal/safety"
)

// SystemdManager drives services through systemctl. Command execution is
// behind a function field so tests can substitute canned output.
type SystemdManager struct {
	run func(args ...string) (string, error)
}

// NewSystemdManager creates a service manager that shells out to systemctl.
func NewSystemdManager() *SystemdManager {
	return &SystemdManager{run: runSystemctl}
}

func runSystemctl(args ...string) (string, error) {
	out, err := exec.Command("systemctl", args...).CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("systemctl %s: %w: %s",
			strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// State queries a service's load and active state. An unloaded unit reports
// Exists=false rather than an error.
func (m *SystemdManager) State(name string) (*safety.ServiceState, error) {
	// show exits 0 even for unknown units, reporting LoadState=not-found.
	out, err := m.run("show", unitName(name), "--property=LoadState,ActiveState")
	if err != nil {
		return nil, err
	}

	state := &safety.ServiceState{}
	for _, line := range strings.Split(out, "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found {
			continue
		}
		switch key {
		case "LoadState":
			state.Exists = value == "loaded"
		case "ActiveState":
			state.Active = value == "active"
		}
	}
	return state, nil
}

func (m *SystemdManager) Stop(name string) error {
	_, err := m.run("stop", unitName(name))
	return err
}

func (m *SystemdManager) Start(name string) error {
	_, err := m.run("start", unitName(name))
	return err
}

// ListRunning returns the unit names of running services, without the
// .service suffix.
func (m *SystemdManager) ListRunning() ([]string, error) {
	out, err := m.run("list-units", "--type=service", "--state=running", "--no-legend", "--plain")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		names = append(names, strings.TrimSuffix(fields[0], ".service"))
	}
	return names, nil
}

// unitName normalizes a service name to its systemd unit name.
func unitName(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return name + ".service"
}

// Compile-time check that SystemdManager implements the safety.ServiceManager interface
var _ safety.ServiceManager = (*SystemdManager)(nil)
