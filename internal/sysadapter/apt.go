package sysadapter

import (
	"fmt"
	"os/exec"
	"strings"

	"tidy-go/internal/safety"
)

// AptManager drives packages through dpkg-query and apt-get. As with
// SystemdManager, execution is behind a function field for testing.
type AptManager struct {
	run func(cmd string, args ...string) (string, int, error)
}

// NewAptManager creates a package manager that shells out to apt tooling.
func NewAptManager() *AptManager {
	return &AptManager{run: runCommand}
}

func runCommand(cmd string, args ...string) (string, int, error) {
	out, err := exec.Command(cmd, args...).CombinedOutput()
	if err != nil {
		if exit, ok := err.(*exec.ExitError); ok {
			return string(out), exit.ExitCode(), nil
		}
		return string(out), -1, fmt.Errorf("%s %s: %w", cmd, strings.Join(args, " "), err)
	}
	return string(out), 0, nil
}

// InstalledVersion returns the installed version of a package, or "" when
// the package is not installed. dpkg-query exits non-zero for unknown
// packages, which is the not-installed case, not an error.
func (m *AptManager) InstalledVersion(name string) (string, error) {
	out, code, err := m.run("dpkg-query", "-W", "-f", "${db:Status-Status} ${Version}", name)
	if err != nil {
		return "", err
	}
	if code != 0 {
		return "", nil
	}

	status, version, _ := strings.Cut(strings.TrimSpace(out), " ")
	if status != "installed" {
		return "", nil
	}
	return version, nil
}

func (m *AptManager) Remove(name string) error {
	out, code, err := m.run("apt-get", "remove", "-y", name)
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("apt-get remove %s exited %d: %s", name, code, lastLine(out))
	}
	return nil
}

// Install installs a package, pinning the exact version when one is given.
func (m *AptManager) Install(name, version string) error {
	spec := name
	if version != "" {
		spec = name + "=" + version
	}
	out, code, err := m.run("apt-get", "install", "-y", spec)
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("apt-get install %s exited %d: %s", spec, code, lastLine(out))
	}
	return nil
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return lines[len(lines)-1]
}

// Compile-time check that AptManager implements the safety.PackageManager interface
var _ safety.PackageManager = (*AptManager)(nil)
