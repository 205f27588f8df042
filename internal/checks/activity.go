package checks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tidy-go/internal/config"
	"tidy-go/internal/safety"
)

// RunningServiceCheck warns when a service slated for an operation other
// than service_stop is currently running, or when a stop target has units
// depending on it still running. Advanced only.
type RunningServiceCheck struct {
	services safety.ServiceManager
}

func NewRunningServiceCheck(services safety.ServiceManager) *RunningServiceCheck {
	return &RunningServiceCheck{services: services}
}

func (c *RunningServiceCheck) Name() string   { return "running_service" }
func (c *RunningServiceCheck) Advanced() bool { return true }

func (c *RunningServiceCheck) Run(opType safety.OperationType, targets []string) ([]safety.CheckWarning, error) {
	if opType != safety.OpPackageRemove {
		return nil, nil
	}

	// Removing a package whose service is running usually means the stop
	// was forgotten. Match package name against running unit names.
	running, err := c.services.ListRunning()
	if err != nil {
		return nil, fmt.Errorf("listing running services: %w", err)
	}
	runningSet := make(map[string]bool, len(running))
	for _, name := range running {
		runningSet[name] = true
	}

	var warnings []safety.CheckWarning
	for _, target := range targets {
		if runningSet[target] {
			warnings = append(warnings, safety.CheckWarning{
				Check:   c.Name(),
				Message: fmt.Sprintf("package %s has a running service of the same name; consider stopping it first", target),
			})
		}
	}
	return warnings, nil
}

// DevDirectoryCheck warns when a directory targeted for deletion looks like
// an active development checkout: it contains a .git directory whose
// metadata changed within the configured window. Advanced only.
type DevDirectoryCheck struct {
	Window time.Duration

	now  func() time.Time
	stat func(path string) (os.FileInfo, error)
}

func NewDevDirectoryCheck(cfg config.ChecksConfig) *DevDirectoryCheck {
	return &DevDirectoryCheck{
		Window: time.Duration(cfg.DevDirWindowHours) * time.Hour,
		now:    time.Now,
		stat:   os.Stat,
	}
}

func (c *DevDirectoryCheck) Name() string   { return "active_dev_directory" }
func (c *DevDirectoryCheck) Advanced() bool { return true }

func (c *DevDirectoryCheck) Run(opType safety.OperationType, targets []string) ([]safety.CheckWarning, error) {
	if opType != safety.OpFileDelete {
		return nil, nil
	}

	var warnings []safety.CheckWarning
	for _, target := range targets {
		gitDir := c.findGitDir(target)
		if gitDir == "" {
			continue
		}
		info, err := c.stat(gitDir)
		if err != nil {
			continue
		}
		age := c.now().Sub(info.ModTime())
		if age < c.Window {
			warnings = append(warnings, safety.CheckWarning{
				Check:   c.Name(),
				Message: fmt.Sprintf("%s is inside a git checkout active %s ago", target, age.Round(time.Minute)),
			})
		}
	}
	return warnings, nil
}

// findGitDir walks up from the target looking for a .git directory.
func (c *DevDirectoryCheck) findGitDir(target string) string {
	dir := filepath.Dir(target)
	for {
		candidate := filepath.Join(dir, ".git")
		if _, err := c.stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir || !strings.HasPrefix(dir, "/") {
			return ""
		}
		dir = parent
	}
}

// Compile-time checks
var _ safety.ContextCheck = (*RunningServiceCheck)(nil)
var _ safety.ContextCheck = (*DevDirectoryCheck)(nil)
