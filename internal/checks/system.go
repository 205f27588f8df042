// Package checks provides the context checks run before a workflow executes.
// Basic checks cover disk space and system load; advanced checks add memory
// pressure, running-service, and active-development-directory inspection.
package checks

import (
	"fmt"
	"path/filepath"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	"tidy-go/internal/config"
	"tidy-go/internal/safety"
)

const mib = 1024 * 1024

// DiskSpaceCheck warns when the filesystem holding a file target is low on
// free space. Restoring a snapshot needs headroom; running out mid-restore
// is far worse than a warning up front.
type DiskSpaceCheck struct {
	MinFreeMB uint64

	// usage is swappable for tests; defaults to gopsutil.
	usage func(path string) (*disk.UsageStat, error)
}

func NewDiskSpaceCheck(cfg config.ChecksConfig) *DiskSpaceCheck {
	return &DiskSpaceCheck{MinFreeMB: uint64(cfg.DiskMinFreeMB), usage: disk.Usage}
}

func (c *DiskSpaceCheck) Name() string   { return "disk_space" }
func (c *DiskSpaceCheck) Advanced() bool { return false }

func (c *DiskSpaceCheck) Run(opType safety.OperationType, targets []string) ([]safety.CheckWarning, error) {
	if opType.TargetKind() != safety.KindFile && opType.TargetKind() != safety.KindDirectory {
		return nil, nil
	}

	// One warning per distinct parent directory is enough; sibling targets
	// share a filesystem.
	seen := map[string]bool{}
	var warnings []safety.CheckWarning
	for _, target := range targets {
		dir := filepath.Dir(target)
		if seen[dir] {
			continue
		}
		seen[dir] = true

		usage, err := c.usage(dir)
		if err != nil {
			return nil, fmt.Errorf("querying disk usage for %s: %w", dir, err)
		}
		freeMB := usage.Free / mib
		if freeMB < c.MinFreeMB {
			warnings = append(warnings, safety.CheckWarning{
				Check:   c.Name(),
				Message: fmt.Sprintf("filesystem for %s has %d MB free, below the %d MB threshold", dir, freeMB, c.MinFreeMB),
			})
		}
	}
	return warnings, nil
}

// LoadCheck warns when the 1-minute load average is high. Stopping services
// or removing packages on a struggling host tends to make diagnosis harder.
type LoadCheck struct {
	Max float64

	avg func() (*load.AvgStat, error)
}

func NewLoadCheck(cfg config.ChecksConfig) *LoadCheck {
	return &LoadCheck{Max: cfg.LoadMax, avg: load.Avg}
}

func (c *LoadCheck) Name() string   { return "system_load" }
func (c *LoadCheck) Advanced() bool { return false }

func (c *LoadCheck) Run(opType safety.OperationType, targets []string) ([]safety.CheckWarning, error) {
	stat, err := c.avg()
	if err != nil {
		return nil, fmt.Errorf("querying load average: %w", err)
	}
	if stat.Load1 > c.Max {
		return []safety.CheckWarning{{
			Check:   c.Name(),
			Message: fmt.Sprintf("1-minute load average is %.2f, above the %.2f threshold", stat.Load1, c.Max),
		}}, nil
	}
	return nil, nil
}

// MemoryCheck warns when available memory is low. Advanced only.
type MemoryCheck struct {
	MinAvailableMB uint64

	virtual func() (*mem.VirtualMemoryStat, error)
}

func NewMemoryCheck(cfg config.ChecksConfig) *MemoryCheck {
	return &MemoryCheck{MinAvailableMB: uint64(cfg.MemMinAvailableMB), virtual: mem.VirtualMemory}
}

func (c *MemoryCheck) Name() string   { return "memory" }
func (c *MemoryCheck) Advanced() bool { return true }

func (c *MemoryCheck) Run(opType safety.OperationType, targets []string) ([]safety.CheckWarning, error) {
	stat, err := c.virtual()
	if err != nil {
		return nil, fmt.Errorf("querying memory: %w", err)
	}
	availMB := stat.Available / mib
	if availMB < c.MinAvailableMB {
		return []safety.CheckWarning{{
			Check:   c.Name(),
			Message: fmt.Sprintf("%d MB memory available, below the %d MB threshold", availMB, c.MinAvailableMB),
		}}, nil
	}
	return nil, nil
}

// Compile-time checks
var _ safety.ContextCheck = (*DiskSpaceCheck)(nil)
var _ safety.ContextCheck = (*LoadCheck)(nil)
var _ safety.ContextCheck = (*MemoryCheck)(nil)
