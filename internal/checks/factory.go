package checks

import (
	"tidy-go/internal/config"
	"tidy-go/internal/safety"
)

// NewChecksFromConfig builds the full check set. Which checks actually run
// for a given workflow is decided by the safety level, not here.
func NewChecksFromConfig(cfg config.ChecksConfig, services safety.ServiceManager) []safety.ContextCheck {
	return []safety.ContextCheck{
		NewDiskSpaceCheck(cfg),
		NewLoadCheck(cfg),
		NewMemoryCheck(cfg),
		NewRunningServiceCheck(services),
		NewDevDirectoryCheck(cfg),
	}
}
