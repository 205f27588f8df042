package snapstore

import (
	"fmt"

	"tidy-go/internal/config"
	"tidy-go/internal/safety"
)

// NewSnapshotStoreFromConfig creates the snapshot store named by the config.
// An empty type selects the filesystem store.
func NewSnapshotStoreFromConfig(cfg config.SnapshotsConfig) (safety.SnapshotStore, error) {
	switch cfg.Type {
	case "filesystem", "":
		return NewFileSystemStore(cfg.Root)
	case "s3":
		return NewS3Store(cfg)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown snapshot store type: %s", cfg.Type)
	}
}
