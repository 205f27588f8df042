package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the main configuration for tidy.
type Config struct {
	DefaultLevel string           `toml:"default_level"`
	BaseDir      string           `toml:"base_dir"`
	LogDir       string           `toml:"log_dir"`
	Journal      JournalConfig    `toml:"journal"`
	Snapshots    SnapshotsConfig  `toml:"snapshots"`
	Rules        RulesConfig      `toml:"rules"`
	Encryption   EncryptionConfig `toml:"encryption"`
	Checks       ChecksConfig     `toml:"checks"`
}

// JournalConfig configures the operation journal.
// This uses a tagged union pattern - the Type field determines which other
// fields are relevant.
type JournalConfig struct {
	Type       string `toml:"type"`               // "sqlite" or "memory"
	DataDir    string `toml:"data_dir,omitempty"` // only used for type=sqlite
	MaxEntries int    `toml:"max_entries"`        // journal capacity; oldest beyond this are trimmed
	MaxAgeDays int    `toml:"max_age_days"`       // entries older than this are purged
}

// SnapshotsConfig configures the snapshot store.
// This uses a tagged union pattern - the Type field determines which other
// fields are relevant.
type SnapshotsConfig struct {
	Type string `toml:"type"` // "filesystem", "s3", or "memory"
	Root string `toml:"root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket    string `toml:"s3_bucket,omitempty"`
	S3Prefix    string `toml:"s3_prefix,omitempty"`
	S3Region    string `toml:"s3_region,omitempty"`
	S3AccessKey string `toml:"s3_access_key,omitempty"`
	S3SecretKey string `toml:"s3_secret_key,omitempty"`

	MaxCount   int `toml:"max_count"`    // snapshots kept, newest first
	MaxAgeDays int `toml:"max_age_days"` // snapshots older than this are swept
}

// RulesConfig points at the two protection rule stores.
type RulesConfig struct {
	SystemPath string `toml:"system_path"`
	UserPath   string `toml:"user_path"`
}

// EncryptionConfig holds paths to the age key pair for snapshot encryption.
// An empty Type leaves snapshots unencrypted.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "", "age", or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// ChecksConfig holds thresholds for the advisory context checks.
type ChecksConfig struct {
	DiskMinFreeMB     int64   `toml:"disk_min_free_mb"`
	LoadMax           float64 `toml:"load_max"`
	MemMinAvailableMB int64   `toml:"mem_min_available_mb"`
	DevDirWindowHours int     `toml:"dev_dir_window_hours"`
}

// NewConfig creates a Config with the provided base directory and sensible
// defaults for everything else.
func NewConfig(baseDir string) *Config {
	return &Config{
		DefaultLevel: "standard",
		BaseDir:      baseDir,
		LogDir:       filepath.Join(baseDir, "log"),
		Journal: JournalConfig{
			Type:       "sqlite",
			DataDir:    filepath.Join(baseDir, "journal"),
			MaxEntries: 1000,
			MaxAgeDays: 90,
		},
		Snapshots: SnapshotsConfig{
			Type:       "filesystem",
			Root:       filepath.Join(baseDir, "snapshots"),
			MaxCount:   200,
			MaxAgeDays: 30,
		},
		Rules: RulesConfig{
			SystemPath: "/etc/tidy/rules.yaml",
			UserPath:   filepath.Join(baseDir, "rules.yaml"),
		},
		Encryption: EncryptionConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "tidy.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "tidy.key"),
		},
		Checks: ChecksConfig{
			DiskMinFreeMB:     500,
			LoadMax:           4.0,
			MemMinAvailableMB: 256,
			DevDirWindowHours: 24,
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path.
// It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
