// Package app is the application layer between the CLI and the safety
// engine. It constructs all dependencies from config and exposes the
// high-level operations the commands call.
package app

import (
	"fmt"
	"os"
	"time"

	"tidy-go/internal/checks"
	"tidy-go/internal/config"
	"tidy-go/internal/encryption"
	"tidy-go/internal/journal"
	"tidy-go/internal/rules"
	"tidy-go/internal/safety"
	"tidy-go/internal/snapstore"
	"tidy-go/internal/sysadapter"
)

// App owns a fully wired safety engine plus the stores the auxiliary
// commands (rules, prune, check, keys) operate on directly.
// The caller must call Close when done.
type App struct {
	cfg       *config.Config
	journal   safety.Journal
	store     safety.SnapshotStore
	backups   *safety.BackupManager
	engine    *safety.Engine
	encryptor safety.Encryptor
	userRules safety.WritableRuleStore
	sysRules  safety.RuleStore
	checks    []safety.ContextCheck
	logFile   *os.File
}

// NewApp creates a fully wired App from the given config. confirmer decides
// how confirmation prompts are answered; the CLI passes a terminal prompter
// or an auto-confirmer depending on flags.
func NewApp(cfg *config.Config, confirmer safety.Confirmer) (*App, error) {
	fs := sysadapter.NewOSFileSystem()
	services := sysadapter.NewSystemdManager()
	packages := sysadapter.NewAptManager()

	store, err := snapstore.NewSnapshotStoreFromConfig(cfg.Snapshots)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot store: %w", err)
	}

	jnl, err := journal.NewJournalFromConfig(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("creating journal: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		jnl.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, runID)
	if err != nil {
		jnl.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger}

	sysRules, userRules := rules.NewStoresFromConfig(cfg.Rules)
	ruleEngine := safety.NewRuleEngine(sysRules, userRules, fs, services, packages)
	backups := safety.NewBackupManager(store, fs, services, packages, enc, log, safety.RealClock{})
	executor := safety.NewExecutor(fs, services, packages)
	checkSet := checks.NewChecksFromConfig(cfg.Checks, services)

	engine := safety.NewEngine(jnl, backups, ruleEngine, executor, confirmer,
		checkSet, log, safety.RealClock{}, safety.OperationIDGenerator{})

	return &App{
		cfg:       cfg,
		journal:   jnl,
		store:     store,
		backups:   backups,
		engine:    engine,
		encryptor: enc,
		userRules: userRules,
		sysRules:  sysRules,
		checks:    checkSet,
		logFile:   logFile,
	}, nil
}

// Run executes one safety workflow over the given targets.
func (a *App) Run(opType safety.OperationType, targets []string, description, levelName string) (*safety.BatchResult, error) {
	if levelName == "" {
		levelName = a.cfg.DefaultLevel
	}
	level, err := safety.LevelByName(levelName)
	if err != nil {
		return nil, err
	}
	return a.engine.Run(opType, targets, description, level)
}

// ListOperations returns the most recent journal entries, newest first.
func (a *App) ListOperations(limit int) ([]*safety.Operation, error) {
	return a.engine.ListOperations(limit)
}

// GetOperation returns one journal entry, or (nil, nil) when unknown.
func (a *App) GetOperation(id string) (*safety.Operation, error) {
	return a.engine.GetOperation(id)
}

// Undo reverses a completed operation. When the operation's snapshot is
// encrypted, readPassphrase is called once to unlock the private key.
func (a *App) Undo(id string, readPassphrase func(prompt string) (string, error)) (*safety.UndoOutcome, error) {
	var dec safety.DecryptionContext

	op, err := a.engine.GetOperation(id)
	if err != nil {
		return nil, err
	}
	if op != nil && op.BackupRef != "" {
		meta, err := a.backups.Meta(op.BackupRef)
		if err != nil {
			return nil, fmt.Errorf("reading snapshot metadata: %w", err)
		}
		if meta != nil && meta.Encrypted {
			if a.encryptor == nil {
				return nil, fmt.Errorf("snapshot for %s is encrypted but no encryption is configured", id)
			}
			pass, err := readPassphrase("Passphrase to unlock snapshot key: ")
			if err != nil {
				return nil, err
			}
			dec, err = a.encryptor.Unlock(pass)
			if err != nil {
				return nil, fmt.Errorf("unlocking snapshot key: %w", err)
			}
		}
	}

	return a.engine.Undo(id, dec)
}

// PruneResult summarizes one retention pass.
type PruneResult struct {
	JournalTrimmed   int
	JournalPurged    int
	SnapshotsRemoved int
}

// Prune applies the configured retention bounds to the journal and the
// snapshot store. The two retentions are independent: a journal entry may
// outlive its snapshot and vice versa.
func (a *App) Prune() (*PruneResult, error) {
	res := &PruneResult{}

	if max := a.cfg.Journal.MaxEntries; max > 0 {
		trimmed, err := a.journal.Trim(max)
		if err != nil {
			return nil, fmt.Errorf("trimming journal: %w", err)
		}
		res.JournalTrimmed = trimmed
	}

	if days := a.cfg.Journal.MaxAgeDays; days > 0 {
		cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
		purged, err := a.journal.Purge(cutoff)
		if err != nil {
			return nil, fmt.Errorf("purging journal: %w", err)
		}
		res.JournalPurged = purged
	}

	maxAge := time.Duration(a.cfg.Snapshots.MaxAgeDays) * 24 * time.Hour
	removed, err := a.backups.Sweep(maxAge, a.cfg.Snapshots.MaxCount)
	if err != nil {
		return nil, fmt.Errorf("sweeping snapshots: %w", err)
	}
	res.SnapshotsRemoved = removed

	return res, nil
}

// CheckResult is one finding from the setup check.
type CheckResult struct {
	Name string
	Err  error
}

// migrationChecker is implemented by journals with a versioned schema.
type migrationChecker interface {
	CheckMigrations() error
}

// Check verifies the setup: snapshot store reachable, journal schema
// current, encryption keys present when encryption is enabled.
func (a *App) Check() []CheckResult {
	results := []CheckResult{
		{Name: "snapshot_store", Err: a.store.ValidateSetup()},
	}

	if mc, ok := a.journal.(migrationChecker); ok {
		results = append(results, CheckResult{Name: "journal_schema", Err: mc.CheckMigrations()})
	}

	if a.encryptor != nil && !a.encryptor.IsConfigured() {
		results = append(results, CheckResult{
			Name: "encryption_keys",
			Err:  fmt.Errorf("encryption enabled but key pair not found; run 'tidy keys init'"),
		})
	}

	return results
}

// Advisories runs every context check standalone, against the base
// directory, and returns their findings. A check that errors reports the
// error as a warning rather than aborting the rest.
func (a *App) Advisories() []safety.CheckWarning {
	var warnings []safety.CheckWarning
	for _, c := range a.checks {
		ws, err := c.Run(safety.OpFileDelete, []string{a.cfg.BaseDir})
		if err != nil {
			warnings = append(warnings, safety.CheckWarning{
				Check:   c.Name(),
				Message: fmt.Sprintf("check failed: %v", err),
			})
			continue
		}
		warnings = append(warnings, ws...)
	}
	return warnings
}

// SetupKeys generates the snapshot encryption key pair.
func (a *App) SetupKeys(passphrase string) error {
	if a.encryptor == nil {
		return fmt.Errorf("encryption is not enabled in the config")
	}
	return a.encryptor.Setup(passphrase)
}

// Rules returns the system and user rule sets, system tier first.
func (a *App) Rules() ([]safety.ProtectionRule, error) {
	system, err := a.sysRules.Rules()
	if err != nil {
		return nil, err
	}
	user, err := a.userRules.Rules()
	if err != nil {
		return nil, err
	}
	return append(system, user...), nil
}

// AddRule adds a rule to the user tier.
func (a *App) AddRule(rule safety.ProtectionRule) error {
	return a.userRules.Add(rule)
}

// RemoveRule removes a user-tier rule, reporting whether one was removed.
func (a *App) RemoveRule(scope safety.RuleScope, pattern string) (bool, error) {
	return a.userRules.Remove(scope, pattern)
}

// Close releases the journal and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.journal.Close(); err != nil {
		firstErr = fmt.Errorf("closing journal: %w", err)
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}
	return firstErr
}
