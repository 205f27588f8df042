package safety

import (
	"fmt"
	"path"
	"strings"
)

// RuleScope selects which kind of target a protection rule applies to.
type RuleScope string

const (
	ScopeFiles       RuleScope = "files"
	ScopeDirectories RuleScope = "directories"
	ScopeServices    RuleScope = "services"
	ScopePackages    RuleScope = "packages"
)

// Valid reports whether s is a known rule scope.
func (s RuleScope) Valid() bool {
	switch s {
	case ScopeFiles, ScopeDirectories, ScopeServices, ScopePackages:
		return true
	}
	return false
}

// matchesKind reports whether the scope covers targets of the given kind.
// The files and directories scopes overlap: a directory pattern protects
// files beneath it.
func (s RuleScope) matchesKind(k TargetKind) bool {
	switch s {
	case ScopeFiles:
		return k == KindFile
	case ScopeDirectories:
		return k == KindDirectory || k == KindFile
	case ScopeServices:
		return k == KindService
	case ScopePackages:
		return k == KindPackage
	}
	return false
}

// RuleEffect is what a matching rule declares about its targets.
type RuleEffect string

const (
	EffectProtect RuleEffect = "protect"
	EffectAllow   RuleEffect = "allow"
)

// RuleTier partitions rules into the system-wide and per-user stores.
type RuleTier string

const (
	TierSystem RuleTier = "system"
	TierUser   RuleTier = "user"
)

// ProtectionRule declares that a scope+pattern is protected from or
// explicitly allowed for mutation.
type ProtectionRule struct {
	Scope   RuleScope
	Pattern string
	Tier    RuleTier
	Effect  RuleEffect
}

// RuleStore provides read access to one tier's rule declarations.
type RuleStore interface {
	Rules() ([]ProtectionRule, error)
}

// WritableRuleStore is a RuleStore whose declarations can be edited.
// Only the user tier is writable through the CLI.
type WritableRuleStore interface {
	RuleStore
	Add(rule ProtectionRule) error
	Remove(scope RuleScope, pattern string) (bool, error)
}

// VerdictKind is the outcome of validating one target.
type VerdictKind string

const (
	// VerdictAllowed: the target may be mutated.
	VerdictAllowed VerdictKind = "allowed"
	// VerdictProtected: a rule or the built-in critical list forbids
	// mutating the target.
	VerdictProtected VerdictKind = "protected"
	// VerdictNotFound: the target does not exist (or, for directory
	// creation, already exists). Not an error; the target is skipped.
	VerdictNotFound VerdictKind = "not_found"
)

// Verdict is the validation result for one target.
type Verdict struct {
	Target string
	Kind   VerdictKind
	Reason string
	// Builtin marks a Protected verdict that matched the compiled-in
	// critical list. Builtin protection can never be overridden.
	Builtin bool
}

// Overridable reports whether a Protected verdict yields to a safety level
// with protection override enabled. The built-in critical list is absolute.
func (v Verdict) Overridable() bool {
	return v.Kind == VerdictProtected && !v.Builtin
}

// RuleEngine classifies targets as protected or allowed before any mutation.
// It is a pure function over the two rule stores, the built-in critical
// list, and read-only state queries against the adapters.
type RuleEngine struct {
	system   RuleStore
	user     RuleStore
	fs       FileSystem
	services ServiceManager
	packages PackageManager
}

// NewRuleEngine creates a RuleEngine over the given stores and adapters.
func NewRuleEngine(system, user RuleStore, fs FileSystem, services ServiceManager, packages PackageManager) *RuleEngine {
	return &RuleEngine{
		system:   system,
		user:     user,
		fs:       fs,
		services: services,
		packages: packages,
	}
}

// Validate classifies every target for the given operation type. Precedence,
// highest to lowest: built-in critical list, system-tier protect, user-tier
// protect, explicit allow, default allowed. The safety level plays no role
// here: override decisions belong to the orchestrator, which consults
// Verdict.Overridable.
func (e *RuleEngine) Validate(targets []string, opType OperationType) ([]Verdict, error) {
	kind := opType.TargetKind()

	systemRules, err := e.system.Rules()
	if err != nil {
		return nil, fmt.Errorf("loading system rules: %w", err)
	}
	userRules, err := e.user.Rules()
	if err != nil {
		return nil, fmt.Errorf("loading user rules: %w", err)
	}

	verdicts := make([]Verdict, 0, len(targets))
	for _, target := range targets {
		v, err := e.validateOne(target, opType, kind, systemRules, userRules)
		if err != nil {
			return nil, err
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, nil
}

func (e *RuleEngine) validateOne(target string, opType OperationType, kind TargetKind, systemRules, userRules []ProtectionRule) (Verdict, error) {
	// The critical list is checked first and is never overridable.
	if reason, critical := criticalMatch(kind, target); critical {
		return Verdict{Target: target, Kind: VerdictProtected, Reason: reason, Builtin: true}, nil
	}

	if protect := firstMatch(systemRules, EffectProtect, kind, target); protect != nil {
		return Verdict{
			Target: target,
			Kind:   VerdictProtected,
			Reason: fmt.Sprintf("system rule %s:%s", protect.Scope, protect.Pattern),
		}, nil
	}
	if protect := firstMatch(userRules, EffectProtect, kind, target); protect != nil {
		return Verdict{
			Target: target,
			Kind:   VerdictProtected,
			Reason: fmt.Sprintf("user rule %s:%s", protect.Scope, protect.Pattern),
		}, nil
	}

	// Existence check happens after protection: a protected name stays
	// protected whether or not it currently exists.
	found, reason, err := e.targetExists(target, opType, kind)
	if err != nil {
		return Verdict{}, fmt.Errorf("querying state of %s: %w", target, err)
	}
	if !found {
		return Verdict{Target: target, Kind: VerdictNotFound, Reason: reason}, nil
	}

	// Explicit allow rules and the default resolve identically; the allow
	// verdict carries the rule for reporting.
	if allow := firstMatch(append(systemRules, userRules...), EffectAllow, kind, target); allow != nil {
		return Verdict{
			Target: target,
			Kind:   VerdictAllowed,
			Reason: fmt.Sprintf("%s rule %s:%s", allow.Tier, allow.Scope, allow.Pattern),
		}, nil
	}
	return Verdict{Target: target, Kind: VerdictAllowed}, nil
}

// targetExists answers the skip question per target kind. For directory
// creation the sense is inverted: an already-existing directory is the
// skippable case.
func (e *RuleEngine) targetExists(target string, opType OperationType, kind TargetKind) (bool, string, error) {
	switch kind {
	case KindFile:
		info, err := e.fs.Stat(target)
		if err != nil {
			return false, "", err
		}
		if info == nil {
			return false, "file does not exist", nil
		}
		return true, "", nil
	case KindDirectory:
		info, err := e.fs.Stat(target)
		if err != nil {
			return false, "", err
		}
		if opType == OpDirectoryCreate {
			if info != nil {
				return false, "directory already exists", nil
			}
			return true, "", nil
		}
		if info == nil {
			return false, "directory does not exist", nil
		}
		return true, "", nil
	case KindService:
		state, err := e.services.State(target)
		if err != nil {
			return false, "", err
		}
		if !state.Exists {
			return false, "service does not exist", nil
		}
		return true, "", nil
	case KindPackage:
		version, err := e.packages.InstalledVersion(target)
		if err != nil {
			return false, "", err
		}
		if version == "" {
			return false, "package is not installed", nil
		}
		return true, "", nil
	}
	return false, "", fmt.Errorf("unknown target kind %q", kind)
}

// firstMatch returns the first rule with the wanted effect that matches the
// target, or nil.
func firstMatch(rules []ProtectionRule, effect RuleEffect, kind TargetKind, target string) *ProtectionRule {
	for i := range rules {
		r := &rules[i]
		if r.Effect != effect || !r.Scope.matchesKind(kind) {
			continue
		}
		if matchPattern(r.Pattern, target) {
			return r
		}
	}
	return nil
}

// matchPattern matches a rule pattern against a target name. Patterns are
// exact names, shell globs (path.Match), or directory subtree patterns
// ending in "/**" which match the directory itself and everything under it.
func matchPattern(pattern, target string) bool {
	if pattern == target {
		return true
	}
	if strings.HasSuffix(pattern, "/**") {
		root := strings.TrimSuffix(pattern, "/**")
		return target == root || strings.HasPrefix(target, root+"/")
	}
	ok, err := path.Match(pattern, target)
	return err == nil && ok
}
