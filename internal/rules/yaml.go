package rules

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"tidy-go/internal/safety"
)

// ruleFile is the on-disk shape of a rule store.
type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	Scope   string `yaml:"scope"`
	Pattern string `yaml:"pattern"`
	Effect  string `yaml:"effect,omitempty"`
}

// YAMLStore reads protection rules from a YAML file. The file is re-read on
// every call so edits made outside the process are always picked up. A
// missing file is an empty store, not an error.
type YAMLStore struct {
	path string
	tier safety.RuleTier
}

// NewYAMLStore creates a store over the given file, tagging every rule it
// yields with the given tier.
func NewYAMLStore(path string, tier safety.RuleTier) *YAMLStore {
	return &YAMLStore{path: path, tier: tier}
}

func (s *YAMLStore) Rules() ([]safety.ProtectionRule, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading rule file %s: %w", s.path, err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing rule file %s: %w", s.path, err)
	}

	rules := make([]safety.ProtectionRule, 0, len(file.Rules))
	for i, entry := range file.Rules {
		rule, err := entry.toRule(s.tier)
		if err != nil {
			return nil, fmt.Errorf("rule file %s, rule %d: %w", s.path, i+1, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Add appends a rule to the file, creating it if needed. Duplicate
// scope+pattern entries are rejected.
func (s *YAMLStore) Add(rule safety.ProtectionRule) error {
	if !rule.Scope.Valid() {
		return fmt.Errorf("unknown rule scope: %s", rule.Scope)
	}
	if rule.Pattern == "" {
		return fmt.Errorf("rule pattern must not be empty")
	}

	file, err := s.load()
	if err != nil {
		return err
	}
	for _, entry := range file.Rules {
		if entry.Scope == string(rule.Scope) && entry.Pattern == rule.Pattern {
			return fmt.Errorf("rule %s:%s already exists", rule.Scope, rule.Pattern)
		}
	}

	effect := rule.Effect
	if effect == "" {
		effect = safety.EffectProtect
	}
	file.Rules = append(file.Rules, ruleEntry{
		Scope:   string(rule.Scope),
		Pattern: rule.Pattern,
		Effect:  string(effect),
	})
	return s.save(file)
}

// Remove deletes the rule with the given scope and pattern. It reports
// whether a rule was actually removed.
func (s *YAMLStore) Remove(scope safety.RuleScope, pattern string) (bool, error) {
	file, err := s.load()
	if err != nil {
		return false, err
	}

	kept := file.Rules[:0]
	removed := false
	for _, entry := range file.Rules {
		if entry.Scope == string(scope) && entry.Pattern == pattern {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	if !removed {
		return false, nil
	}
	file.Rules = kept
	return true, s.save(file)
}

func (s *YAMLStore) load() (*ruleFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ruleFile{}, nil
		}
		return nil, fmt.Errorf("reading rule file %s: %w", s.path, err)
	}
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing rule file %s: %w", s.path, err)
	}
	return &file, nil
}

func (s *YAMLStore) save(file *ruleFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating rule directory: %w", err)
	}
	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encoding rule file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing rule file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing rule file: %w", err)
	}
	return nil
}

func (e ruleEntry) toRule(tier safety.RuleTier) (safety.ProtectionRule, error) {
	scope := safety.RuleScope(e.Scope)
	if !scope.Valid() {
		return safety.ProtectionRule{}, fmt.Errorf("unknown scope %q", e.Scope)
	}

	effect := safety.RuleEffect(e.Effect)
	switch effect {
	case "":
		effect = safety.EffectProtect
	case safety.EffectProtect, safety.EffectAllow:
	default:
		return safety.ProtectionRule{}, fmt.Errorf("unknown effect %q", e.Effect)
	}

	return safety.ProtectionRule{
		Scope:   scope,
		Pattern: e.Pattern,
		Tier:    tier,
		Effect:  effect,
	}, nil
}

// Compile-time checks
var _ safety.RuleStore = (*YAMLStore)(nil)
var _ safety.WritableRuleStore = (*YAMLStore)(nil)
