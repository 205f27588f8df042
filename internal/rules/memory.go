package rules

import (
	"fmt"
	"sync"

	"tidy-go/internal/safety"
)

// MemoryStore is an in-memory rule store for testing.
type MemoryStore struct {
	mu    sync.RWMutex
	tier  safety.RuleTier
	rules []safety.ProtectionRule
}

// NewMemoryStore creates an empty in-memory store for the given tier,
// seeded with the given rules.
func NewMemoryStore(tier safety.RuleTier, seed ...safety.ProtectionRule) *MemoryStore {
	s := &MemoryStore{tier: tier}
	for _, rule := range seed {
		rule.Tier = tier
		s.rules = append(s.rules, rule)
	}
	return s
}

func (s *MemoryStore) Rules() ([]safety.ProtectionRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]safety.ProtectionRule, len(s.rules))
	copy(out, s.rules)
	return out, nil
}

func (s *MemoryStore) Add(rule safety.ProtectionRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rules {
		if existing.Scope == rule.Scope && existing.Pattern == rule.Pattern {
			return fmt.Errorf("rule %s:%s already exists", rule.Scope, rule.Pattern)
		}
	}
	rule.Tier = s.tier
	if rule.Effect == "" {
		rule.Effect = safety.EffectProtect
	}
	s.rules = append(s.rules, rule)
	return nil
}

func (s *MemoryStore) Remove(scope safety.RuleScope, pattern string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rules[:0]
	removed := false
	for _, rule := range s.rules {
		if rule.Scope == scope && rule.Pattern == pattern {
			removed = true
			continue
		}
		kept = append(kept, rule)
	}
	s.rules = kept
	return removed, nil
}

// Compile-time checks
var _ safety.RuleStore = (*MemoryStore)(nil)
var _ safety.WritableRuleStore = (*MemoryStore)(nil)
