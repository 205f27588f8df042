package rules

import (
	"tidy-go/internal/config"
	"tidy-go/internal/safety"
)

// NewStoresFromConfig creates the system and user rule stores from config.
// The system store is read-only through this program; only the user store
// is editable via the CLI.
func NewStoresFromConfig(cfg config.RulesConfig) (safety.RuleStore, safety.WritableRuleStore) {
	system := NewYAMLStore(cfg.SystemPath, safety.TierSystem)
	user := NewYAMLStore(cfg.UserPath, safety.TierUser)
	return system, user
}
