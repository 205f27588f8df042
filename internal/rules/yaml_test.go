package rules_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tidy-go/internal/rules"
	"tidy-go/internal/safety"
)

func writeRuleFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "protected.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing rule file: %v", err)
	}
	return path
}

func TestYAMLStore_Rules(t *testing.T) {
	path := writeRuleFile(t, `
rules:
  - scope: files
    pattern: /etc/app/config.yaml
  - scope: directories
    pattern: /srv/data/**
    effect: protect
  - scope: packages
    pattern: curl
    effect: allow
`)
	store := rules.NewYAMLStore(path, safety.TierUser)

	got, err := store.Rules()
	if err != nil {
		t.Fatalf("Rules: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d rules, want 3", len(got))
	}

	// Omitted effect defaults to protect, and every rule carries the
	// store's tier.
	if got[0].Effect != safety.EffectProtect {
		t.Errorf("rule 1 effect = %s, want protect", got[0].Effect)
	}
	for i, rule := range got {
		if rule.Tier != safety.TierUser {
			t.Errorf("rule %d tier = %s, want user", i+1, rule.Tier)
		}
	}
	if got[2].Scope != safety.ScopePackages || got[2].Effect != safety.EffectAllow {
		t.Errorf("rule 3 = %+v, want packages/curl allow", got[2])
	}
}

func TestYAMLStore_MissingFileIsEmpty(t *testing.T) {
	store := rules.NewYAMLStore(filepath.Join(t.TempDir(), "nope.yaml"), safety.TierSystem)

	got, err := store.Rules()
	if err != nil {
		t.Fatalf("Rules: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d rules from a missing file, want 0", len(got))
	}
}

func TestYAMLStore_RejectsBadEntries(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown scope",
			content: "rules:\n  - scope: sockets\n    pattern: /run/app.sock\n",
			wantErr: "unknown scope",
		},
		{
			name:    "unknown effect",
			content: "rules:\n  - scope: files\n    pattern: /tmp/x\n    effect: audit\n",
			wantErr: "unknown effect",
		},
		{
			name:    "malformed yaml",
			content: "rules: [scope: {{",
			wantErr: "parsing rule file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := rules.NewYAMLStore(writeRuleFile(t, tt.content), safety.TierUser)
			_, err := store.Rules()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Rules() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestYAMLStore_Add(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules", "protected.yaml")
	store := rules.NewYAMLStore(path, safety.TierUser)

	rule := safety.ProtectionRule{Scope: safety.ScopeFiles, Pattern: "/home/me/notes.txt"}
	if err := store.Add(rule); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := store.Rules()
	if err != nil {
		t.Fatalf("Rules: %v", err)
	}
	if len(got) != 1 || got[0].Pattern != "/home/me/notes.txt" {
		t.Fatalf("Rules = %+v, want the added rule", got)
	}
	if got[0].Effect != safety.EffectProtect {
		t.Errorf("effect = %s, want protect by default", got[0].Effect)
	}

	// Same scope+pattern again is a duplicate.
	if err := store.Add(rule); err == nil {
		t.Error("expected duplicate error")
	}
	// Same pattern under another scope is not.
	if err := store.Add(safety.ProtectionRule{Scope: safety.ScopeDirectories, Pattern: "/home/me/notes.txt"}); err != nil {
		t.Errorf("Add with different scope: %v", err)
	}
}

func TestYAMLStore_AddValidates(t *testing.T) {
	store := rules.NewYAMLStore(filepath.Join(t.TempDir(), "protected.yaml"), safety.TierUser)

	if err := store.Add(safety.ProtectionRule{Scope: "sockets", Pattern: "/run/x"}); err == nil {
		t.Error("expected error for unknown scope")
	}
	if err := store.Add(safety.ProtectionRule{Scope: safety.ScopeFiles}); err == nil {
		t.Error("expected error for empty pattern")
	}
}

func TestYAMLStore_Remove(t *testing.T) {
	path := writeRuleFile(t, `
rules:
  - scope: files
    pattern: /tmp/a
  - scope: files
    pattern: /tmp/b
`)
	store := rules.NewYAMLStore(path, safety.TierUser)

	removed, err := store.Remove(safety.ScopeFiles, "/tmp/a")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Error("Remove reported false for an existing rule")
	}

	got, _ := store.Rules()
	if len(got) != 1 || got[0].Pattern != "/tmp/b" {
		t.Errorf("Rules after remove = %+v, want only /tmp/b", got)
	}

	removed, err = store.Remove(safety.ScopeFiles, "/tmp/a")
	if err != nil {
		t.Fatalf("second Remove: %v", err)
	}
	if removed {
		t.Error("Remove reported true for a missing rule")
	}
}
