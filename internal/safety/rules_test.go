package safety_test

import (
	"testing"

	"tidy-go/internal/rules"
	"tidy-go/internal/safety"
	"tidy-go/internal/testutil"
)

func newRuleEngine(system, user safety.RuleStore, fs *testutil.MockFileSystem) *safety.RuleEngine {
	services := testutil.NewMockServiceManager()
	services.Services["nginx"] = true
	services.Services["cron"] = false
	packages := testutil.NewMockPackageManager()
	packages.Installed["curl"] = "8.5.0-2"
	return safety.NewRuleEngine(system, user, fs, services, packages)
}

func TestRuleEngine_Validate(t *testing.T) {
	t.Run("unmatched existing file is allowed", func(t *testing.T) {
		t.Parallel()
		fs := testutil.NewMockFileSystem()
		fs.AddFile("/home/user/old.log", []byte("x"))
		eng := newRuleEngine(
			rules.NewMemoryStore(safety.TierSystem),
			rules.NewMemoryStore(safety.TierUser),
			fs,
		)

		verdicts, err := eng.Validate([]string{"/home/user/old.log"}, safety.OpFileDelete)
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if got := verdicts[0].Kind; got != safety.VerdictAllowed {
			t.Errorf("verdict = %s, want %s", got, safety.VerdictAllowed)
		}
	})

	t.Run("missing file is not found", func(t *testing.T) {
		t.Parallel()
		eng := newRuleEngine(
			rules.NewMemoryStore(safety.TierSystem),
			rules.NewMemoryStore(safety.TierUser),
			testutil.NewMockFileSystem(),
		)

		verdicts, err := eng.Validate([]string{"/home/user/gone.log"}, safety.OpFileDelete)
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if got := verdicts[0].Kind; got != safety.VerdictNotFound {
			t.Errorf("verdict = %s, want %s", got, safety.VerdictNotFound)
		}
	})

	t.Run("protect rule beats existence", func(t *testing.T) {
		t.Parallel()
		// The file does not exist, but a protected name must still report
		// protected, not not-found.
		user := rules.NewMemoryStore(safety.TierUser, safety.ProtectionRule{
			Scope:   safety.ScopeFiles,
			Pattern: "/home/user/secrets.env",
			Effect:  safety.EffectProtect,
		})
		eng := newRuleEngine(rules.NewMemoryStore(safety.TierSystem), user, testutil.NewMockFileSystem())

		verdicts, err := eng.Validate([]string{"/home/user/secrets.env"}, safety.OpFileDelete)
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if got := verdicts[0].Kind; got != safety.VerdictProtected {
			t.Errorf("verdict = %s, want %s", got, safety.VerdictProtected)
		}
		if verdicts[0].Builtin {
			t.Error("user rule protection reported as builtin")
		}
		if !verdicts[0].Overridable() {
			t.Error("user rule protection should be overridable")
		}
	})

	t.Run("system protect beats user allow", func(t *testing.T) {
		t.Parallel()
		fs := testutil.NewMockFileSystem()
		fs.AddFile("/var/data/app.db", []byte("x"))
		system := rules.NewMemoryStore(safety.TierSystem, safety.ProtectionRule{
			Scope:   safety.ScopeFiles,
			Pattern: "/var/data/*.db",
			Effect:  safety.EffectProtect,
		})
		user := rules.NewMemoryStore(safety.TierUser, safety.ProtectionRule{
			Scope:   safety.ScopeFiles,
			Pattern: "/var/data/app.db",
			Effect:  safety.EffectAllow,
		})
		eng := newRuleEngine(system, user, fs)

		verdicts, err := eng.Validate([]string{"/var/data/app.db"}, safety.OpFileDelete)
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if got := verdicts[0].Kind; got != safety.VerdictProtected {
			t.Errorf("verdict = %s, want %s", got, safety.VerdictProtected)
		}
	})

	t.Run("directory subtree pattern protects files beneath it", func(t *testing.T) {
		t.Parallel()
		fs := testutil.NewMockFileSystem()
		fs.AddFile("/home/user/projects/app/main.go", []byte("x"))
		user := rules.NewMemoryStore(safety.TierUser, safety.ProtectionRule{
			Scope:   safety.ScopeDirectories,
			Pattern: "/home/user/projects/**",
			Effect:  safety.EffectProtect,
		})
		eng := newRuleEngine(rules.NewMemoryStore(safety.TierSystem), user, fs)

		verdicts, err := eng.Validate([]string{"/home/user/projects/app/main.go"}, safety.OpFileDelete)
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if got := verdicts[0].Kind; got != safety.VerdictProtected {
			t.Errorf("verdict = %s, want %s", got, safety.VerdictProtected)
		}
	})

	t.Run("builtin critical path is protected and not overridable", func(t *testing.T) {
		t.Parallel()
		eng := newRuleEngine(
			rules.NewMemoryStore(safety.TierSystem),
			rules.NewMemoryStore(safety.TierUser),
			testutil.NewMockFileSystem(),
		)

		for _, target := range []string{"/etc", "/boot/grub/grub.cfg", "/usr"} {
			verdicts, err := eng.Validate([]string{target}, safety.OpFileDelete)
			if err != nil {
				t.Fatalf("Validate(%s) error = %v", target, err)
			}
			v := verdicts[0]
			if v.Kind != safety.VerdictProtected {
				t.Errorf("%s: verdict = %s, want %s", target, v.Kind, safety.VerdictProtected)
			}
			if !v.Builtin {
				t.Errorf("%s: critical protection not marked builtin", target)
			}
			if v.Overridable() {
				t.Errorf("%s: builtin protection must not be overridable", target)
			}
		}
	})

	t.Run("critical service protected with and without unit suffix", func(t *testing.T) {
		t.Parallel()
		eng := newRuleEngine(
			rules.NewMemoryStore(safety.TierSystem),
			rules.NewMemoryStore(safety.TierUser),
			testutil.NewMockFileSystem(),
		)

		for _, target := range []string{"ssh", "ssh.service"} {
			verdicts, err := eng.Validate([]string{target}, safety.OpServiceStop)
			if err != nil {
				t.Fatalf("Validate(%s) error = %v", target, err)
			}
			if !verdicts[0].Builtin {
				t.Errorf("%s: want builtin protection", target)
			}
		}
	})

	t.Run("service and package existence", func(t *testing.T) {
		t.Parallel()
		eng := newRuleEngine(
			rules.NewMemoryStore(safety.TierSystem),
			rules.NewMemoryStore(safety.TierUser),
			testutil.NewMockFileSystem(),
		)

		verdicts, err := eng.Validate([]string{"nginx", "ghost-svc"}, safety.OpServiceStop)
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if got := verdicts[0].Kind; got != safety.VerdictAllowed {
			t.Errorf("nginx verdict = %s, want %s", got, safety.VerdictAllowed)
		}
		if got := verdicts[1].Kind; got != safety.VerdictNotFound {
			t.Errorf("ghost-svc verdict = %s, want %s", got, safety.VerdictNotFound)
		}

		verdicts, err = eng.Validate([]string{"curl", "not-installed"}, safety.OpPackageRemove)
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if got := verdicts[0].Kind; got != safety.VerdictAllowed {
			t.Errorf("curl verdict = %s, want %s", got, safety.VerdictAllowed)
		}
		if got := verdicts[1].Kind; got != safety.VerdictNotFound {
			t.Errorf("not-installed verdict = %s, want %s", got, safety.VerdictNotFound)
		}
	})

	t.Run("directory create inverts existence", func(t *testing.T) {
		t.Parallel()
		fs := testutil.NewMockFileSystem()
		fs.AddDirectory("/home/user/existing")
		eng := newRuleEngine(
			rules.NewMemoryStore(safety.TierSystem),
			rules.NewMemoryStore(safety.TierUser),
			fs,
		)

		verdicts, err := eng.Validate(
			[]string{"/home/user/existing", "/home/user/new"},
			safety.OpDirectoryCreate,
		)
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if got := verdicts[0].Kind; got != safety.VerdictNotFound {
			t.Errorf("existing dir verdict = %s, want %s", got, safety.VerdictNotFound)
		}
		if got := verdicts[1].Kind; got != safety.VerdictAllowed {
			t.Errorf("new dir verdict = %s, want %s", got, safety.VerdictAllowed)
		}
	})
}
