package safety_test

import (
	"strings"
	"testing"

	"tidy-go/internal/safety"
)

func TestOperationStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from safety.OperationStatus
		to   safety.OperationStatus
		want bool
	}{
		{safety.StatusPending, safety.StatusCompleted, true},
		{safety.StatusPending, safety.StatusFailed, true},
		{safety.StatusPending, safety.StatusUndone, false},
		{safety.StatusCompleted, safety.StatusUndone, true},
		{safety.StatusCompleted, safety.StatusPending, false},
		{safety.StatusFailed, safety.StatusCompleted, false},
		{safety.StatusFailed, safety.StatusUndone, false},
		{safety.StatusUndone, safety.StatusCompleted, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestOperationType(t *testing.T) {
	t.Run("target kinds", func(t *testing.T) {
		kinds := map[safety.OperationType]safety.TargetKind{
			safety.OpFileDelete:      safety.KindFile,
			safety.OpFileModify:      safety.KindFile,
			safety.OpDirectoryCreate: safety.KindDirectory,
			safety.OpServiceStop:     safety.KindService,
			safety.OpPackageRemove:   safety.KindPackage,
		}
		for opType, want := range kinds {
			if got := opType.TargetKind(); got != want {
				t.Errorf("%s.TargetKind() = %s, want %s", opType, got, want)
			}
		}
	})

	t.Run("only directory create reverses without a snapshot", func(t *testing.T) {
		for _, opType := range safety.OperationTypes {
			want := opType != safety.OpDirectoryCreate
			if got := opType.NeedsSnapshot(); got != want {
				t.Errorf("%s.NeedsSnapshot() = %v, want %v", opType, got, want)
			}
		}
	})

	t.Run("validity", func(t *testing.T) {
		if safety.OperationType("defragment").Valid() {
			t.Error("unknown type reported valid")
		}
		for _, opType := range safety.OperationTypes {
			if !opType.Valid() {
				t.Errorf("%s reported invalid", opType)
			}
		}
	})
}

func TestOperationIDGenerator(t *testing.T) {
	gen := safety.OperationIDGenerator{}

	a := gen.New()
	b := gen.New()
	if a == b {
		t.Errorf("consecutive IDs collide: %s", a)
	}
	// <utc-stamp>-<pid>-<uuid8>
	if parts := strings.Split(a, "-"); len(parts) != 3 || len(parts[2]) != 8 {
		t.Errorf("ID %q does not have the stamp-pid-suffix shape", a)
	}
}

func TestLevelByName(t *testing.T) {
	t.Run("resolves canonical names", func(t *testing.T) {
		for _, name := range []string{"conservative", "standard", "aggressive"} {
			level, err := safety.LevelByName(name)
			if err != nil {
				t.Fatalf("LevelByName(%s) error = %v", name, err)
			}
			if level.Name != name {
				t.Errorf("level name = %s, want %s", level.Name, name)
			}
		}
	})

	t.Run("empty name means standard", func(t *testing.T) {
		level, err := safety.LevelByName("")
		if err != nil {
			t.Fatalf("LevelByName(\"\") error = %v", err)
		}
		if level.Name != "standard" {
			t.Errorf("default level = %s, want standard", level.Name)
		}
	})

	t.Run("unknown name errors", func(t *testing.T) {
		if _, err := safety.LevelByName("reckless"); err == nil {
			t.Error("LevelByName(reckless) expected error")
		}
	})
}
