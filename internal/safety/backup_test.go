package safety_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"tidy-go/internal/safety"
	"tidy-go/internal/snapstore"
	"tidy-go/internal/testutil"
)

func newBackupManager(enc safety.Encryptor) (*safety.BackupManager, *snapstore.MemoryStore, *testutil.MockFileSystem, *testutil.StubClock) {
	store := snapstore.NewMemoryStore()
	fs := testutil.NewMockFileSystem()
	services := testutil.NewMockServiceManager()
	packages := testutil.NewMockPackageManager()
	clock := testutil.FixedClock()
	m := safety.NewBackupManager(store, fs, services, packages, enc, safety.NewNopLogger(), clock)
	return m, store, fs, clock
}

func TestBackupManager_Snapshot(t *testing.T) {
	t.Run("file snapshot captures content and stat data", func(t *testing.T) {
		t.Parallel()
		m, store, fs, _ := newBackupManager(nil)
		file := fs.AddFile("/home/user/report.txt", []byte("quarterly numbers"))
		file.Mode = 0640
		file.UID = 1001

		ref, err := m.Snapshot("op-1", safety.OpFileDelete, "/home/user/report.txt")
		if err != nil {
			t.Fatalf("Snapshot() error = %v", err)
		}
		if ref != "op-1" {
			t.Errorf("backup ref = %q, want op-1", ref)
		}

		meta, err := store.GetMeta("op-1")
		if err != nil {
			t.Fatalf("GetMeta() error = %v", err)
		}
		if meta.Size != int64(len("quarterly numbers")) {
			t.Errorf("meta size = %d, want %d", meta.Size, len("quarterly numbers"))
		}
		if meta.UID != 1001 {
			t.Errorf("meta uid = %d, want 1001", meta.UID)
		}
		if meta.Encrypted {
			t.Error("plaintext snapshot marked encrypted")
		}

		var content bytes.Buffer
		if err := store.GetContent("op-1", &content); err != nil {
			t.Fatalf("GetContent() error = %v", err)
		}
		if content.String() != "quarterly numbers" {
			t.Errorf("content = %q, want original bytes", content.String())
		}
	})

	t.Run("missing file fails with backup error", func(t *testing.T) {
		t.Parallel()
		m, _, _, _ := newBackupManager(nil)

		_, err := m.Snapshot("op-1", safety.OpFileDelete, "/nope")
		if err == nil {
			t.Fatal("Snapshot() expected error for missing file")
		}
		if _, ok := err.(*safety.BackupError); !ok {
			t.Errorf("error type = %T, want *BackupError", err)
		}
	})

	t.Run("encrypted snapshot roundtrips through restore", func(t *testing.T) {
		t.Parallel()
		enc := testutil.NewTestEncryptor()
		m, store, fs, _ := newBackupManager(enc)
		fs.AddFile("/home/user/secret.txt", []byte("abc"))

		if _, err := m.Snapshot("op-1", safety.OpFileModify, "/home/user/secret.txt"); err != nil {
			t.Fatalf("Snapshot() error = %v", err)
		}

		meta, err := store.GetMeta("op-1")
		if err != nil {
			t.Fatalf("GetMeta() error = %v", err)
		}
		if !meta.Encrypted {
			t.Fatal("snapshot not marked encrypted")
		}

		// Stored bytes must differ from the plaintext.
		var stored bytes.Buffer
		if err := store.GetContent("op-1", &stored); err != nil {
			t.Fatalf("GetContent() error = %v", err)
		}
		if stored.String() == "abc" {
			t.Error("stored content equals plaintext")
		}

		// Restore without a decryption context must fail typed.
		fs.Files["/home/user/secret.txt"].Content = nil
		err = m.RestoreFile(meta, nil)
		var undoErr *safety.UndoError
		if !errors.As(err, &undoErr) || undoErr.Kind != safety.AdapterFailure {
			t.Fatalf("RestoreFile(nil dec) error = %v, want AdapterFailure", err)
		}

		dec, err := enc.Unlock("")
		if err != nil {
			t.Fatalf("Unlock() error = %v", err)
		}
		if err := m.RestoreFile(meta, dec); err != nil {
			t.Fatalf("RestoreFile() error = %v", err)
		}
		content, _ := fs.Content("/home/user/secret.txt")
		if string(content) != "abc" {
			t.Errorf("restored content = %q, want %q", content, "abc")
		}
	})

	t.Run("package snapshot records installed version", func(t *testing.T) {
		t.Parallel()
		m, store, _, _ := newBackupManager(nil)
		packages := testutil.NewMockPackageManager()
		packages.Installed["vim"] = "2:9.1-1"
		m = safety.NewBackupManager(store, testutil.NewMockFileSystem(),
			testutil.NewMockServiceManager(), packages, nil, safety.NewNopLogger(), testutil.FixedClock())

		if _, err := m.Snapshot("op-1", safety.OpPackageRemove, "vim"); err != nil {
			t.Fatalf("Snapshot() error = %v", err)
		}
		meta, _ := store.GetMeta("op-1")
		if meta.PriorState != "2:9.1-1" {
			t.Errorf("prior state = %q, want the installed version", meta.PriorState)
		}
	})
}

func TestBackupManager_Sweep(t *testing.T) {
	seed := func(t *testing.T, store *snapstore.MemoryStore, clock *testutil.StubClock, n int, gap time.Duration) {
		t.Helper()
		base := clock.Now().Add(-time.Duration(n) * gap)
		for i := 0; i < n; i++ {
			meta := &safety.SnapshotMeta{
				OperationID: opName(i),
				CreatedAt:   base.Add(time.Duration(i) * gap),
			}
			if err := store.PutMeta(meta.OperationID, meta); err != nil {
				t.Fatalf("PutMeta() error = %v", err)
			}
		}
	}

	t.Run("count bound keeps the newest", func(t *testing.T) {
		t.Parallel()
		m, store, _, clock := newBackupManager(nil)
		seed(t, store, clock, 5, time.Hour)

		removed, err := m.Sweep(0, 2)
		if err != nil {
			t.Fatalf("Sweep() error = %v", err)
		}
		if removed != 3 {
			t.Errorf("removed = %d, want 3", removed)
		}
		// Newest two survive.
		for _, id := range []string{opName(4), opName(3)} {
			if meta, _ := store.GetMeta(id); meta == nil {
				t.Errorf("newest snapshot %s was swept", id)
			}
		}
		if meta, _ := store.GetMeta(opName(0)); meta != nil {
			t.Error("oldest snapshot survived the count bound")
		}
	})

	t.Run("age bound sweeps old snapshots", func(t *testing.T) {
		t.Parallel()
		m, store, _, clock := newBackupManager(nil)
		seed(t, store, clock, 4, 24*time.Hour)

		removed, err := m.Sweep(48*time.Hour, 0)
		if err != nil {
			t.Fatalf("Sweep() error = %v", err)
		}
		if removed != 2 {
			t.Errorf("removed = %d, want 2", removed)
		}
	})

	t.Run("zero bounds disable the sweep", func(t *testing.T) {
		t.Parallel()
		m, store, _, clock := newBackupManager(nil)
		seed(t, store, clock, 3, time.Hour)

		removed, err := m.Sweep(0, 0)
		if err != nil {
			t.Fatalf("Sweep() error = %v", err)
		}
		if removed != 0 {
			t.Errorf("removed = %d, want 0", removed)
		}
	})
}

func opName(i int) string {
	return "op-seed-" + string(rune('a'+i))
}
