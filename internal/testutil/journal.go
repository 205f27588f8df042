package testutil

import (
	"path/filepath"
	"testing"

	"tidy-go/internal/journal"
	"tidy-go/internal/safety"
)

// NewTestJournal creates a SQLite journal in a test temp directory with the
// schema applied. The journal is closed when the test completes.
func NewTestJournal(t *testing.T) safety.Journal {
	t.Helper()

	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := journal.NewSQLiteJournal(path)
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}

	t.Cleanup(func() {
		j.Close()
	})

	return j
}
