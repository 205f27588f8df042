package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tidy-go/internal/journal/migrations"
	"tidy-go/internal/safety"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteJournal implements safety.Journal on a SQLite database. Every write
// is committed before the method returns, so a workflow interrupted between
// targets leaves its Pending records visible to the next invocation.
type SQLiteJournal struct {
	db   *sql.DB
	path string
}

// NewSQLiteJournal opens (and migrates, for new databases) a journal at
// path. path can be ":memory:" for tests.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	j := &SQLiteJournal{db: db, path: path}
	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating journal: %w", err)
	}
	return j, nil
}

// OpenConnection opens and configures a SQLite connection with the PRAGMAs
// the journal needs. Exported for tools and tests.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}

	// WAL plus a busy timeout so concurrent process instances block briefly
	// instead of failing on a locked database.
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configuring journal database: %w", err)
		}
	}
	return db, nil
}

// CheckMigrations verifies the schema is current without migrating.
func (j *SQLiteJournal) CheckMigrations() error {
	return migrations.Check(j.db)
}

func (j *SQLiteJournal) Record(op *safety.Operation) error {
	if op.ID == "" {
		return fmt.Errorf("operation has no id")
	}
	_, err := j.db.Exec(`
		INSERT INTO operations (id, type, target, description, status, backup_ref, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		op.ID, string(op.Type), op.Target, op.Description, string(op.Status),
		op.BackupRef, op.Error, op.CreatedAt, op.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting operation %s: %w", op.ID, err)
	}
	return nil
}

func (j *SQLiteJournal) UpdateStatus(id string, status safety.OperationStatus, errMsg string) error {
	current, err := j.Get(id)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("no such operation: %s", id)
	}
	if !current.Status.CanTransition(status) {
		return fmt.Errorf("operation %s: illegal status transition %s -> %s", id, current.Status, status)
	}

	// The WHERE clause re-checks the prior status so a concurrent writer
	// cannot regress a record between the read above and this update.
	res, err := j.db.Exec(`
		UPDATE operations SET status = ?, error = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(status), errMsg, time.Now(), id, string(current.Status),
	)
	if err != nil {
		return fmt.Errorf("updating operation %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating operation %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("operation %s changed concurrently; status not updated", id)
	}
	return nil
}

func (j *SQLiteJournal) Get(id string) (*safety.Operation, error) {
	row := j.db.QueryRow(`
		SELECT id, type, target, description, status, backup_ref, error, created_at, updated_at
		FROM operations WHERE id = ?`, id)

	op, err := scanOperation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading operation %s: %w", id, err)
	}
	return op, nil
}

func (j *SQLiteJournal) List(limit int) ([]*safety.Operation, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := j.db.Query(`
		SELECT id, type, target, description, status, backup_ref, error, created_at, updated_at
		FROM operations ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*safety.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

func (j *SQLiteJournal) Trim(maxCount int) (int, error) {
	res, err := j.db.Exec(`
		DELETE FROM operations WHERE id NOT IN (
			SELECT id FROM operations ORDER BY created_at DESC, id DESC LIMIT ?
		)`, maxCount)
	if err != nil {
		return 0, fmt.Errorf("trimming journal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("trimming journal: %w", err)
	}
	return int(n), nil
}

func (j *SQLiteJournal) Purge(cutoff time.Time) (int, error) {
	res, err := j.db.Exec(`DELETE FROM operations WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging journal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purging journal: %w", err)
	}
	return int(n), nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanOperation(s scanner) (*safety.Operation, error) {
	var op safety.Operation
	var opType, status string
	if err := s.Scan(&op.ID, &opType, &op.Target, &op.Description, &status,
		&op.BackupRef, &op.Error, &op.CreatedAt, &op.UpdatedAt); err != nil {
		return nil, err
	}
	op.Type = safety.OperationType(opType)
	op.Status = safety.OperationStatus(status)
	return &op, nil
}

// Compile-time check
var _ safety.Journal = (*SQLiteJournal)(nil)
