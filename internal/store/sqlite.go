package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ashfaaq98/case-board/internal/cases"
)

var (
	// ErrNotFound is returned when no case has the requested id.
	ErrNotFound = errors.New("case not found")
	// ErrDuplicate is returned when a case number is already taken.
	ErrDuplicate = errors.New("case number already exists")
)

// Store represents the SQLite storage implementation
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the database at dbPath and migrates it.
func NewStore(dbPath string) (*Store, error) {
	// Ensure target directory exists (e.g., ./data)
	if dir := filepath.Dir(dbPath); dbPath != ":memory:" && dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open(sqliteDriver, dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers anyway; one connection also keeps :memory:
	// databases from splitting across the pool.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS cases (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			case_number TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			description TEXT,
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			last_modified_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cases_status ON cases(status)`,
		`CREATE INDEX IF NOT EXISTS idx_cases_created_at ON cases(created_at)`,

		`CREATE TABLE IF NOT EXISTS audit_entries (
			id TEXT PRIMARY KEY,
			case_id INTEGER NOT NULL,
			action TEXT NOT NULL,
			actor TEXT NOT NULL,
			details TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_case_id ON audit_entries(case_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_entries(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	return nil
}

const caseColumns = `id, case_number, title, description, status, created_at, last_modified_at`

// CreateCase inserts a new case and returns it with its assigned id and timestamps.
func (s *Store) CreateCase(ctx context.Context, fields cases.Fields) (cases.Case, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO cases (case_number, title, description, status, created_at, last_modified_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		fields.CaseNumber, fields.Title, nullString(fields.Description), string(fields.Status),
		now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return cases.Case{}, fmt.Errorf("%w: %s", ErrDuplicate, fields.CaseNumber)
		}
		return cases.Case{}, fmt.Errorf("failed to save case: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return cases.Case{}, fmt.Errorf("failed to read case id: %w", err)
	}
	return s.GetCase(ctx, id)
}

// GetCase returns the case with the given id or ErrNotFound.
func (s *Store) GetCase(ctx context.Context, id int64) (cases.Case, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = ?`, id)
	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return cases.Case{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return cases.Case{}, fmt.Errorf("failed to get case %d: %w", id, err)
	}
	return c, nil
}

// ListCases returns all cases in creation order.
func (s *Store) ListCases(ctx context.Context) ([]cases.Case, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+caseColumns+` FROM cases ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases: %w", err)
	}
	defer rows.Close()

	result := []cases.Case{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating case rows: %w", err)
	}
	return result, nil
}

// UpdateCase replaces title, description and status of case id. The case
// number is never rewritten.
func (s *Store) UpdateCase(ctx context.Context, id int64, fields cases.Fields) (cases.Case, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cases SET title = ?, description = ?, status = ?, last_modified_at = ? WHERE id = ?`,
		fields.Title, nullString(fields.Description), string(fields.Status), time.Now().UTC().UnixMilli(), id,
	)
	if err != nil {
		return cases.Case{}, fmt.Errorf("failed to update case %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return cases.Case{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return s.GetCase(ctx, id)
}

// DeleteCase removes case id. Deleting a missing case returns ErrNotFound.
func (s *Store) DeleteCase(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete case %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete case %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCase(row scanner) (cases.Case, error) {
	var (
		c                     cases.Case
		description           sql.NullString
		status                string
		createdAt, modifiedAt int64
	)
	if err := row.Scan(&c.ID, &c.CaseNumber, &c.Title, &description, &status, &createdAt, &modifiedAt); err != nil {
		return cases.Case{}, err
	}
	if description.Valid {
		d := description.String
		c.Description = &d
	}
	c.Status = cases.Status(status)
	c.CreatedDateTime = time.UnixMilli(createdAt).UTC()
	c.LastModifiedDateTime = time.UnixMilli(modifiedAt).UTC()
	return c, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// isUniqueViolation matches the constraint message both SQLite drivers report.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
