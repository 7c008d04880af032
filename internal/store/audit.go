package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded by the backend.
const (
	ActionCreateCase = "create_case"
	ActionUpdateCase = "update_case"
	ActionDeleteCase = "delete_case"
)

// AuditEntry records one change made to a case. Entries outlive the case.
type AuditEntry struct {
	ID        string                 `json:"id" yaml:"id"`
	CaseID    int64                  `json:"case_id" yaml:"case_id"`
	Action    string                 `json:"action" yaml:"action"`
	Actor     string                 `json:"actor" yaml:"actor"`
	Details   map[string]interface{} `json:"details" yaml:"details"`
	CreatedAt time.Time              `json:"created_at" yaml:"created_at"`
}

// LogAction appends an audit entry.
func (s *Store) LogAction(ctx context.Context, entry AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Actor == "" {
		entry.Actor = "system"
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Details == nil {
		entry.Details = map[string]interface{}{}
	}

	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_entries (id, case_id, action, actor, details, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.CaseID, entry.Action, entry.Actor, string(details), entry.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save audit entry: %w", err)
	}
	return nil
}

// GetAuditEntries returns entries for a case, newest first. limit <= 0 means all.
func (s *Store) GetAuditEntries(ctx context.Context, caseID int64, limit int) ([]AuditEntry, error) {
	query := `SELECT id, case_id, action, actor, details, created_at
		FROM audit_entries WHERE case_id = ? ORDER BY created_at DESC, rowid DESC`
	args := []interface{}{caseID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries for case %d: %w", caseID, err)
	}
	defer rows.Close()

	var result []AuditEntry
	for rows.Next() {
		var (
			e         AuditEntry
			details   string
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.CaseID, &e.Action, &e.Actor, &details, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Details = make(map[string]interface{})
		if err := json.Unmarshal([]byte(details), &e.Details); err != nil {
			// Keep the entry readable even if its details are corrupt.
			e.Details = map[string]interface{}{"_error": "failed to unmarshal audit details"}
		}
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows: %w", err)
	}
	return result, nil
}
