package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"optovik-store/models"
)

// AuditLogRepository stores admin actions
type AuditLogRepository struct {
	db *sql.DB
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db *sql.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Ensure AuditLogRepository implements AuditLogRepositoryInterface
var _ AuditLogRepositoryInterface = (*AuditLogRepository)(nil)

// Append inserts an entry and fills in its id and timestamp
func (r *AuditLogRepository) Append(ctx context.Context, entry *models.AuditLogEntry) error {
	query := `
		INSERT INTO audit_logs (actor, action, target_ref, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRowContext(ctx, query, entry.Actor, entry.Action, entry.TargetRef, nullString(entry.Details)).
		Scan(&entry.ID, &createdAt); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	entry.CreatedAt = formatTime(createdAt)
	return nil
}

// List returns entries newest first
func (r *AuditLogRepository) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogEntry, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT id, actor, action, target_ref, COALESCE(details, ''), created_at FROM audit_logs`
	args := []interface{}{}
	if filter.Action != "" {
		query += " WHERE action = $1"
		args = append(args, filter.Action)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	entries := []models.AuditLogEntry{}
	for rows.Next() {
		var e models.AuditLogEntry
		var createdAt time.Time
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.TargetRef, &e.Details, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		e.CreatedAt = formatTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
