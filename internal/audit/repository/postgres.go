package repository

import (
	"context"
	"database/sql"
	"errors"

	"food-rescue-platform/backend/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the audit log for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, actor_id, action, resource, ip, metadata, created_at
		 FROM audit_logs WHERE id = $1`, id)
	a, err := scanAuditLog(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// ListByActor returns audit logs for the given actor, newest first, paginated by limit and offset.
func (r *PostgresRepository) ListByActor(ctx context.Context, actorID int64, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, actor_id, action, resource, ip, metadata, created_at
		 FROM audit_logs WHERE actor_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, actorID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.AuditLog
	for rows.Next() {
		a, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create persists the audit log. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	actorID := sql.NullInt64{Int64: a.ActorID, Valid: a.ActorID != 0}
	meta := sql.NullString{String: a.Metadata, Valid: a.Metadata != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, actor_id, action, resource, ip, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, actorID, a.Action, a.Resource, a.IP, meta, a.CreatedAt)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAuditLog(s scanner) (*domain.AuditLog, error) {
	var a domain.AuditLog
	var actorID sql.NullInt64
	var meta sql.NullString
	if err := s.Scan(&a.ID, &actorID, &a.Action, &a.Resource, &a.IP, &meta, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.ActorID = actorID.Int64
	a.Metadata = meta.String
	return &a, nil
}
