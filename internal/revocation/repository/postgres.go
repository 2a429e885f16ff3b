package repository

import (
	"context"
	"database/sql"

	"food-rescue-platform/backend/internal/revocation/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a tombstone repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert records the tombstone, updating metadata on conflict.
func (r *PostgresRepository) Upsert(ctx context.Context, t *domain.Tombstone) error {
	var revokedBy sql.NullInt64
	if t.RevokedBy != nil {
		revokedBy = sql.NullInt64{Int64: *t.RevokedBy, Valid: true}
	}
	var originalExpiry sql.NullTime
	if t.OriginalExpiry != nil {
		originalExpiry = sql.NullTime{Time: *t.OriginalExpiry, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO revoked_tokens (token_hash, revoked_by, reason, original_expiry)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (token_hash) DO UPDATE
		   SET revoked_by = EXCLUDED.revoked_by,
		       reason = EXCLUDED.reason,
		       original_expiry = EXCLUDED.original_expiry,
		       revoked_at = NOW()`,
		t.TokenHash, revokedBy, t.Reason, originalExpiry)
	return err
}
