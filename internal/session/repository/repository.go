package repository

import (
	"context"
	"time"

	"food-rescue-platform/backend/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	Create(ctx context.Context, s *domain.Session) error
	// GetActiveByRefreshValue returns the non-revoked, non-expired session
	// whose stored refresh value equals hash or raw (the raw arm matches
	// legacy rows that predate hashed storage), or nil when none matches.
	GetActiveByRefreshValue(ctx context.Context, hash, raw string) (*domain.Session, error)
	// RotateTokens replaces the session's token hashes and expiries in
	// place, but only while the stored refresh value still equals
	// prevRefreshValue. Returns false when a concurrent rotation already
	// replaced it; the row is then left untouched.
	RotateTokens(ctx context.Context, sessionID, prevRefreshValue, accessHash, refreshHash string, accessExp, refreshExp time.Time) (bool, error)
	// FindActiveByAccessValue returns the non-revoked, non-expired session
	// whose stored access value equals hash or raw and for which no
	// revocation tombstone exists for hash or jti. Nil when none matches.
	FindActiveByAccessValue(ctx context.Context, hash, raw, jti string) (*domain.Session, error)
	// RevokeByAccessValue flips the matching non-revoked session to revoked
	// and returns it, or nil when no row matched (already revoked or
	// unknown). A legacy raw access value is rewritten to hash in the same
	// statement.
	RevokeByAccessValue(ctx context.Context, hash, raw string) (*domain.Session, error)
	// RevokeAllByActor revokes every non-revoked session of the actor in a
	// single statement and returns the affected tokens for tombstoning.
	RevokeAllByActor(ctx context.Context, actorID int64) ([]domain.RevokedToken, error)
	GetByIDAndActor(ctx context.Context, id string, actorID int64) (*domain.Session, error)
	RevokeByID(ctx context.Context, id string) error
	ListActiveByActor(ctx context.Context, actorID int64) ([]*domain.Session, error)
	// UpgradeAccessHash rewrites a legacy raw access value to its hash
	// (migration-on-read).
	UpgradeAccessHash(ctx context.Context, sessionID, hash string) error
}
