package repository

import (
	"context"

	"food-rescue-platform/backend/internal/revocation/domain"
)

// Repository defines persistence for revocation tombstones. Reads happen
// through the session lookup's NOT EXISTS subquery, so the interface only
// carries the write side.
type Repository interface {
	// Upsert records the tombstone. Revoking the same hash twice updates
	// the metadata instead of failing, so revocation is safe to retry.
	Upsert(ctx context.Context, t *domain.Tombstone) error
}
