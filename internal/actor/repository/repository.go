package repository

import (
	"context"

	"food-rescue-platform/backend/internal/actor/domain"
)

// Repository is the narrow actor-directory interface this subsystem consumes.
// Credential verification reads actors; the only write outside registration
// is the last-login stamp.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*domain.Actor, error)
	GetByID(ctx context.Context, id int64) (*domain.Actor, error)
	// Create inserts the actor and, when userType is non-nil, the user-type
	// row and association, all inside one transaction. Fills a.ID.
	Create(ctx context.Context, a *domain.Actor, userType *domain.UserType) error
	TouchLastLogin(ctx context.Context, id int64) error
	// UpdatePassword replaces the actor's stored password hash.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	// UserTypeFor returns the secondary classification for the actor, or ""
	// when none is associated.
	UserTypeFor(ctx context.Context, actorID int64) (string, error)
	// PhoneFor returns the phone registered on the actor's user-type
	// association, or "" when none is on file.
	PhoneFor(ctx context.Context, actorID int64) (string, error)
}
