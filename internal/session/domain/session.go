package domain

import "time"

// Session is a persisted record of one login or registration. Rotation
// replaces the hash/expiry fields of the same row; the row is never
// deleted, only flipped to revoked, so it remains for audit and
// session listing.
type Session struct {
	ID               string // UUID
	ActorID          int64
	AccessTokenHash  string // SHA-256 hex; legacy rows may still hold a raw token value
	RefreshTokenHash string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	DeviceInfo       string
	IPAddress        string
	CreatedAt        time.Time
	Revoked          bool
	RevokedAt        *time.Time // nil when not revoked
}

// RevokedToken identifies one token invalidated by a bulk revocation,
// carrying what the tombstone upsert needs.
type RevokedToken struct {
	SessionID       string
	AccessTokenHash string
	AccessExpiresAt time.Time
}
