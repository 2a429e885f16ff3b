package domain

import "time"

// Revocation reasons written to tombstones.
const (
	ReasonLogout        = "Logout attore"
	ReasonLogoutAll     = "Logout da tutti i dispositivi"
	ReasonRevokeSession = "Revoca sessione"
	ReasonPasswordReset = "Reset password"
)

// Tombstone is a durable revocation record keyed by token hash. It is
// consulted independently of the session row's own revoked flag: a hash
// present here must never authenticate, even if the flag were inconsistent.
type Tombstone struct {
	TokenHash      string
	RevokedBy      *int64 // actor id, nil when unknown
	Reason         string
	OriginalExpiry *time.Time
	RevokedAt      time.Time
}
