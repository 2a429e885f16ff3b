package lockout

import (
	"context"
	"strings"
	"time"
)

// Store tracks failed login attempts per key and enforces temporary lockouts.
// Keys combine the normalized login email and the client IP so that one
// attacker cannot lock out an account for everyone.
type Store interface {
	// CheckLocked reports whether key is currently locked out and, if so,
	// how long until the lockout expires.
	CheckLocked(ctx context.Context, key string) (bool, time.Duration, error)
	// RecordFailure registers a failed attempt for key. It returns the lockout
	// deadline when the key is (or just became) locked, and the zero time
	// otherwise. Attempts against an already locked key do not extend it.
	RecordFailure(ctx context.Context, key string) (time.Time, error)
	// Clear drops all attempt state for key. Called after a successful login.
	Clear(ctx context.Context, key string) error
}

// Key builds the tracking key from the login identifier and client IP.
func Key(email, ip string) string {
	return strings.ToLower(strings.TrimSpace(email)) + "|" + ip
}

// attemptMemory returns how long failed attempts are remembered. It is at
// least ten minutes so slow guessing still accumulates toward a lockout.
func attemptMemory(lockout time.Duration) time.Duration {
	const min = 10 * time.Minute
	if lockout > min {
		return lockout
	}
	return min
}
