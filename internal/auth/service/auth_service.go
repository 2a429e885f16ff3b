package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	actordomain "food-rescue-platform/backend/internal/actor/domain"
	actorrepo "food-rescue-platform/backend/internal/actor/repository"
	"food-rescue-platform/backend/internal/audit"
	"food-rescue-platform/backend/internal/auth/lockout"
	revocationdomain "food-rescue-platform/backend/internal/revocation/domain"
	revocationrepo "food-rescue-platform/backend/internal/revocation/repository"
	"food-rescue-platform/backend/internal/security"
	sessiondomain "food-rescue-platform/backend/internal/session/domain"
	sessionrepo "food-rescue-platform/backend/internal/session/repository"
)

// LoginResult is the outcome of Login or Register: the authenticated actor
// plus the first plaintext token pair of the new session.
type LoginResult struct {
	Actor        *actordomain.Actor
	UserType     string
	SessionID    string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// RefreshResult holds the rotated token pair.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// RegisterInput is the payload for Register. UserType is required when Role
// is "Utente" and ignored otherwise.
type RegisterInput struct {
	Email      string
	Password   string
	Name       string
	Surname    string
	Role       string
	UserType   *actordomain.UserType
	DeviceInfo string
	IP         string
}

// AuthService implements login with lockout, token rotation, logout with
// durable revocation, and session management.
type AuthService struct {
	actors   actorrepo.Repository
	sessions sessionrepo.Repository
	revoked  revocationrepo.Repository
	lockouts lockout.Store
	hasher   *security.Hasher
	tokens   *security.TokenProvider
	issuer   *TokenIssuer
	audit    audit.AuditLogger
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	actors actorrepo.Repository,
	sessions sessionrepo.Repository,
	revoked revocationrepo.Repository,
	lockouts lockout.Store,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	issuer *TokenIssuer,
	auditLogger audit.AuditLogger,
) *AuthService {
	return &AuthService{
		actors:   actors,
		sessions: sessions,
		revoked:  revoked,
		lockouts: lockouts,
		hasher:   hasher,
		tokens:   tokens,
		issuer:   issuer,
		audit:    auditLogger,
	}
}

// Login authenticates with email/password, creates a session, and returns
// the plaintext token pair. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password, deviceInfo, ip string) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	key := lockout.Key(email, ip)

	locked, wait, err := s.lockouts.CheckLocked(ctx, key)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, &RateLimitedError{RetryAfter: wait}
	}
	if email == "" || password == "" {
		return nil, s.loginFailure(ctx, key, email)
	}
	actor, err := s.actors.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.PasswordHash == "" {
		return nil, s.loginFailure(ctx, key, email)
	}
	if err := s.hasher.Compare(actor.PasswordHash, []byte(password)); err != nil {
		return nil, s.loginFailure(ctx, key, email)
	}
	if err := s.lockouts.Clear(ctx, key); err != nil {
		return nil, err
	}
	userType, err := s.userTypeFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	result, err := s.openSession(ctx, actor, userType, deviceInfo, ip)
	if err != nil {
		return nil, err
	}
	if err := s.actors.TouchLastLogin(ctx, actor.ID); err != nil {
		log.Printf("auth: failed to update last login for actor %d: %v", actor.ID, err)
	}
	s.audit.LogEvent(ctx, actor.ID, "login_success", "session", result.SessionID)
	return result, nil
}

// loginFailure records one failed attempt and returns the error the caller
// should surface: rate-limited when this attempt tripped the threshold,
// generic invalid credentials otherwise.
func (s *AuthService) loginFailure(ctx context.Context, key, email string) error {
	until, err := s.lockouts.RecordFailure(ctx, key)
	if err != nil {
		return err
	}
	s.audit.LogEvent(ctx, 0, "login_failure", "session", email)
	if !until.IsZero() {
		return &RateLimitedError{RetryAfter: time.Until(until)}
	}
	return ErrInvalidCredentials
}

// Refresh validates the refresh token, rotates the session's pair in place,
// and returns the new plaintext tokens. When a concurrent rotation already
// replaced the stored value, the call fails without issuing usable tokens.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	hash := security.HashToken(refreshToken)
	sess, err := s.sessions.GetActiveByRefreshValue(ctx, hash, refreshToken)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrInvalidRefreshToken
	}
	actor, err := s.actors.GetByID(ctx, sess.ActorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, ErrInvalidRefreshToken
	}
	userType, err := s.userTypeFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	issued, err := s.issuer.Issue(ctx, actor, userType)
	if err != nil {
		return nil, err
	}
	// The update is keyed on the refresh value we just validated, so of two
	// concurrent rotations exactly one wins; the loser sees zero rows.
	rotated, err := s.sessions.RotateTokens(ctx, sess.ID, sess.RefreshTokenHash,
		issued.AccessTokenHash, issued.RefreshTokenHash,
		issued.AccessExpiresAt, issued.RefreshExpiresAt)
	if err != nil {
		return nil, err
	}
	if !rotated {
		return nil, ErrInvalidRefreshToken
	}
	s.audit.LogEvent(ctx, actor.ID, "token_refresh", "session", sess.ID)
	return &RefreshResult{
		AccessToken:  issued.AccessToken,
		RefreshToken: issued.RefreshToken,
		ExpiresAt:    issued.AccessExpiresAt,
	}, nil
}

// Logout revokes the session matching the access token and records a
// revocation tombstone. Replaying an already revoked token still succeeds;
// the tombstone upsert keeps exactly one row per hash.
func (s *AuthService) Logout(ctx context.Context, accessToken string, actorID int64) error {
	if accessToken == "" {
		return nil
	}
	hash := security.HashToken(accessToken)
	sess, err := s.sessions.RevokeByAccessValue(ctx, hash, accessToken)
	if err != nil {
		return err
	}
	var originalExpiry *time.Time
	if sess != nil {
		exp := sess.AccessExpiresAt
		originalExpiry = &exp
	} else if claims := s.tokens.DecodeUnverified(accessToken); claims != nil && claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		originalExpiry = &exp
	}
	t := &revocationdomain.Tombstone{
		TokenHash:      hash,
		RevokedBy:      &actorID,
		Reason:         revocationdomain.ReasonLogout,
		OriginalExpiry: originalExpiry,
	}
	if err := s.revoked.Upsert(ctx, t); err != nil {
		return err
	}
	s.audit.LogEvent(ctx, actorID, "logout", "session", "")
	return nil
}

// LogoutAll revokes every active session of the actor in one statement and
// tombstones each revoked token. Returns the number of sessions revoked.
func (s *AuthService) LogoutAll(ctx context.Context, actorID int64) (int, error) {
	tokens, err := s.sessions.RevokeAllByActor(ctx, actorID)
	if err != nil {
		return 0, err
	}
	for _, rt := range tokens {
		exp := rt.AccessExpiresAt
		t := &revocationdomain.Tombstone{
			TokenHash:      tombstoneHash(rt.AccessTokenHash),
			RevokedBy:      &actorID,
			Reason:         revocationdomain.ReasonLogoutAll,
			OriginalExpiry: &exp,
		}
		if err := s.revoked.Upsert(ctx, t); err != nil {
			return 0, err
		}
	}
	s.audit.LogEvent(ctx, actorID, "logout_all", "session", fmt.Sprintf("%d", len(tokens)))
	return len(tokens), nil
}

// RevokeSession revokes one session by id, but only when it belongs to the
// calling actor.
func (s *AuthService) RevokeSession(ctx context.Context, sessionID string, actorID int64) error {
	sess, err := s.sessions.GetByIDAndActor(ctx, sessionID, actorID)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrSessionNotFound
	}
	if err := s.sessions.RevokeByID(ctx, sess.ID); err != nil {
		return err
	}
	exp := sess.AccessExpiresAt
	t := &revocationdomain.Tombstone{
		TokenHash:      tombstoneHash(sess.AccessTokenHash),
		RevokedBy:      &actorID,
		Reason:         revocationdomain.ReasonRevokeSession,
		OriginalExpiry: &exp,
	}
	if err := s.revoked.Upsert(ctx, t); err != nil {
		return err
	}
	s.audit.LogEvent(ctx, actorID, "revoke_session", "session", sess.ID)
	return nil
}

// ActiveSessions lists the actor's non-revoked sessions with unexpired
// refresh tokens, newest first.
func (s *AuthService) ActiveSessions(ctx context.Context, actorID int64) ([]*sessiondomain.Session, error) {
	return s.sessions.ListActiveByActor(ctx, actorID)
}

// Register creates an actor and opens its first session.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*LoginResult, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(in.Password)) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = actordomain.RoleUser
	}
	if !validRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	var userType *actordomain.UserType
	userTypeValue := ""
	if role == actordomain.RoleUser {
		if in.UserType == nil || !validUserType(in.UserType.Type) {
			return nil, fmt.Errorf("%w: user type is required for role %q", ErrInvalidInput, role)
		}
		userType = in.UserType
		userTypeValue = in.UserType.Type
	}
	existing, err := s.actors.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash([]byte(in.Password))
	if err != nil {
		return nil, err
	}
	actor := &actordomain.Actor{
		Email:        email,
		PasswordHash: hashed,
		Name:         strings.TrimSpace(in.Name),
		Surname:      strings.TrimSpace(in.Surname),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.actors.Create(ctx, actor, userType); err != nil {
		return nil, err
	}
	result, err := s.openSession(ctx, actor, userTypeValue, in.DeviceInfo, in.IP)
	if err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, actor.ID, "register", "actor", email)
	return result, nil
}

// openSession issues a token pair and persists the session row.
func (s *AuthService) openSession(ctx context.Context, actor *actordomain.Actor, userType, deviceInfo, ip string) (*LoginResult, error) {
	issued, err := s.issuer.Issue(ctx, actor, userType)
	if err != nil {
		return nil, err
	}
	sess := &sessiondomain.Session{
		ID:               uuid.New().String(),
		ActorID:          actor.ID,
		AccessTokenHash:  issued.AccessTokenHash,
		RefreshTokenHash: issued.RefreshTokenHash,
		AccessExpiresAt:  issued.AccessExpiresAt,
		RefreshExpiresAt: issued.RefreshExpiresAt,
		DeviceInfo:       deviceInfo,
		IPAddress:        ip,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	return &LoginResult{
		Actor:        actor,
		UserType:     userType,
		SessionID:    sess.ID,
		AccessToken:  issued.AccessToken,
		RefreshToken: issued.RefreshToken,
		ExpiresAt:    issued.AccessExpiresAt,
	}, nil
}

// userTypeFor re-derives the secondary classification from the directory.
// Only role Utente carries one.
func (s *AuthService) userTypeFor(ctx context.Context, actor *actordomain.Actor) (string, error) {
	if actor.Role != actordomain.RoleUser {
		return "", nil
	}
	return s.actors.UserTypeFor(ctx, actor.ID)
}

// tombstoneHash normalizes a stored access value for the tombstone table.
// Legacy rows hold the raw token, which must be hashed so the middleware's
// hash lookup still hits it.
func tombstoneHash(storedValue string) string {
	if security.IsTokenHash(storedValue) {
		return storedValue
	}
	return security.HashToken(storedValue)
}

func validRole(role string) bool {
	for _, r := range actordomain.ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

func validUserType(t string) bool {
	for _, v := range actordomain.ValidUserTypes {
		if v == t {
			return true
		}
	}
	return false
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	return nil
}
