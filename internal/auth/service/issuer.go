package service

import (
	"context"
	"strconv"
	"time"

	actordomain "food-rescue-platform/backend/internal/actor/domain"
	"food-rescue-platform/backend/internal/security"
	sysparamrepo "food-rescue-platform/backend/internal/sysparam/repository"
)

// System parameter keys for token lifetimes, in seconds.
const (
	accessTTLKey  = "jwt_access_token_ttl"
	refreshTTLKey = "jwt_refresh_token_ttl"

	defaultAccessTTL  = 3600 * time.Second
	defaultRefreshTTL = 604800 * time.Second
)

// IssuedTokens carries a freshly minted pair: plaintext values for the
// client, hashes and expiries for the session row.
type IssuedTokens struct {
	AccessToken      string
	RefreshToken     string
	AccessTokenHash  string
	RefreshTokenHash string
	JTI              string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenIssuer mints access/refresh pairs. TTLs are read from system
// parameters on every issue so operators can tune them without a restart.
type TokenIssuer struct {
	params sysparamrepo.Repository
	tokens *security.TokenProvider
}

// NewTokenIssuer returns a TokenIssuer reading TTLs from params and signing
// with tokens.
func NewTokenIssuer(params sysparamrepo.Repository, tokens *security.TokenProvider) *TokenIssuer {
	return &TokenIssuer{params: params, tokens: tokens}
}

// Issue mints a token pair for the actor. userType may be empty for roles
// without a secondary classification.
func (i *TokenIssuer) Issue(ctx context.Context, actor *actordomain.Actor, userType string) (*IssuedTokens, error) {
	accessTTL, err := i.ttl(ctx, accessTTLKey, defaultAccessTTL)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := i.ttl(ctx, refreshTTLKey, defaultRefreshTTL)
	if err != nil {
		return nil, err
	}
	access, jti, accessExp, err := i.tokens.IssueAccess(actor.ID, actor.Email, actor.Name, actor.Surname, actor.Role, userType, accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := security.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	return &IssuedTokens{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessTokenHash:  security.HashToken(access),
		RefreshTokenHash: security.HashToken(refresh),
		JTI:              jti,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: time.Now().UTC().Add(refreshTTL),
	}, nil
}

// ttl reads one lifetime parameter. Missing or unparsable values fall back
// to the built-in default rather than failing issuance.
func (i *TokenIssuer) ttl(ctx context.Context, key string, fallback time.Duration) (time.Duration, error) {
	raw, err := i.params.Get(ctx, key, "")
	if err != nil {
		return 0, err
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return fallback, nil
	}
	return time.Duration(secs) * time.Second, nil
}
