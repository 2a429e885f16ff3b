package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed or its signature is invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when a token is well-formed and correctly
	// signed but past its expiry. Kept distinct from ErrInvalidToken so
	// clients know to attempt a refresh instead of a full re-login.
	ErrTokenExpired = errors.New("token expired")
)

// AccessClaims holds JWT claims for the access token. The subject is the
// actor id; UserType carries the secondary classification at issuance time.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Name     string `json:"name"`
	Surname  string `json:"surname,omitempty"`
	Role     string `json:"role"`
	UserType string `json:"user_type,omitempty"`
}

// ActorID returns the subject claim parsed as an actor id, or 0 when absent or malformed.
func (c *AccessClaims) ActorID() int64 {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// TokenProvider issues and validates signed access tokens using HS256 with a server secret.
type TokenProvider struct {
	secret   []byte
	issuer   string
	audience string
}

// NewTokenProvider returns a TokenProvider that signs with the given secret.
// issuer and audience are set on claims and validated on verification.
func NewTokenProvider(secret, issuer, audience string) *TokenProvider {
	return &TokenProvider{secret: []byte(secret), issuer: issuer, audience: audience}
}

// IssueAccess issues an access JWT for the actor identified by the claim
// fields, valid for ttl. Returns the token string, its jti, and expiry.
func (p *TokenProvider) IssueAccess(actorID int64, email, name, surname, role, userType string, ttl time.Duration) (token string, jti string, expiresAt time.Time, err error) {
	jti, err = generateJTI()
	if err != nil {
		return "", "", time.Time{}, err
	}
	now := time.Now().UTC()
	expiresAt = now.Add(ttl)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.FormatInt(actorID, 10),
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:    email,
		Name:     name,
		Surname:  surname,
		Role:     role,
		UserType: userType,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString(p.secret)
	return token, jti, expiresAt, err
}

// ValidateAccess parses and validates the access token (signature, exp, iss, aud).
// Returns the claims, ErrTokenExpired for expired tokens, ErrInvalidToken otherwise.
func (p *TokenProvider) ValidateAccess(tokenString string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return nil, ErrInvalidToken
	}
	audOk := false
	for _, a := range claims.Audience {
		if a == p.audience {
			audOk = true
			break
		}
	}
	if !audOk {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// DecodeUnverified extracts claims from a token without verifying the
// signature. Used only where a revoked token's jti or expiry is needed for
// tombstone bookkeeping; never for authentication decisions.
func (p *TokenProvider) DecodeUnverified(tokenString string) *AccessClaims {
	claims := &AccessClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil
	}
	return claims
}

// GenerateRefreshToken returns an opaque refresh token: 40 random bytes,
// hex-encoded (320 bits of entropy, 80 characters).
func GenerateRefreshToken() (string, error) {
	b := make([]byte, 40)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
