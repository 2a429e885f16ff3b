package security

import (
	"testing"
	"time"
)

func newTestProvider() *TokenProvider {
	return NewTokenProvider("unit-test-secret", "food-rescue-auth", "food-rescue-api")
}

func TestTokenProvider_IssueAndValidateAccess(t *testing.T) {
	p := newTestProvider()
	token, jti, exp, err := p.IssueAccess(42, "mario@example.com", "Mario", "Rossi", "Utente", "Privato", time.Hour)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if token == "" || jti == "" {
		t.Fatal("token and jti should be non-empty")
	}
	if exp.Before(time.Now()) {
		t.Error("expiry should be in the future")
	}

	claims, err := p.ValidateAccess(token)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if claims.ActorID() != 42 {
		t.Errorf("ActorID = %d, want 42", claims.ActorID())
	}
	if claims.Email != "mario@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.Role != "Utente" {
		t.Errorf("Role = %q", claims.Role)
	}
	if claims.UserType != "Privato" {
		t.Errorf("UserType = %q", claims.UserType)
	}
	if claims.ID != jti {
		t.Errorf("jti = %q, want %q", claims.ID, jti)
	}
}

func TestTokenProvider_ValidateAccessInvalid(t *testing.T) {
	p := newTestProvider()
	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := p.ValidateAccess(tok); err != ErrInvalidToken {
			t.Errorf("ValidateAccess(%q) = %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestTokenProvider_ValidateAccessWrongSecret(t *testing.T) {
	p := newTestProvider()
	token, _, _, err := p.IssueAccess(1, "a@b.c", "A", "", "Operatore", "", time.Hour)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	other := NewTokenProvider("different-secret", "food-rescue-auth", "food-rescue-api")
	if _, err := other.ValidateAccess(token); err != ErrInvalidToken {
		t.Errorf("ValidateAccess with wrong secret = %v, want ErrInvalidToken", err)
	}
}

func TestTokenProvider_ValidateAccessExpired(t *testing.T) {
	p := newTestProvider()
	token, _, _, err := p.IssueAccess(1, "a@b.c", "A", "", "Operatore", "", -time.Minute)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := p.ValidateAccess(token); err != ErrTokenExpired {
		t.Errorf("ValidateAccess(expired) = %v, want ErrTokenExpired", err)
	}
}

func TestTokenProvider_ValidateAccessWrongIssuer(t *testing.T) {
	other := NewTokenProvider("unit-test-secret", "someone-else", "food-rescue-api")
	token, _, _, err := other.IssueAccess(1, "a@b.c", "A", "", "Operatore", "", time.Hour)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	p := newTestProvider()
	if _, err := p.ValidateAccess(token); err != ErrInvalidToken {
		t.Errorf("ValidateAccess with wrong issuer = %v, want ErrInvalidToken", err)
	}
}

func TestTokenProvider_DecodeUnverified(t *testing.T) {
	p := newTestProvider()
	token, jti, _, err := p.IssueAccess(7, "x@y.z", "X", "", "Utente", "", -time.Minute)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	claims := p.DecodeUnverified(token)
	if claims == nil {
		t.Fatal("DecodeUnverified returned nil for a well-formed token")
	}
	if claims.ID != jti {
		t.Errorf("jti = %q, want %q", claims.ID, jti)
	}
	if p.DecodeUnverified("not-a-jwt") != nil {
		t.Error("DecodeUnverified should return nil for malformed input")
	}
}

func TestGenerateRefreshToken(t *testing.T) {
	tok1, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}
	if len(tok1) != 80 {
		t.Errorf("refresh token length = %d, want 80 hex chars", len(tok1))
	}
	tok2, _ := GenerateRefreshToken()
	if tok1 == tok2 {
		t.Error("two refresh tokens should not collide")
	}
}
