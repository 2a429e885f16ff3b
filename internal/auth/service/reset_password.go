package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	actordomain "food-rescue-platform/backend/internal/actor/domain"
	revocationdomain "food-rescue-platform/backend/internal/revocation/domain"
)

// ResetPasswordInput is the payload for ResetPassword. At least one of
// Phone and VerificationName must be provided.
type ResetPasswordInput struct {
	Email            string
	Phone            string
	VerificationName string
	NewPassword      string
}

// ResetPassword replaces the actor's password after verifying ownership
// through the registered phone or the full registered name. Role Utente
// must verify by phone; other roles may fall back to the name check. On
// success every live session of the actor is revoked and tombstoned, so
// only the new credentials authenticate afterwards.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	phone := normalizePhone(in.Phone)
	name := normalizeName(in.VerificationName)
	if phone == "" && name == "" {
		return ErrResetContactRequired
	}
	if len(in.NewPassword) < 8 {
		return fmt.Errorf("%w: new password must be at least 8 characters", ErrInvalidInput)
	}
	email := strings.TrimSpace(strings.ToLower(in.Email))
	actor, err := s.actors.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if actor == nil {
		return ErrActorNotFound
	}

	isUser := actor.Role == actordomain.RoleUser
	if isUser && phone == "" {
		return ErrResetPhoneRequired
	}
	storedPhone := ""
	if phone != "" || isUser {
		p, err := s.actors.PhoneFor(ctx, actor.ID)
		if err != nil {
			return err
		}
		storedPhone = normalizePhone(p)
	}

	if isUser {
		if storedPhone == "" {
			return ErrResetPhoneNotOnFile
		}
		if storedPhone != phone {
			return ErrResetVerificationFailed
		}
	} else if err := verifyByPhoneOrName(actor, storedPhone, phone, name); err != nil {
		return err
	}

	hashed, err := s.hasher.Hash([]byte(in.NewPassword))
	if err != nil {
		return err
	}
	if err := s.actors.UpdatePassword(ctx, actor.ID, hashed); err != nil {
		return err
	}
	tokens, err := s.sessions.RevokeAllByActor(ctx, actor.ID)
	if err != nil {
		return err
	}
	for _, rt := range tokens {
		exp := rt.AccessExpiresAt
		t := &revocationdomain.Tombstone{
			TokenHash:      tombstoneHash(rt.AccessTokenHash),
			RevokedBy:      &actor.ID,
			Reason:         revocationdomain.ReasonPasswordReset,
			OriginalExpiry: &exp,
		}
		if err := s.revoked.Upsert(ctx, t); err != nil {
			return err
		}
	}
	s.audit.LogEvent(ctx, actor.ID, "password_reset", "actor", email)
	return nil
}

// verifyByPhoneOrName checks a non-Utente actor: phone wins when both sides
// have one, otherwise the submitted name must equal the registered full name.
func verifyByPhoneOrName(actor *actordomain.Actor, storedPhone, phone, name string) error {
	if storedPhone != "" && phone != "" {
		if storedPhone != phone {
			return ErrResetVerificationFailed
		}
		return nil
	}
	if name != "" {
		expected := normalizeName(actor.Name + " " + actor.Surname)
		if expected != "" && name == expected {
			return nil
		}
		return ErrResetVerificationFailed
	}
	return ErrResetNameRequired
}

// normalizePhone keeps only digits and a leading-or-embedded plus sign.
func normalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '+' || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeName lowercases, trims, and strips diacritics so "Màrio Rossi"
// and "mario rossi" compare equal, matching how the names were entered.
func normalizeName(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(strings.ToLower(b.String()))
}
