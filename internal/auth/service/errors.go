package service

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the auth service; the handler maps them to HTTP statuses.
var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrRateLimited            = errors.New("too many login attempts")
	ErrInvalidRefreshToken    = errors.New("invalid or expired refresh token")
	ErrSessionNotFound        = errors.New("session not found")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidInput           = errors.New("invalid input")
	ErrActorNotFound          = errors.New("actor not found")
)

// Password-reset verification outcomes. Each carries a distinct client
// message, so they stay separate sentinels instead of one generic error.
var (
	ErrResetContactRequired    = errors.New("registered phone or full name required")
	ErrResetPhoneRequired      = errors.New("registered phone required for this account")
	ErrResetPhoneNotOnFile     = errors.New("no phone on file for this account")
	ErrResetNameRequired       = errors.New("full registered name required")
	ErrResetVerificationFailed = errors.New("reset verification failed")
)

// RateLimitedError carries the remaining lockout window so the handler can
// tell the client when to retry. errors.Is(err, ErrRateLimited) matches it.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many login attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }
