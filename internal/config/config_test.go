package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.JWTIssuer != "food-rescue-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "food-rescue-auth")
	}
	if cfg.JWTAudience != "food-rescue-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "food-rescue-api")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.MaxLoginAttempts != 5 {
		t.Errorf("MaxLoginAttempts = %d, want 5", cfg.MaxLoginAttempts)
	}
	if cfg.LockoutDuration != "15m" {
		t.Errorf("LockoutDuration = %q, want %q", cfg.LockoutDuration, "15m")
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty", cfg.RedisAddr)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("MAX_LOGIN_ATTEMPTS", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if cfg.MaxLoginAttempts != 3 {
		t.Errorf("MaxLoginAttempts = %d, want 3", cfg.MaxLoginAttempts)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail without JWT_SECRET")
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("BCRYPT_COST", "99")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject BCRYPT_COST above 31")
	}
}

func TestLockout(t *testing.T) {
	cfg := &Config{LockoutDuration: "10m"}
	if got := cfg.Lockout(); got != 10*time.Minute {
		t.Errorf("Lockout = %v, want 10m", got)
	}
	cfg = &Config{LockoutDuration: "garbage"}
	if got := cfg.Lockout(); got != 15*time.Minute {
		t.Errorf("Lockout fallback = %v, want 15m", got)
	}
}
