// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN; required to start the server.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTSecret is the HS256 signing secret for access tokens; required.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTIssuer is the iss claim (e.g. "food-rescue-auth").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim (e.g. "food-rescue-api").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// BcryptCost is the bcrypt cost factor (4-31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// MaxLoginAttempts is the number of consecutive failed logins per
	// (email, ip) key before the key is locked; default 5.
	MaxLoginAttempts int `mapstructure:"MAX_LOGIN_ATTEMPTS"`
	// LockoutDuration is how long a locked key stays locked (e.g. "15m").
	LockoutDuration string `mapstructure:"LOCKOUT_DURATION"`
	// RedisAddr is an optional Redis address for the shared lockout store.
	// When empty the lockout store is process-local; deployments with more
	// than one replica must set this or lockout counters are not shared.
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// OTLPEndpoint is the OTLP gRPC endpoint for telemetry export; empty
	// disables export (no-op providers).
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export (standard OTEL_EXPORTER_OTLP_INSECURE behavior).
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "food-rescue-auth")
	v.SetDefault("JWT_AUDIENCE", "food-rescue-api")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("MAX_LOGIN_ATTEMPTS", 5)
	v.SetDefault("LOCKOUT_DURATION", "15m")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if cfg.MaxLoginAttempts < 1 {
		cfg.MaxLoginAttempts = 5
	}

	return &cfg, nil
}

// Lockout parses LockoutDuration as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) Lockout() time.Duration {
	d, err := time.ParseDuration(c.LockoutDuration)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}
