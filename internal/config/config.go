// Package config loads app configuration from the environment and an
// optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds the runtime configuration of the API server.
type Config struct {
	// ListenAddr is the address the HTTP server binds to (e.g. ":8080").
	ListenAddr string `mapstructure:"LISTEN_ADDR"`
	// DatabaseURL is the Postgres DSN. Empty disables persistence-backed
	// routes (health endpoints still work).
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTSecret signs access tokens (HS256). Required to issue tokens.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTIssuer is the iss claim on issued access tokens.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// AccessTokenTTL is the access token lifetime (e.g. "15m").
	AccessTokenTTL string `mapstructure:"ACCESS_TOKEN_TTL"`
	// RefreshTokenTTL is the refresh token lifetime (e.g. "168h").
	RefreshTokenTTL string `mapstructure:"REFRESH_TOKEN_TTL"`
	// BcryptCost is the bcrypt cost factor (4-31).
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// RateLimitPerSecond and RateLimitBurst tune the per-IP limiter.
	RateLimitPerSecond int `mapstructure:"RATE_LIMIT_PER_SECOND"`
	RateLimitBurst     int `mapstructure:"RATE_LIMIT_BURST"`
	// MigrationsDir and SeedsDir point at SQL files for cmd/migrate.
	MigrationsDir string `mapstructure:"MIGRATIONS_DIR"`
	SeedsDir      string `mapstructure:"SEEDS_DIR"`
}

// Load reads .env if present, then builds and validates Config from the
// environment. Env vars override .env values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // missing .env is fine (CI, containers)

	v.AutomaticEnv()

	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "valetpark-auth")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("RATE_LIMIT_PER_SECOND", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("SEEDS_DIR", "seeds")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.ListenAddr == "" {
		return nil, errors.New("config: LISTEN_ADDR must be set")
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// AccessTTL parses AccessTokenTTL. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.AccessTokenTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// RefreshTTL parses RefreshTokenTTL. Returns 168h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	d, err := time.ParseDuration(c.RefreshTokenTTL)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}
