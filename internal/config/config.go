// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"PICBOOK_DB_PATH" envDefault:"./data/picbook.db"`
	SessionSecret string `env:"PICBOOK_SESSION_SECRET,required"`
	ServerHost    string `env:"PICBOOK_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"PICBOOK_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"PICBOOK_ENV" envDefault:"development"`
	LogLevel      string `env:"PICBOOK_LOG_LEVEL" envDefault:"info"`

	// Book backend
	BackendURL string        `env:"PICBOOK_BACKEND_URL" envDefault:"http://localhost:5001"`
	APITimeout time.Duration `env:"PICBOOK_API_TIMEOUT" envDefault:"5m"` // generation renders every page before answering

	// Login
	LoginPasswordHash string        `env:"PICBOOK_LOGIN_PASSWORD_HASH"` // argon2id encoded hash
	SessionLifetime   time.Duration `env:"PICBOOK_SESSION_LIFETIME" envDefault:"720h"`

	// Cache configuration
	RedisURL     string `env:"PICBOOK_REDIS_URL"`                          // Optional Redis URL for distributed caching
	CachePrefix  string `env:"PICBOOK_CACHE_PREFIX" envDefault:"picbook:"` // Redis key prefix
	CacheTTL     int    `env:"PICBOOK_CACHE_TTL" envDefault:"60"`          // Book list TTL in seconds
	CacheMaxSize int    `env:"PICBOOK_CACHE_MAX_SIZE" envDefault:"1000"`   // Max memory cache entries
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// LoginEnabled returns true if a login password hash is configured.
// Without one, only development mode accepts logins.
func (c Config) LoginEnabled() bool {
	return c.LoginPasswordHash != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("PICBOOK_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("PICBOOK_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("PICBOOK_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	u, err := url.Parse(cfg.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("PICBOOK_BACKEND_URL must be an absolute http(s) URL, got %q", cfg.BackendURL)
	}

	if cfg.APITimeout <= 0 {
		return nil, fmt.Errorf("PICBOOK_API_TIMEOUT must be positive, got %s", cfg.APITimeout)
	}

	if !cfg.IsDevelopment() && !cfg.LoginEnabled() {
		slog.Warn("PICBOOK_LOGIN_PASSWORD_HASH is not set; logins are rejected outside development")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
