// Package config loads the application configuration from the environment
// so main stays lean. Defaults match the hosted test environment; production
// deployments override via env vars.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config captures all runtime configuration.
type Config struct {
	Addr string `envconfig:"VISLEG_ADDR" default:":5000"`

	// DATABASE_URL selects the Postgres store; when empty the server runs
	// fully in-memory (useful for local development and demos).
	DatabaseURL string `envconfig:"DATABASE_URL"`

	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Provider ProviderConfig

	// AllowFallbackOnProviderError substitutes a fixed test identity when the
	// verification provider rejects a session for non-auth reasons. Every
	// substitution is logged at WARN and counted, so degraded operation is
	// visible operationally.
	AllowFallbackOnProviderError bool `envconfig:"VISLEG_ALLOW_FALLBACK" default:"true"`

	TokenPurgeInterval time.Duration `envconfig:"VISLEG_TOKEN_PURGE_INTERVAL" default:"60s"`
}

// DatabaseConfig tunes the sql.DB connection pool.
type DatabaseConfig struct {
	MaxOpenConns    int           `envconfig:"VISLEG_DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"VISLEG_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"VISLEG_DB_CONN_MAX_LIFETIME" default:"30m"`
}

// RedisConfig configures the optional Redis client used by the redis-backed
// admin session store.
type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL"`
	PoolSize     int           `envconfig:"VISLEG_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VISLEG_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VISLEG_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VISLEG_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"VISLEG_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// SessionConfig governs admin session lifetime. Sessions do not renew; after
// TTL the admin must log in again.
type SessionConfig struct {
	// Store selects the backing: "memory" (single instance) or "redis".
	Store         string        `envconfig:"VISLEG_SESSION_STORE" default:"memory"`
	TTL           time.Duration `envconfig:"VISLEG_SESSION_TTL" default:"24h"`
	SweepInterval time.Duration `envconfig:"VISLEG_SESSION_SWEEP_INTERVAL" default:"1h"`
}

// ProviderConfig holds credentials and endpoints for the BankID identity
// provider and the merchant verification API.
type ProviderConfig struct {
	ClientID     string `envconfig:"STOE_CLIENT_ID"`
	ClientSecret string `envconfig:"STOE_CLIENT_SECRET"`
	TokenURL     string `envconfig:"STOE_TOKEN_URL" default:"https://auth.current.bankid.no/auth/realms/current/protocol/openid-connect/token"`
	APIURL       string `envconfig:"STOE_API_URL" default:"https://visleg-test-merchantservice-cnhvehb0cvdgggah.z01.azurefd.net"`
	Scope        string `envconfig:"STOE_SCOPE" default:"vis-leg/identity_picture_age"`

	HTTPTimeout time.Duration `envconfig:"STOE_HTTP_TIMEOUT" default:"10s"`
}

// FromEnv builds a Config from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env config: %w", err)
	}
	return cfg, nil
}
