// Package config loads service configuration from the environment so main
// stays lean.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures everything the server needs at startup.
type Config struct {
	Addr     string `env:"ATTESTOR_ADDR" envDefault:":8080"`
	LogLevel string `env:"ATTESTOR_LOG_LEVEL" envDefault:"info"`

	// JWTSigningKey signs and verifies actor bearer tokens.
	// The default is for development only.
	JWTSigningKey string `env:"ATTESTOR_JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`

	// PostgresDSN enables the Postgres stores when set; otherwise the server
	// runs on in-memory stores.
	PostgresDSN string `env:"ATTESTOR_POSTGRES_DSN"`

	// Jurisdiction selects the registry client: "mock", "redis", or "http".
	Jurisdiction JurisdictionConfig `envPrefix:"ATTESTOR_JURISDICTION_"`

	Redis RedisConfig `envPrefix:"ATTESTOR_REDIS_"`
}

// JurisdictionConfig configures the external registry client.
type JurisdictionConfig struct {
	Kind    string        `env:"KIND" envDefault:"mock"`
	BaseURL string        `env:"BASE_URL"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"5s"`
	// Address is the advertised registry address reported by the
	// jurisdiction-address query.
	Address string `env:"ADDRESS" envDefault:"0x00000000000000000000000000000000000000aa"`
	// AttributeID is the single attribute this validator may assert.
	AttributeID uint64 `env:"ATTRIBUTE_ID" envDefault:"1"`
}

// RedisConfig configures the optional Redis connection.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

// FromEnv parses the configuration from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
