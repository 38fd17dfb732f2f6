package portal

import (
	"errors"
	"strings"

	"github.com/dmitrymomot/portalguard/core/config"
	"github.com/dmitrymomot/portalguard/core/server"
	"github.com/dmitrymomot/portalguard/integration/database/redis"
	"github.com/dmitrymomot/portalguard/middleware"
	"github.com/dmitrymomot/portalguard/pkg/csp"
	"github.com/dmitrymomot/portalguard/pkg/csrf"
)

// Replay store backends for single-use CSRF tokens.
const (
	ReplayStoreMemory = "memory"
	ReplayStoreRedis  = "redis"
)

// DevelopmentCSRFSecret signs tokens when CSRF_SECRET is unset outside
// production.
const DevelopmentCSRFSecret = "portalguard-development-only-csrf-secret"

var (
	ErrMissingCSRFSecret  = errors.New("portal: CSRF_SECRET is required in production")
	ErrUnknownReplayStore = errors.New("portal: unknown CSRF replay store")
)

type Config struct {
	CSRF   csrf.Config
	CSP    csp.Config
	Redis  redis.Config
	Server server.Config

	AppName  string `env:"APP_NAME" envDefault:"portal"`
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`

	ReplayStore string `env:"CSRF_REPLAY_STORE" envDefault:"memory"`
	BodyLimit   int64  `env:"HTTP_BODY_LIMIT" envDefault:"4194304"`
}

// DefaultConfig mirrors the environment defaults, for tests and embedding.
func DefaultConfig() Config {
	return Config{
		CSRF:        csrf.DefaultConfig(),
		CSP:         csp.DefaultConfig(),
		Redis:       redis.Config{ConnectionURL: "redis://localhost:6379/0", RetryAttempts: 3},
		Server:      server.DefaultConfig(),
		AppName:     "portal",
		Env:         "development",
		ReplayStore: ReplayStoreMemory,
		BodyLimit:   middleware.DefaultBodyLimit,
	}
}

// LoadConfig reads Config from the environment and .env.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "production", "prod":
		return true
	}
	return false
}

func (c Config) IsDevelopment() bool {
	switch strings.ToLower(c.Env) {
	case "", "development", "dev", "local":
		return true
	}
	return false
}

// csrfSecret falls back to DevelopmentCSRFSecret only outside production.
func (c Config) csrfSecret() (secret string, fallback bool, err error) {
	if c.CSRF.Secret != "" {
		return c.CSRF.Secret, false, nil
	}
	if c.IsProduction() {
		return "", false, ErrMissingCSRFSecret
	}
	return DevelopmentCSRFSecret, true, nil
}
