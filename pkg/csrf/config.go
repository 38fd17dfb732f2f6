package csrf

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config provides environment-based configuration for Protection.
type Config struct {
	Secret         string   `env:"CSRF_SECRET"`
	TokenLength    int      `env:"CSRF_TOKEN_LENGTH" envDefault:"32"`
	MaxAge         int      `env:"CSRF_MAX_AGE" envDefault:"3600"` // seconds
	CookieName     string   `env:"CSRF_COOKIE_NAME" envDefault:"csrf-token"`
	HeaderName     string   `env:"CSRF_HEADER_NAME" envDefault:"X-CSRF-Token"`
	FormField      string   `env:"CSRF_FORM_FIELD" envDefault:"csrf_token"`
	CookieDomain   string   `env:"CSRF_COOKIE_DOMAIN" envDefault:""`
	CookieHTTPOnly bool     `env:"CSRF_COOKIE_HTTP_ONLY" envDefault:"true"`
	CookieSecure   bool     `env:"CSRF_COOKIE_SECURE" envDefault:"false"`
	SameSite       string   `env:"CSRF_SAME_SITE" envDefault:"strict"`
	BypassPrefixes []string `env:"CSRF_BYPASS_PREFIXES" envSeparator:"," envDefault:"/api/auth/"`
	SingleUse      bool     `env:"CSRF_SINGLE_USE" envDefault:"false"`
	// Production forces the Secure cookie attribute. It is set from the
	// application environment rather than its own variable.
	Production bool `env:"-"`
}

// DefaultConfig returns defaults without a secret.
func DefaultConfig() Config {
	return Config{
		TokenLength:    DefaultTokenLength,
		MaxAge:         int(DefaultMaxAge / time.Second),
		CookieName:     DefaultCookieName,
		HeaderName:     DefaultHeaderName,
		FormField:      DefaultFormField,
		CookieHTTPOnly: true,
		SameSite:       "strict",
		BypassPrefixes: []string{"/api/auth/"},
	}
}

// ParseSameSite maps strict, lax and none to http.SameSite.
func ParseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return http.SameSiteStrictMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("%w: unknown SameSite value %q", ErrInvalidConfig, s)
	}
}

// NewFromConfig creates Protection from configuration. Only non-zero config
// values override defaults; opts are applied last.
func NewFromConfig(cfg Config, opts ...Option) (*Protection, error) {
	sameSite, err := ParseSameSite(cfg.SameSite)
	if err != nil {
		return nil, err
	}

	configOpts := []Option{
		WithHTTPOnly(cfg.CookieHTTPOnly),
		WithSecure(cfg.CookieSecure),
		WithSameSite(sameSite),
		WithProduction(cfg.Production),
	}
	if cfg.TokenLength > 0 {
		configOpts = append(configOpts, WithTokenLength(cfg.TokenLength))
	}
	if cfg.MaxAge > 0 {
		configOpts = append(configOpts, WithMaxAge(time.Duration(cfg.MaxAge)*time.Second))
	}
	if cfg.CookieName != "" {
		configOpts = append(configOpts, WithCookieName(cfg.CookieName))
	}
	if cfg.HeaderName != "" {
		configOpts = append(configOpts, WithHeaderName(cfg.HeaderName))
	}
	if cfg.FormField != "" {
		configOpts = append(configOpts, WithFormField(cfg.FormField))
	}
	if cfg.CookieDomain != "" {
		configOpts = append(configOpts, WithDomain(cfg.CookieDomain))
	}

	return New(cfg.Secret, append(configOpts, opts...)...)
}
