package csp

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// NonceSize is the number of random bytes in a nonce.
const NonceSize = 16

// Config provides environment-based configuration for the policy builder.
type Config struct {
	EnableStrictCSP       bool     `env:"CSP_STRICT" envDefault:"true"`
	AllowedScriptSources  []string `env:"CSP_SCRIPT_SOURCES" envSeparator:","`
	AllowedStyleSources   []string `env:"CSP_STYLE_SOURCES" envSeparator:","`
	AllowedImageSources   []string `env:"CSP_IMAGE_SOURCES" envSeparator:","`
	AllowedConnectSources []string `env:"CSP_CONNECT_SOURCES" envSeparator:","`
	// IsDevelopment is derived from the application environment.
	IsDevelopment bool `env:"-"`
}

// DefaultConfig returns the production policy with strict-dynamic.
func DefaultConfig() Config {
	return Config{EnableStrictCSP: true}
}

// NewNonce returns NonceSize random bytes, base64 encoded.
func NewNonce() (string, error) {
	b := make([]byte, NonceSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csp: generate nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// devConnectSources are added outside production for local dev servers and
// hot reload.
var devConnectSources = []string{
	"http://localhost:*",
	"ws://localhost:*",
	"http://127.0.0.1:*",
	"ws://127.0.0.1:*",
}

// Build renders the Content-Security-Policy value for one response.
func Build(cfg Config, nonce string) string {
	n := "'nonce-" + nonce + "'"

	script := []string{"'self'", n}
	style := []string{"'self'", n}
	connect := []string{"'self'"}

	if cfg.IsDevelopment {
		script = append(script, "'unsafe-eval'")
		style = append(style, "'unsafe-inline'")
		connect = append(connect, devConnectSources...)
	} else if cfg.EnableStrictCSP {
		script = append(script, "'strict-dynamic'")
	}

	script = append(script, cfg.AllowedScriptSources...)
	style = append(style, cfg.AllowedStyleSources...)
	connect = append(connect, cfg.AllowedConnectSources...)
	img := append([]string{"'self'", "data:", "blob:"}, cfg.AllowedImageSources...)

	directives := []string{
		"default-src 'self'",
		"script-src " + strings.Join(script, " "),
		"style-src " + strings.Join(style, " "),
		"img-src " + strings.Join(img, " "),
		"font-src 'self' data:",
		"connect-src " + strings.Join(connect, " "),
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
		"object-src 'none'",
	}
	if !cfg.IsDevelopment {
		directives = append(directives, "upgrade-insecure-requests")
	}

	return strings.Join(directives, "; ")
}
