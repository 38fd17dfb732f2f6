package middleware

import (
	"maps"
	"net/http"

	"github.com/dmitrymomot/portalguard/core/handler"
)

// Header values shared by the presets and the CSP middleware.
const (
	HSTSValue              = "max-age=31536000; includeSubDomains"
	PortalPermissionsValue = "camera=(), microphone=(), geolocation=(), payment=(), usb=(), interest-cohort=()"
)

// SecurityHeadersConfig configures the static security headers middleware.
// Empty fields are not sent.
type SecurityHeadersConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool

	ContentTypeOptions        string
	FrameOptions              string
	XSSProtection             string
	StrictTransportSecurity   string
	ContentSecurityPolicy     string
	ReferrerPolicy            string
	PermissionsPolicy         string
	CrossOriginOpenerPolicy   string
	CrossOriginResourcePolicy string

	// CustomHeaders are set after the named headers and may override them.
	CustomHeaders map[string]string

	// IsDevelopment drops Strict-Transport-Security.
	IsDevelopment bool
}

// Presets.
var (
	// PortalSecurity carries the companion headers every portal page gets.
	// Content-Security-Policy is left empty; the CSP middleware builds it
	// per request with a nonce.
	PortalSecurity = SecurityHeadersConfig{
		ContentTypeOptions:      "nosniff",
		FrameOptions:            "DENY",
		XSSProtection:           "1; mode=block",
		StrictTransportSecurity: HSTSValue,
		ReferrerPolicy:          "strict-origin-when-cross-origin",
		PermissionsPolicy:       PortalPermissionsValue,
	}

	// StrictSecurity adds a static deny-by-default policy and cross-origin
	// isolation. Suitable for JSON APIs that never serve markup.
	StrictSecurity = SecurityHeadersConfig{
		ContentTypeOptions:        "nosniff",
		FrameOptions:              "DENY",
		XSSProtection:             "1; mode=block",
		StrictTransportSecurity:   "max-age=63072000; includeSubDomains; preload",
		ContentSecurityPolicy:     "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'",
		ReferrerPolicy:            "no-referrer",
		PermissionsPolicy:         PortalPermissionsValue,
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "same-origin",
	}

	RelaxedSecurity = SecurityHeadersConfig{
		ContentTypeOptions: "nosniff",
		XSSProtection:      "1; mode=block",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}

	// DevelopmentSecurity is PortalSecurity without HSTS.
	// Never use in production.
	DevelopmentSecurity = SecurityHeadersConfig{
		ContentTypeOptions: "nosniff",
		FrameOptions:       "DENY",
		XSSProtection:      "1; mode=block",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		PermissionsPolicy:  PortalPermissionsValue,
		IsDevelopment:      true,
	}
)

// SecurityHeaders applies PortalSecurity.
//
// Usage:
//
//	h := handler.Chain(endpoint, middleware.SecurityHeaders[*handler.BaseContext]())
func SecurityHeaders[C handler.Context]() handler.Middleware[C] {
	return SecurityHeadersWithConfig[C](PortalSecurity)
}

func SecurityHeadersStrict[C handler.Context]() handler.Middleware[C] {
	return SecurityHeadersWithConfig[C](StrictSecurity)
}

func SecurityHeadersRelaxed[C handler.Context]() handler.Middleware[C] {
	return SecurityHeadersWithConfig[C](RelaxedSecurity)
}

// SecurityHeadersWithConfig sets the configured headers on every response
// that is not skipped.
func SecurityHeadersWithConfig[C handler.Context](cfg SecurityHeadersConfig) handler.Middleware[C] {
	headers := cfg.headers()

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			response := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				setHeaders(w, headers)
				return response(w, r)
			}
		}
	}
}

// headers flattens the config into a header map, built once per middleware.
func (cfg SecurityHeadersConfig) headers() map[string]string {
	if cfg.IsDevelopment {
		cfg.StrictTransportSecurity = ""
	}

	named := []struct{ key, value string }{
		{"X-Content-Type-Options", cfg.ContentTypeOptions},
		{"X-Frame-Options", cfg.FrameOptions},
		{"X-XSS-Protection", cfg.XSSProtection},
		{"Strict-Transport-Security", cfg.StrictTransportSecurity},
		{"Content-Security-Policy", cfg.ContentSecurityPolicy},
		{"Referrer-Policy", cfg.ReferrerPolicy},
		{"Permissions-Policy", cfg.PermissionsPolicy},
		{"Cross-Origin-Opener-Policy", cfg.CrossOriginOpenerPolicy},
		{"Cross-Origin-Resource-Policy", cfg.CrossOriginResourcePolicy},
	}

	headers := make(map[string]string, len(named)+len(cfg.CustomHeaders))
	for _, h := range named {
		if h.value != "" {
			headers[h.key] = h.value
		}
	}
	maps.Copy(headers, cfg.CustomHeaders)
	return headers
}

func setHeaders(w http.ResponseWriter, headers map[string]string) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
}
