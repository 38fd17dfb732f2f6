package middleware

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/portalguard/core/handler"
	"github.com/dmitrymomot/portalguard/core/logger"
	"github.com/dmitrymomot/portalguard/core/response"
	"github.com/dmitrymomot/portalguard/pkg/csp"
)

// DefaultNonceHeader exposes the nonce to page rendering code.
const DefaultNonceHeader = "X-Nonce"

type nonceContextKey struct{}

// CSPConfig configures the CSP middleware.
type CSPConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool

	// Policy drives csp.Build. Policy.IsDevelopment relaxes the directives.
	Policy csp.Config

	// Headers are the companion headers sent with the policy
	// (default: PortalSecurity). Any ContentSecurityPolicy value is replaced.
	Headers *SecurityHeadersConfig

	// Production enables Strict-Transport-Security.
	Production bool

	// NonceHeader (default: "X-Nonce"); set to "-" to keep the nonce out of
	// the response.
	NonceHeader string

	// NonceGenerator defaults to csp.NewNonce.
	NonceGenerator func() (string, error)

	Logger *slog.Logger
}

// CSP generates a fresh nonce per request, stores it in the context and
// sets a nonce-based Content-Security-Policy plus the companion headers.
func CSP[C handler.Context](policy csp.Config, production bool) handler.Middleware[C] {
	return CSPWithConfig[C](CSPConfig{Policy: policy, Production: production})
}

func CSPWithConfig[C handler.Context](cfg CSPConfig) handler.Middleware[C] {
	companion := PortalSecurity
	if cfg.Headers != nil {
		companion = *cfg.Headers
	}
	companion.ContentSecurityPolicy = ""
	if !cfg.Production {
		companion.StrictTransportSecurity = ""
	}
	headers := companion.headers()

	if cfg.NonceHeader == "" {
		cfg.NonceHeader = DefaultNonceHeader
	}
	if cfg.NonceGenerator == nil {
		cfg.NonceGenerator = csp.NewNonce
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	log := cfg.Logger.With(logger.Component("csp"))

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			nonce, err := cfg.NonceGenerator()
			if err != nil {
				requestID, _ := GetRequestID(ctx)
				log.ErrorContext(ctx, "nonce generation failed",
					logger.RequestID(requestID),
					logger.Error(err))
				return response.Error(response.ErrInternalServerError)
			}

			ctx.SetValue(nonceContextKey{}, nonce)
			policy := csp.Build(cfg.Policy, nonce)

			resp := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				setHeaders(w, headers)
				w.Header().Set("Content-Security-Policy", policy)
				if cfg.NonceHeader != "-" {
					w.Header().Set(cfg.NonceHeader, nonce)
				}
				return resp(w, r)
			}
		}
	}
}

// GetNonce returns the nonce for the current request.
func GetNonce(ctx handler.Context) (string, bool) {
	nonce, ok := ctx.Value(nonceContextKey{}).(string)
	return nonce, ok
}
