// Package middleware provides the HTTP security middleware for portal
// frontends: request IDs, nonce based Content-Security-Policy with
// companion headers, double-submit CSRF protection, request body limits,
// input sanitization and request logging.
//
// All middleware follow the same pattern:
//   - Generic functions that accept a handler.Context type parameter
//   - Configuration structs with a Skip function
//   - Default constructors and WithConfig constructors
//   - Context helpers for retrieving stored values
//
// # Ordering
//
// The portal stack is assembled with handler.Chain, first middleware
// running first:
//
//	h := handler.Chain(endpoint,
//		middleware.RequestID[*handler.BaseContext](),
//		middleware.LoggingWithLogger[*handler.BaseContext](log),
//		middleware.CSP[*handler.BaseContext](cspCfg, production),
//		middleware.BodyLimit[*handler.BaseContext](),
//		middleware.CSRF[*handler.BaseContext](protection),
//		middleware.SanitizeInput[*handler.BaseContext](),
//	)
//	http.Handle("/", handler.HTTP(h, handler.NewContext, response.JSONErrorHandler))
//
// RequestID runs first so CSRF rejections and sanitization records are
// logged with the request ID. CSRF runs before SanitizeInput so the token
// field is read as sent.
//
// # CSP
//
// CSP generates a fresh nonce for every request. Templates read it with
// GetNonce and put it on inline script and style tags; the same value is
// sent in the X-Nonce response header.
//
//	nonce, _ := middleware.GetNonce(ctx)
//
// # CSRF
//
// GET, HEAD and OPTIONS requests receive a token cookie when they do not
// carry a valid one. The token is also returned in the X-CSRF-Token
// response header and through GetCSRFToken for forms. Every other method
// must send the cookie token back in the X-CSRF-Token header or the
// csrf_token form field. Failures are answered with 403 and
//
//	{"error": "Invalid or missing CSRF token", "code": "CSRF_INVALID"}
//
// whatever the cause; the cause is logged at warn level.
//
// # Input sanitization
//
// SanitizeInput cleans query parameters and form values in place and keeps
// the violations for the handler:
//
//	violations := middleware.GetInputViolations(ctx)
package middleware
