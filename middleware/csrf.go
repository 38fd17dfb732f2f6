package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/portalguard/core/handler"
	"github.com/dmitrymomot/portalguard/core/logger"
	"github.com/dmitrymomot/portalguard/core/response"
	"github.com/dmitrymomot/portalguard/pkg/csrf"
)

// CSRFErrorCode is the code in the rejection body.
const CSRFErrorCode = "CSRF_INVALID"

// CSRFErrorMessage is the same for every rejection cause.
const CSRFErrorMessage = "Invalid or missing CSRF token"

type csrfTokenContextKey struct{}

// CSRFErrorBody is the JSON body of a rejected request.
type CSRFErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// CSRFConfig configures the CSRF middleware.
type CSRFConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool

	// Protection issues and verifies tokens. Required.
	Protection *csrf.Protection

	// BypassPrefixes are path prefixes that are never checked,
	// such as the login endpoints.
	BypassPrefixes []string

	// ErrorHandler renders a rejection. err carries the cause for
	// callers that log it; the default response does not expose it.
	ErrorHandler func(ctx handler.Context, err error) handler.Response

	Logger *slog.Logger
}

// CSRF enables double-submit protection with the given Protection and the
// default bypass prefixes.
func CSRF[C handler.Context](p *csrf.Protection) handler.Middleware[C] {
	return CSRFWithConfig[C](CSRFConfig{
		Protection:     p,
		BypassPrefixes: csrf.DefaultConfig().BypassPrefixes,
	})
}

// CSRFWithConfig issues a token on safe requests that do not carry a valid
// one, and verifies the header or form token against the cookie on every
// other request. Verification failures get a 403 with CSRFErrorBody; the
// cause is only logged. It panics if cfg.Protection is nil.
func CSRFWithConfig[C handler.Context](cfg CSRFConfig) handler.Middleware[C] {
	if cfg.Protection == nil {
		panic("middleware: CSRF requires a csrf.Protection")
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultCSRFErrorHandler
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	log := cfg.Logger.With(logger.Component("csrf"))
	p := cfg.Protection

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			r := ctx.Request()
			if hasAnyPrefix(r.URL.Path, cfg.BypassPrefixes) {
				return next(ctx)
			}

			cookie, _ := p.ReadCookie(r)

			if isSafeMethod(r.Method) {
				if cookie != "" && p.ValidateToken(cookie, cookie) {
					ctx.SetValue(csrfTokenContextKey{}, cookie)
					return withTokenHeader(next(ctx), p.HeaderName(), cookie)
				}
				return issueToken(ctx, next, p, log)
			}

			presented := r.Header.Get(p.HeaderName())
			if presented == "" {
				presented = r.PostFormValue(p.FormField())
			}

			if err := p.VerifyOnce(ctx, presented, cookie); err != nil {
				requestID, _ := GetRequestID(ctx)
				level := slog.LevelWarn
				if errors.Is(err, csrf.ErrStoreUnavailable) {
					level = slog.LevelError
				}
				log.LogAttrs(ctx, level, "csrf validation failed",
					logger.RequestID(requestID),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.Error(err))
				resp := cfg.ErrorHandler(ctx, err)
				if cookie == "" || p.ValidateToken(cookie, cookie) {
					return resp
				}
				// A broken cookie would fail every later submission too.
				return func(w http.ResponseWriter, r *http.Request) error {
					p.ClearCookie(w)
					return resp(w, r)
				}
			}

			// A consumed token cannot be presented again, so rotate it.
			if p.SingleUse() {
				return issueToken(ctx, next, p, log)
			}

			ctx.SetValue(csrfTokenContextKey{}, cookie)
			return next(ctx)
		}
	}
}

func issueToken[C handler.Context](ctx C, next handler.HandlerFunc[C], p *csrf.Protection, log *slog.Logger) handler.Response {
	tok, err := p.GenerateToken()
	if err != nil {
		log.ErrorContext(ctx, "csrf token generation failed", logger.Error(err))
		return response.Error(response.ErrInternalServerError)
	}

	value := tok.String()
	ctx.SetValue(csrfTokenContextKey{}, value)
	resp := withTokenHeader(next(ctx), p.HeaderName(), value)

	return func(w http.ResponseWriter, r *http.Request) error {
		if err := p.SetCookie(w, tok); err != nil {
			return err
		}
		return resp(w, r)
	}
}

func withTokenHeader(resp handler.Response, header, value string) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set(header, value)
		return resp(w, r)
	}
}

func defaultCSRFErrorHandler(_ handler.Context, _ error) handler.Response {
	return response.JSONWithStatus(CSRFErrorBody{
		Error: CSRFErrorMessage,
		Code:  CSRFErrorCode,
	}, http.StatusForbidden)
}

// GetCSRFToken returns the token for the current request, for embedding in
// forms as the csrf_token field.
func GetCSRFToken(ctx handler.Context) (string, bool) {
	token, ok := ctx.Value(csrfTokenContextKey{}).(string)
	return token, ok
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
