package middleware

import (
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/dmitrymomot/portalguard/core/handler"
	"github.com/dmitrymomot/portalguard/core/logger"
	"github.com/dmitrymomot/portalguard/core/response"
	"github.com/dmitrymomot/portalguard/core/sanitizer"
	"github.com/dmitrymomot/portalguard/pkg/csrf"
)

// DefaultMultipartMemory is passed to ParseMultipartForm.
const DefaultMultipartMemory = 10 << 20

type inputViolationsContextKey struct{}

// SanitizeInputConfig configures the input sanitizing middleware.
type SanitizeInputConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool

	// Sanitizer defaults to sanitizer.Default().
	Sanitizer *sanitizer.Sanitizer

	// Fields maps a query or form key to a typed sanitizer. Keys not listed
	// are cleaned as text.
	Fields map[string]sanitizer.FieldConfig

	// SkipFields are passed through untouched
	// (default: password fields and the CSRF form field).
	SkipFields []string

	// RejectInvalid answers 422 when any field fails validation instead of
	// passing the violations on through the context.
	RejectInvalid bool

	Logger *slog.Logger
}

var defaultSkipFields = []string{
	"password",
	"password_confirmation",
	"current_password",
	"new_password",
	csrf.DefaultFormField,
}

// SanitizeInput cleans query parameters and url-encoded or multipart form
// values in place with the default sanitizer.
func SanitizeInput[C handler.Context]() handler.Middleware[C] {
	return SanitizeInputWithConfig[C](SanitizeInputConfig{})
}

// SanitizeInputWithConfig rewrites r.URL.RawQuery, r.Form and r.PostForm
// with sanitized values before the handler runs. Violations are available
// through GetInputViolations, keyed by parameter name.
func SanitizeInputWithConfig[C handler.Context](cfg SanitizeInputConfig) handler.Middleware[C] {
	if cfg.Sanitizer == nil {
		cfg.Sanitizer = sanitizer.Default()
	}
	if cfg.SkipFields == nil {
		cfg.SkipFields = defaultSkipFields
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	log := cfg.Logger.With(logger.Component("sanitize_input"))

	clean := func(values url.Values, violations map[string][]string) (valid bool) {
		valid = true
		for key, vals := range values {
			if slices.Contains(cfg.SkipFields, key) {
				continue
			}
			fc := cfg.Fields[key]
			for i, v := range vals {
				if v == "" {
					continue
				}
				res := cfg.Sanitizer.Field(v, fc)
				vals[i] = res.Sanitized
				valid = valid && res.IsValid
				if len(res.Violations) > 0 {
					violations[key] = append(violations[key], res.Violations...)
				}
			}
		}
		return valid
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			r := ctx.Request()
			violations := make(map[string][]string)
			valid := true

			query := r.URL.Query()
			if len(query) > 0 {
				valid = clean(query, violations)
				r.URL.RawQuery = query.Encode()
			}

			if hasFormBody(r) {
				if err := parseForm(r); err != nil {
					return response.Error(response.ErrBadRequest.WithError(err))
				}
				valid = clean(r.PostForm, violations) && valid
				if r.MultipartForm != nil {
					for key := range r.MultipartForm.Value {
						if v, ok := r.PostForm[key]; ok {
							r.MultipartForm.Value[key] = v
						}
					}
				}
			}

			// r.Form may hold raw values parsed by an earlier middleware.
			if r.Form != nil {
				r.Form = mergeValues(query, r.PostForm)
			}

			if len(violations) > 0 {
				requestID, _ := GetRequestID(ctx)
				log.DebugContext(ctx, "request input sanitized",
					logger.RequestID(requestID),
					logger.Path(r.URL.Path),
					logger.Count("fields", len(violations)))
			}

			if cfg.RejectInvalid && !valid {
				return response.Error(response.ErrUnprocessableEntity.WithDetails(map[string]any{
					"fields": violations,
				}))
			}

			ctx.SetValue(inputViolationsContextKey{}, violations)
			return next(ctx)
		}
	}
}

// GetInputViolations returns violations recorded by SanitizeInput.
func GetInputViolations(ctx handler.Context) map[string][]string {
	v, _ := ctx.Value(inputViolationsContextKey{}).(map[string][]string)
	return v
}

func hasFormBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}

func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		return r.ParseMultipartForm(DefaultMultipartMemory)
	}
	return r.ParseForm()
}

func mergeValues(query, form url.Values) url.Values {
	merged := make(url.Values, len(query)+len(form))
	for k, v := range form {
		merged[k] = append(merged[k], v...)
	}
	for k, v := range query {
		merged[k] = append(merged[k], v...)
	}
	return merged
}
