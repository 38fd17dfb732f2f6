package middleware

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/dmitrymomot/portalguard/core/handler"
	"github.com/dmitrymomot/portalguard/core/response"
)

// Size units.
const (
	KB int64 = 1024
	MB       = 1024 * KB
)

// DefaultBodyLimit is generous for portal forms and small uploads.
const DefaultBodyLimit = 4 * MB

// BodyLimitConfig configures the request body limit middleware.
// It runs before form parsing so SanitizeInput never buffers oversized bodies.
type BodyLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool

	// MaxSize is the maximum allowed size in bytes (default: 4MB)
	MaxSize int64

	// ContentTypeLimit overrides MaxSize per media type,
	// e.g. {"application/x-www-form-urlencoded": 64 * KB}.
	ContentTypeLimit map[string]int64
}

func BodyLimit[C handler.Context]() handler.Middleware[C] {
	return BodyLimitWithConfig[C](BodyLimitConfig{})
}

func BodyLimitWithSize[C handler.Context](maxSize int64) handler.Middleware[C] {
	return BodyLimitWithConfig[C](BodyLimitConfig{MaxSize: maxSize})
}

// BodyLimitWithConfig rejects requests whose Content-Length exceeds the
// limit with 413 and caps the body reader for the rest, so reads past the
// limit fail inside ParseForm.
func BodyLimitWithConfig[C handler.Context](cfg BodyLimitConfig) handler.Middleware[C] {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultBodyLimit
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			req := ctx.Request()

			maxSize := cfg.MaxSize
			if cfg.ContentTypeLimit != nil {
				if mediaType, _, err := mime.ParseMediaType(req.Header.Get("Content-Type")); err == nil {
					if limit, ok := cfg.ContentTypeLimit[mediaType]; ok {
						maxSize = limit
					}
				}
			}

			if req.ContentLength > maxSize {
				return response.Error(response.ErrRequestTooLarge.
					WithMessage(fmt.Sprintf("Request body too large. Maximum allowed: %d bytes", maxSize)).
					WithDetails(map[string]any{"limit": maxSize, "size": req.ContentLength}))
			}

			if req.Body != nil && req.Body != http.NoBody {
				req.Body = http.MaxBytesReader(ctx.ResponseWriter(), req.Body, maxSize)
			}

			return next(ctx)
		}
	}
}
