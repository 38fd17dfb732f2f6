package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/portalguard/core/handler"
	"github.com/dmitrymomot/portalguard/core/logger"
	"github.com/dmitrymomot/portalguard/core/response"
)

// DefaultCheckTimeout bounds each dependency check.
const DefaultCheckTimeout = 2 * time.Second

// Check is a named dependency probe.
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// Readiness answers "READY" when every check passes and 503 otherwise.
// Failures are logged with the check name; the response does not say which
// dependency failed.
func Readiness[C handler.Context](log *slog.Logger, checks ...Check) handler.HandlerFunc[C] {
	if log == nil {
		log = logger.Discard()
	}

	return func(ctx C) handler.Response {
		for _, c := range checks {
			checkCtx, cancel := context.WithTimeout(ctx, DefaultCheckTimeout)
			err := c.Fn(checkCtx)
			cancel()
			if err != nil {
				log.ErrorContext(ctx, "readiness check failed",
					logger.Component("health"),
					logger.Key("check", c.Name),
					logger.Error(err))
				return response.Error(response.ErrServiceUnavailable)
			}
		}

		return response.String("READY")
	}
}
