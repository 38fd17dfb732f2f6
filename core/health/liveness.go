package health

import (
	"github.com/dmitrymomot/portalguard/core/handler"
	"github.com/dmitrymomot/portalguard/core/response"
)

// Liveness always answers "ALIVE". It checks no dependencies.
func Liveness[C handler.Context](C) handler.Response {
	return response.String("ALIVE")
}
