// Package health provides liveness and readiness handlers.
//
//	mux.Handle("/health/live", handler.HTTP(health.Liveness[*handler.BaseContext], handler.NewContext, nil))
//	mux.Handle("/health/ready", handler.HTTP(
//		health.Readiness[*handler.BaseContext](log, health.Check{Name: "redis", Fn: redis.Healthcheck(client)}),
//		handler.NewContext,
//		response.JSONErrorHandler[*handler.BaseContext],
//	))
package health
