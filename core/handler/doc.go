// Package handler defines the type-safe handler abstractions the middleware in
// this module is written against.
//
// A handler receives a request context and returns a Response closure that
// renders the result. Middleware wrap handlers and may replace or decorate the
// returned Response, which lets them set headers after the inner handler has
// run but before anything is written.
//
//	h := handler.Chain(
//		func(ctx *handler.BaseContext) handler.Response {
//			return response.JSON(map[string]string{"status": "ok"})
//		},
//		middleware.RequestID[*handler.BaseContext](),
//		middleware.CSP[*handler.BaseContext](csp.Config{}),
//	)
//
//	http.Handle("/", handler.HTTP(h, handler.NewContext, response.JSONErrorHandler[*handler.BaseContext]))
package handler
