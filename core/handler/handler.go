package handler

import "net/http"

// Response is a function that renders HTTP responses.
// It sets headers, status code, and writes the response body.
// Rendering errors are passed to the ErrorHandler.
type Response func(w http.ResponseWriter, r *http.Request) error

// HandlerFunc is a type-safe HTTP request handler with custom context support.
type HandlerFunc[C Context] func(ctx C) Response

// ErrorHandler handles errors during request processing.
type ErrorHandler[C Context] func(ctx C, err error)

// Middleware wraps handlers to add cross-cutting functionality.
type Middleware[C Context] func(next HandlerFunc[C]) HandlerFunc[C]

// Chain builds a single handler from a middleware stack and endpoint.
// The first middleware in the slice runs first.
func Chain[C Context](endpoint HandlerFunc[C], middlewares ...Middleware[C]) HandlerFunc[C] {
	h := endpoint
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// HTTP adapts a HandlerFunc to net/http. newContext builds the request
// context; errorHandler receives rendering errors and nil responses.
func HTTP[C Context](
	h HandlerFunc[C],
	newContext func(w http.ResponseWriter, r *http.Request) C,
	errorHandler ErrorHandler[C],
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := newContext(w, r)

		resp := h(ctx)
		if resp == nil {
			if errorHandler != nil {
				errorHandler(ctx, ErrNilResponse)
			}
			return
		}

		if err := resp(w, ctx.Request()); err != nil && errorHandler != nil {
			errorHandler(ctx, err)
		}
	})
}
