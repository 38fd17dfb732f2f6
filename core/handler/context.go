package handler

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrNilResponse is reported when a handler returns no response.
var ErrNilResponse = errors.New("nil response")

// Context defines the contract for request contexts in the framework.
// Use *BaseContext for the default implementation.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	SetValue(key, val any)
}

// BaseContext is the default context implementation that delegates to the request's context.
type BaseContext struct {
	w http.ResponseWriter
	r *http.Request
}

// NewContext creates a BaseContext for the given request.
func NewContext(w http.ResponseWriter, r *http.Request) *BaseContext {
	return &BaseContext{w: w, r: r}
}

// Deadline returns the time when work done on behalf of this context should be canceled.
func (c *BaseContext) Deadline() (deadline time.Time, ok bool) {
	return c.r.Context().Deadline()
}

// Done returns a channel that's closed when work done on behalf of this context should be canceled.
func (c *BaseContext) Done() <-chan struct{} {
	return c.r.Context().Done()
}

// Err returns a non-nil error value after Done is closed.
func (c *BaseContext) Err() error {
	return c.r.Context().Err()
}

// Value returns the value associated with this context for key.
func (c *BaseContext) Value(key any) any {
	return c.r.Context().Value(key)
}

// SetValue stores a value in the request's context.
// Values set here are visible to the request passed to the response renderer.
func (c *BaseContext) SetValue(key, val any) {
	ctx := context.WithValue(c.r.Context(), key, val)
	c.r = c.r.WithContext(ctx)
}

// Request returns the HTTP request associated with this context.
func (c *BaseContext) Request() *http.Request {
	return c.r
}

// ResponseWriter returns the HTTP response writer associated with this context.
func (c *BaseContext) ResponseWriter() http.ResponseWriter {
	return c.w
}
