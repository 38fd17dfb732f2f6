// Package response provides the HTTP response builders used by the security
// middleware: plain text and JSON bodies, a structured HTTPError type, and
// error handlers that render errors as text or JSON.
//
//	func handle(ctx *handler.BaseContext) handler.Response {
//		if !allowed {
//			return response.Error(response.ErrForbidden.WithMessage("request blocked"))
//		}
//		return response.JSON(map[string]string{"status": "ok"})
//	}
package response
