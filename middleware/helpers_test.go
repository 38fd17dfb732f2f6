package middleware_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/dmitrymomot/portalguard/core/handler"
	"github.com/dmitrymomot/portalguard/core/response"
)

type baseCtx = *handler.BaseContext

func okEndpoint(_ baseCtx) handler.Response {
	return response.String("ok")
}

// serve runs req through the endpoint wrapped with mws, rendering errors
// as JSON.
func serve(endpoint handler.HandlerFunc[baseCtx], req *http.Request, mws ...handler.Middleware[baseCtx]) *httptest.ResponseRecorder {
	h := handler.HTTP(handler.Chain(endpoint, mws...), handler.NewContext, response.JSONErrorHandler[baseCtx])
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
