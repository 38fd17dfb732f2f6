package portal_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/portalguard/app/portal"
	"github.com/dmitrymomot/portalguard/core/handler"
	"github.com/dmitrymomot/portalguard/core/logger"
	"github.com/dmitrymomot/portalguard/core/response"
	"github.com/dmitrymomot/portalguard/middleware"
	"github.com/dmitrymomot/portalguard/pkg/csrf"
)

func newApp(t *testing.T, mutate func(*portal.Config), opts ...portal.Option) *portal.App {
	t.Helper()
	cfg := portal.DefaultConfig()
	cfg.CSRF.Secret = "0123456789abcdef0123456789abcdef"
	if mutate != nil {
		mutate(&cfg)
	}
	opts = append([]portal.Option{portal.WithLogger(logger.Discard())}, opts...)
	app, err := portal.New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

// fetchToken performs the page load that issues the CSRF cookie.
func fetchToken(t *testing.T, h http.Handler) (portal.TokenResponse, *http.Cookie) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body portal.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	for _, c := range w.Result().Cookies() {
		if c.Name == csrf.DefaultCookieName {
			return body, c
		}
	}
	t.Fatal("csrf cookie not issued")
	return body, nil
}

func contactRequest(form url.Values, cookie *http.Cookie, token string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	if token != "" {
		req.Header.Set(csrf.DefaultHeaderName, token)
	}
	return req
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("development defaults", func(t *testing.T) {
		t.Parallel()
		cfg := portal.DefaultConfig()
		app, err := portal.New(context.Background(), cfg, portal.WithLogger(logger.Discard()))
		require.NoError(t, err)
		defer app.Close()

		assert.NotNil(t, app.Protection())
		assert.False(t, app.Protection().SingleUse())
		assert.NotNil(t, app.Server())
		assert.NotNil(t, app.Sanitizer())
	})

	t.Run("production requires secret", func(t *testing.T) {
		t.Parallel()
		cfg := portal.DefaultConfig()
		cfg.Env = "production"
		_, err := portal.New(context.Background(), cfg, portal.WithLogger(logger.Discard()))
		assert.ErrorIs(t, err, portal.ErrMissingCSRFSecret)
	})

	t.Run("short secret", func(t *testing.T) {
		t.Parallel()
		cfg := portal.DefaultConfig()
		cfg.CSRF.Secret = "short"
		_, err := portal.New(context.Background(), cfg, portal.WithLogger(logger.Discard()))
		assert.ErrorIs(t, err, csrf.ErrSecretTooShort)
	})

	t.Run("single use with memory store", func(t *testing.T) {
		t.Parallel()
		app := newApp(t, func(c *portal.Config) { c.CSRF.SingleUse = true })
		assert.True(t, app.Protection().SingleUse())
	})

	t.Run("single use with supplied redis client", func(t *testing.T) {
		t.Parallel()
		client, _ := redismock.NewClientMock()
		app := newApp(t, func(c *portal.Config) {
			c.CSRF.SingleUse = true
			c.ReplayStore = portal.ReplayStoreRedis
		}, portal.WithRedisClient(client))
		assert.True(t, app.Protection().SingleUse())
	})

	t.Run("unknown replay store", func(t *testing.T) {
		t.Parallel()
		cfg := portal.DefaultConfig()
		cfg.CSRF.SingleUse = true
		cfg.ReplayStore = "memcached"
		_, err := portal.New(context.Background(), cfg, portal.WithLogger(logger.Discard()))
		assert.ErrorIs(t, err, portal.ErrUnknownReplayStore)
	})

	t.Run("invalid server config", func(t *testing.T) {
		t.Parallel()
		cfg := portal.DefaultConfig()
		cfg.Server.Addr = ""
		_, err := portal.New(context.Background(), cfg, portal.WithLogger(logger.Discard()))
		assert.Error(t, err)
	})
}

func TestConfigEnvironment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env         string
		production  bool
		development bool
	}{
		{"production", true, false},
		{"PROD", true, false},
		{"staging", false, false},
		{"development", false, true},
		{"local", false, true},
		{"", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()
			cfg := portal.Config{Env: tt.env}
			assert.Equal(t, tt.production, cfg.IsProduction())
			assert.Equal(t, tt.development, cfg.IsDevelopment())
		})
	}
}

func TestRoutesHealth(t *testing.T) {
	t.Parallel()

	t.Run("liveness", func(t *testing.T) {
		t.Parallel()
		h := newApp(t, nil).Routes(nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ALIVE", w.Body.String())
	})

	t.Run("readiness pings redis", func(t *testing.T) {
		t.Parallel()
		client, mock := redismock.NewClientMock()
		mock.ExpectPing().SetVal("PONG")

		h := newApp(t, nil, portal.WithRedisClient(client)).Routes(nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "READY", w.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("readiness fails when redis is down", func(t *testing.T) {
		t.Parallel()
		client, mock := redismock.NewClientMock()
		mock.ExpectPing().SetErr(assert.AnError)

		h := newApp(t, nil, portal.WithRedisClient(client)).Routes(nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.NotContains(t, w.Body.String(), "redis")
	})
}

func TestTokenEndpoint(t *testing.T) {
	t.Parallel()

	h := newApp(t, nil).Routes(nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body portal.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.CSRFToken)
	assert.NotEmpty(t, body.Nonce)
	assert.Equal(t, body.CSRFToken, w.Header().Get(csrf.DefaultHeaderName))
	assert.Equal(t, body.Nonce, w.Header().Get(middleware.DefaultNonceHeader))

	policy := w.Header().Get("Content-Security-Policy")
	assert.Contains(t, policy, "'nonce-"+body.Nonce+"'")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	assert.NotEmpty(t, w.Header().Get(middleware.DefaultRequestIDHeader))
}

func TestTokenEndpointProductionHeaders(t *testing.T) {
	t.Parallel()

	h := newApp(t, func(c *portal.Config) { c.Env = "production" }).Routes(nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, middleware.HSTSValue, w.Header().Get("Strict-Transport-Security"))
	for _, c := range w.Result().Cookies() {
		if c.Name == csrf.DefaultCookieName {
			assert.True(t, c.Secure)
		}
	}
}

func TestContactEndpoint(t *testing.T) {
	t.Parallel()

	validForm := func() url.Values {
		return url.Values{
			"name":    {"Jane Doe"},
			"email":   {"Jane@Example.com"},
			"message": {"Please call me about my fibre plan."},
		}
	}

	t.Run("rejects missing token", func(t *testing.T) {
		t.Parallel()
		h := newApp(t, nil).Routes(nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, contactRequest(validForm(), nil, ""))

		assert.Equal(t, http.StatusForbidden, w.Code)
		var body middleware.CSRFErrorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, middleware.CSRFErrorCode, body.Code)
		assert.Equal(t, middleware.CSRFErrorMessage, body.Error)
	})

	t.Run("accepts form with header token", func(t *testing.T) {
		t.Parallel()
		h := newApp(t, nil).Routes(nil)
		tok, cookie := fetchToken(t, h)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, contactRequest(validForm(), cookie, tok.CSRFToken))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var body portal.ContactResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "received", body.Status)
		assert.Equal(t, "Jane Doe", body.Name)
		assert.Equal(t, "jane@example.com", body.Email)
		assert.False(t, body.Sanitized)
	})

	t.Run("accepts form field token", func(t *testing.T) {
		t.Parallel()
		h := newApp(t, nil).Routes(nil)
		tok, cookie := fetchToken(t, h)

		form := validForm()
		form.Set(csrf.DefaultFormField, tok.CSRFToken)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, contactRequest(form, cookie, ""))
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("strips script from name", func(t *testing.T) {
		t.Parallel()
		h := newApp(t, nil).Routes(nil)
		tok, cookie := fetchToken(t, h)

		form := validForm()
		form.Set("name", `Jane<script>alert("x")</script>`)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, contactRequest(form, cookie, tok.CSRFToken))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var body portal.ContactResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.NotContains(t, body.Name, "<script")
		assert.NotContains(t, body.Name, "alert")
		assert.True(t, body.Sanitized)
	})

	t.Run("invalid email is unprocessable", func(t *testing.T) {
		t.Parallel()
		h := newApp(t, nil).Routes(nil)
		tok, cookie := fetchToken(t, h)

		form := validForm()
		form.Set("email", "not-an-email")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, contactRequest(form, cookie, tok.CSRFToken))
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var body response.HTTPError
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Contains(t, body.Details, "fields")
	})

	t.Run("accepts json body", func(t *testing.T) {
		t.Parallel()
		h := newApp(t, nil).Routes(nil)
		tok, cookie := fetchToken(t, h)

		payload := `{"name":"  Jane  ","email":" JANE@EXAMPLE.COM ","message":"Router keeps dropping the connection."}`
		req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(csrf.DefaultHeaderName, tok.CSRFToken)
		req.AddCookie(cookie)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var body portal.ContactResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Jane", body.Name)
		assert.Equal(t, "jane@example.com", body.Email)
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()
		h := newApp(t, nil).Routes(nil)
		tok, cookie := fetchToken(t, h)

		req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(csrf.DefaultHeaderName, tok.CSRFToken)
		req.AddCookie(cookie)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("single use token cannot be replayed", func(t *testing.T) {
		t.Parallel()
		h := newApp(t, func(c *portal.Config) { c.CSRF.SingleUse = true }).Routes(nil)
		tok, cookie := fetchToken(t, h)

		first := httptest.NewRecorder()
		h.ServeHTTP(first, contactRequest(validForm(), cookie, tok.CSRFToken))
		require.Equal(t, http.StatusOK, first.Code, first.Body.String())

		replay := httptest.NewRecorder()
		h.ServeHTTP(replay, contactRequest(validForm(), cookie, tok.CSRFToken))
		assert.Equal(t, http.StatusForbidden, replay.Code)
	})

	t.Run("body limit", func(t *testing.T) {
		t.Parallel()
		h := newApp(t, func(c *portal.Config) { c.BodyLimit = 64 }).Routes(nil)
		tok, cookie := fetchToken(t, h)

		form := validForm()
		form.Set("message", strings.Repeat("a", 200))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, contactRequest(form, cookie, tok.CSRFToken))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestRoutesPages(t *testing.T) {
	t.Parallel()

	app := newApp(t, nil)
	h := app.Routes(func(ctx portal.Context) handler.Response {
		token, _ := middleware.GetCSRFToken(ctx)
		return response.String("form:" + token)
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/account", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "form:"))
	assert.NotEqual(t, "form:", w.Body.String())
}
