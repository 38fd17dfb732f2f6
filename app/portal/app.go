package portal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/portalguard/core/handler"
	"github.com/dmitrymomot/portalguard/core/health"
	"github.com/dmitrymomot/portalguard/core/logger"
	"github.com/dmitrymomot/portalguard/core/response"
	"github.com/dmitrymomot/portalguard/core/sanitizer"
	"github.com/dmitrymomot/portalguard/core/server"
	"github.com/dmitrymomot/portalguard/integration/database/redis"
	"github.com/dmitrymomot/portalguard/middleware"
	"github.com/dmitrymomot/portalguard/pkg/csrf"
)

// Context is the request context used by portal handlers.
type Context = *handler.BaseContext

// DefaultInputFields types the form keys portal pages share.
var DefaultInputFields = map[string]sanitizer.FieldConfig{
	"email": {Type: sanitizer.FieldEmail},
	"phone": {Type: sanitizer.FieldPhone},
}

// App wires the security stack for one portal frontend.
type App struct {
	config     Config
	logger     *slog.Logger
	sanitizer  *sanitizer.Sanitizer
	fields     map[string]sanitizer.FieldConfig
	protection *csrf.Protection
	memStore   *csrf.MemoryStore
	redis      *goredis.Client
	ownsRedis  bool
	server     *server.Server
}

type Option func(*App) error

func WithLogger(log *slog.Logger) Option {
	return func(app *App) error {
		app.logger = log
		return nil
	}
}

// WithRedisClient supplies the client for the redis replay store and the
// readiness check. The caller keeps ownership of it.
func WithRedisClient(client *goredis.Client) Option {
	return func(app *App) error {
		app.redis = client
		return nil
	}
}

func WithSanitizer(s *sanitizer.Sanitizer) Option {
	return func(app *App) error {
		app.sanitizer = s
		return nil
	}
}

// WithInputFields replaces DefaultInputFields.
func WithInputFields(fields map[string]sanitizer.FieldConfig) Option {
	return func(app *App) error {
		app.fields = fields
		return nil
	}
}

// New builds the application from cfg. A Redis connection is opened only
// when single-use tokens use the redis replay store and no client was
// supplied.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	app := &App{config: cfg}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.logger == nil {
		logOpts := []logger.Option{logger.WithEnvironment(cfg.Env, cfg.AppName)}
		if cfg.LogLevel != "" {
			logOpts = append(logOpts, logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
		}
		app.logger = logger.New(logOpts...)
	}
	if app.sanitizer == nil {
		app.sanitizer = sanitizer.New()
	}
	if app.fields == nil {
		app.fields = DefaultInputFields
	}

	if err := app.initCSRF(ctx); err != nil {
		app.Close()
		return nil, err
	}

	s, err := server.NewFromConfig(cfg.Server, server.WithLogger(app.logger))
	if err != nil {
		app.Close()
		return nil, err
	}
	app.server = s

	return app, nil
}

func (app *App) initCSRF(ctx context.Context) error {
	secret, fallback, err := app.config.csrfSecret()
	if err != nil {
		return err
	}
	if fallback {
		app.logger.Warn("CSRF_SECRET is not set, using the development secret",
			logger.Component("csrf"))
	}

	csrfCfg := app.config.CSRF
	csrfCfg.Secret = secret
	csrfCfg.Production = app.config.IsProduction()

	var opts []csrf.Option
	if csrfCfg.SingleUse {
		store, err := app.replayStore(ctx)
		if err != nil {
			return err
		}
		opts = append(opts, csrf.WithStore(store))
	}

	p, err := csrf.NewFromConfig(csrfCfg, opts...)
	if err != nil {
		return err
	}
	app.protection = p
	return nil
}

func (app *App) replayStore(ctx context.Context) (csrf.Store, error) {
	switch app.config.ReplayStore {
	case "", ReplayStoreMemory:
		app.memStore = csrf.NewMemoryStore(csrf.WithMemoryStoreLogger(app.logger))
		return app.memStore, nil
	case ReplayStoreRedis:
		if app.redis == nil {
			client, err := redis.Connect(ctx, app.config.Redis)
			if err != nil {
				return nil, err
			}
			app.redis = client
			app.ownsRedis = true
		}
		return csrf.NewRedisStore(app.redis, ""), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownReplayStore, app.config.ReplayStore)
	}
}

func (app *App) Config() Config { return app.config }
func (app *App) Logger() *slog.Logger { return app.logger }
func (app *App) Sanitizer() *sanitizer.Sanitizer { return app.sanitizer }
func (app *App) Protection() *csrf.Protection { return app.protection }
func (app *App) Server() *server.Server { return app.server }

// Middleware returns the security stack in execution order.
func (app *App) Middleware() []handler.Middleware[Context] {
	policy := app.config.CSP
	policy.IsDevelopment = app.config.IsDevelopment()

	return []handler.Middleware[Context]{
		middleware.RequestID[Context](),
		middleware.LoggingWithLogger[Context](app.logger),
		middleware.CSPWithConfig[Context](middleware.CSPConfig{
			Policy:     policy,
			Production: app.config.IsProduction(),
			Logger:     app.logger,
		}),
		middleware.BodyLimitWithSize[Context](app.config.BodyLimit),
		middleware.CSRFWithConfig[Context](middleware.CSRFConfig{
			Protection:     app.protection,
			BypassPrefixes: app.config.CSRF.BypassPrefixes,
			Logger:         app.logger,
		}),
		middleware.SanitizeInputWithConfig[Context](middleware.SanitizeInputConfig{
			Sanitizer: app.sanitizer,
			Fields:    app.fields,
			Logger:    app.logger,
		}),
	}
}

// Handler wraps endpoint with the security stack.
func (app *App) Handler(endpoint handler.HandlerFunc[Context]) http.Handler {
	return handler.HTTP(
		handler.Chain(endpoint, app.Middleware()...),
		handler.NewContext,
		response.JSONErrorHandler[Context],
	)
}

// Routes mounts the health probes and the portal API. pages, when not nil,
// serves everything else behind the same stack.
func (app *App) Routes(pages handler.HandlerFunc[Context]) http.Handler {
	var checks []health.Check
	if app.redis != nil {
		checks = append(checks, health.Check{Name: "redis", Fn: redis.Healthcheck(app.redis)})
	}

	probe := func(h handler.HandlerFunc[Context]) http.Handler {
		return handler.HTTP(h, handler.NewContext, response.ErrorHandler[Context])
	}

	mux := http.NewServeMux()
	mux.Handle("GET /health/live", probe(health.Liveness[Context]))
	mux.Handle("GET /health/ready", probe(health.Readiness[Context](app.logger, checks...)))
	mux.Handle("GET /api/csrf-token", app.Handler(app.TokenEndpoint))
	mux.Handle("POST /api/contact", app.Handler(app.ContactEndpoint))
	if pages != nil {
		mux.Handle("/", app.Handler(pages))
	}
	return mux
}

// Run serves h until ctx is cancelled, together with the replay store
// cleanup when the memory store is in use. Owned connections are closed
// on return.
func (app *App) Run(ctx context.Context, h http.Handler) error {
	defer app.Close()

	eg, ctx := errgroup.WithContext(ctx)
	if app.memStore != nil {
		eg.Go(app.memStore.Run(ctx))
	}
	eg.Go(app.server.Run(ctx, h))

	app.logger.InfoContext(ctx, "portal starting",
		logger.Key("app", app.config.AppName),
		logger.Key("env", app.config.Env),
		logger.Key("addr", app.config.Server.Addr))

	return eg.Wait()
}

// Close releases the Redis client if New opened it.
func (app *App) Close() {
	if app.ownsRedis && app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("failed to close redis client", logger.Error(err))
		}
		app.redis = nil
		app.ownsRedis = false
	}
}
