// Package portal assembles the security stack for a portal frontend:
// configuration, logging, CSRF protection with an optional replay store,
// CSP headers, input sanitization, health probes and the HTTP server.
//
//	cfg, err := portal.LoadConfig()
//	app, err := portal.New(ctx, cfg)
//	err = app.Run(ctx, app.Routes(pages))
//
// Outside production an unset CSRF_SECRET falls back to
// DevelopmentCSRFSecret with a warning; in production New fails with
// ErrMissingCSRFSecret.
package portal
