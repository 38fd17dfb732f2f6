// Package csp builds nonce-based Content-Security-Policy headers.
//
// A fresh nonce is generated per response and placed in script-src and
// style-src. Production policies add 'strict-dynamic' (when strict mode is
// on) and upgrade-insecure-requests; development policies allow
// 'unsafe-eval' scripts, 'unsafe-inline' styles and localhost connections.
// frame-ancestors 'none', base-uri 'self', form-action 'self' and
// object-src 'none' are always present.
//
//	nonce, err := csp.NewNonce()
//	if err != nil {
//		return err
//	}
//	w.Header().Set("Content-Security-Policy", csp.Build(cfg, nonce))
//
// The HTTP middleware lives in the middleware package (middleware.CSP).
package csp
