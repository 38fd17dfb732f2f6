package csrf

import (
	"net/http"
	"time"
)

// Option configures Protection.
type Option func(*Protection)

// WithTokenLength sets the number of random bytes per token.
func WithTokenLength(n int) Option {
	return func(p *Protection) {
		p.tokenLength = n
	}
}

// WithMaxAge sets the token lifetime.
func WithMaxAge(d time.Duration) Option {
	return func(p *Protection) {
		p.maxAge = d
	}
}

func WithCookieName(name string) Option {
	return func(p *Protection) {
		if name != "" {
			p.cookieName = name
		}
	}
}

// WithHeaderName sets the request header carrying the token. Lookup is
// case-insensitive.
func WithHeaderName(name string) Option {
	return func(p *Protection) {
		if name != "" {
			p.headerName = http.CanonicalHeaderKey(name)
		}
	}
}

// WithFormField sets the form field used when the header is absent.
func WithFormField(name string) Option {
	return func(p *Protection) {
		if name != "" {
			p.formField = name
		}
	}
}

func WithDomain(domain string) Option {
	return func(p *Protection) {
		p.cookie.domain = domain
	}
}

func WithHTTPOnly(httpOnly bool) Option {
	return func(p *Protection) {
		p.cookie.httpOnly = httpOnly
	}
}

func WithSecure(secure bool) Option {
	return func(p *Protection) {
		p.cookie.secure = secure
	}
}

func WithSameSite(sameSite http.SameSite) Option {
	return func(p *Protection) {
		p.cookie.sameSite = sameSite
	}
}

// WithProduction forces the Secure cookie attribute when enabled.
func WithProduction(production bool) Option {
	return func(p *Protection) {
		p.production = production
	}
}

// WithStore enables single-use tokens.
func WithStore(s Store) Option {
	return func(p *Protection) {
		p.store = s
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Protection) {
		if now != nil {
			p.now = now
		}
	}
}
