package csrf

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// MaxCookieSize is the largest Set-Cookie value browsers reliably keep.
const MaxCookieSize = 4096

var (
	ErrCookieNotFound = errors.New("csrf: cookie not found")
	ErrCookieTooLarge = errors.New("csrf: cookie exceeds size limit")
)

// SetCookie writes the cookie carrying t. It refuses cookies a browser
// would silently drop.
func (p *Protection) SetCookie(w http.ResponseWriter, t Token) error {
	c := p.Cookie(t)
	if size := len(c.String()); size > MaxCookieSize {
		return fmt.Errorf("%w: %q is %d bytes, max %d", ErrCookieTooLarge, c.Name, size, MaxCookieSize)
	}
	http.SetCookie(w, c)
	return nil
}

// ReadCookie returns the raw cookie value. An empty cookie counts as missing.
func (p *Protection) ReadCookie(r *http.Request) (string, error) {
	c, err := r.Cookie(p.cookieName)
	if err != nil || c.Value == "" {
		return "", ErrCookieNotFound
	}
	return c.Value, nil
}

// ClearCookie expires the cookie with the attributes it was set with.
func (p *Protection) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.cookieName,
		Value:    "",
		Path:     "/",
		Domain:   p.cookie.domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: p.cookie.httpOnly,
		Secure:   p.cookie.secure || p.production,
		SameSite: p.cookie.sameSite,
	})
}
