package csrf

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTokenLength = 32
	DefaultMaxAge      = time.Hour
	DefaultCookieName  = "csrf-token"
	DefaultHeaderName  = "X-CSRF-Token"
	DefaultFormField   = "csrf_token"

	// MinSecretLength is the minimum accepted secret length.
	MinSecretLength = 32
)

// Token is an issued CSRF token. Expires is in Unix milliseconds.
type Token struct {
	Value   string `json:"value"`
	Expires int64  `json:"expires"`
	Hash    string `json:"hash"`
}

// String returns the wire form value.expires.hash, used for both the
// cookie and the header or form field.
func (t Token) String() string {
	return t.Value + "." + strconv.FormatInt(t.Expires, 10) + "." + t.Hash
}

// ExpiresAt returns Expires as time.
func (t Token) ExpiresAt() time.Time {
	return time.UnixMilli(t.Expires)
}

// ParseToken splits the wire form. It does not check the hash or expiry.
func ParseToken(s string) (Token, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return Token{}, ErrTokenMalformed
	}
	expires, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Token{}, fmt.Errorf("%w: expires: %v", ErrTokenMalformed, err)
	}
	return Token{Value: parts[0], Expires: expires, Hash: parts[2]}, nil
}

// Protection issues and verifies double-submit tokens bound to a server
// secret. It is immutable after New and safe for concurrent use.
type Protection struct {
	secret      string
	tokenLength int
	maxAge      time.Duration
	cookieName  string
	headerName  string
	formField   string
	cookie      cookieOptions
	production  bool
	store       Store
	now         func() time.Time
}

type cookieOptions struct {
	domain   string
	httpOnly bool
	secure   bool
	sameSite http.SameSite
}

// New creates Protection. It fails with ErrSecretTooShort when the secret
// has fewer than 32 characters.
func New(secret string, opts ...Option) (*Protection, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: got %d chars, need at least %d", ErrSecretTooShort, len(secret), MinSecretLength)
	}

	p := &Protection{
		secret:      secret,
		tokenLength: DefaultTokenLength,
		maxAge:      DefaultMaxAge,
		cookieName:  DefaultCookieName,
		headerName:  DefaultHeaderName,
		formField:   DefaultFormField,
		cookie: cookieOptions{
			httpOnly: true,
			sameSite: http.SameSiteStrictMode,
		},
		now: time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.tokenLength <= 0 || p.maxAge <= 0 {
		return nil, fmt.Errorf("%w: token length and max age must be positive", ErrInvalidConfig)
	}

	return p, nil
}

// GenerateToken draws TokenLength random bytes and binds them to an expiry
// MaxAge from now.
func (p *Protection) GenerateToken() (Token, error) {
	buf := make([]byte, p.tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return Token{}, fmt.Errorf("csrf: generate token: %w", err)
	}

	value := hex.EncodeToString(buf)
	expires := p.now().Add(p.maxAge).UnixMilli()

	return Token{
		Value:   value,
		Expires: expires,
		Hash:    p.hash(value, expires),
	}, nil
}

func (p *Protection) hash(value string, expires int64) string {
	sum := sha256.Sum256([]byte(value + "." + strconv.FormatInt(expires, 10) + "." + p.secret))
	return hex.EncodeToString(sum[:])
}

// Verify checks a presented token against the cookie token. The returned
// error identifies the cause for logging; it must not reach the client.
func (p *Protection) Verify(presented, cookie string) error {
	if presented == "" || cookie == "" {
		return ErrTokenMissing
	}

	// Both values are visible to the client, so plain equality is enough.
	if presented != cookie {
		return ErrTokenMismatch
	}

	tok, err := ParseToken(presented)
	if err != nil {
		return err
	}

	if p.now().UnixMilli() > tok.Expires {
		return ErrTokenExpired
	}

	expected := p.hash(tok.Value, tok.Expires)
	if len(expected) != len(tok.Hash) || subtle.ConstantTimeCompare([]byte(expected), []byte(tok.Hash)) != 1 {
		return ErrTokenInvalid
	}

	return nil
}

// ValidateToken reports whether Verify succeeds.
func (p *Protection) ValidateToken(presented, cookie string) bool {
	return p.Verify(presented, cookie) == nil
}

// VerifyOnce runs Verify and, when a Store is configured, rejects tokens
// that were already accepted.
func (p *Protection) VerifyOnce(ctx context.Context, presented, cookie string) error {
	if err := p.Verify(presented, cookie); err != nil {
		return err
	}
	if p.store == nil {
		return nil
	}

	tok, _ := ParseToken(presented)
	ttl := tok.ExpiresAt().Sub(p.now())
	if ttl <= 0 {
		return ErrTokenExpired
	}

	first, err := p.store.Consume(ctx, presented, ttl)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if !first {
		return ErrTokenReused
	}
	return nil
}

// Cookie builds the cookie carrying t. Secure is always set in production.
func (p *Protection) Cookie(t Token) *http.Cookie {
	return &http.Cookie{
		Name:     p.cookieName,
		Value:    t.String(),
		Path:     "/",
		Domain:   p.cookie.domain,
		MaxAge:   int(p.maxAge / time.Second),
		Expires:  t.ExpiresAt(),
		HttpOnly: p.cookie.httpOnly,
		Secure:   p.cookie.secure || p.production,
		SameSite: p.cookie.sameSite,
	}
}

func (p *Protection) CookieName() string { return p.cookieName }
func (p *Protection) HeaderName() string { return p.headerName }
func (p *Protection) FormField() string  { return p.formField }

// SingleUse reports whether a replay Store is configured.
func (p *Protection) SingleUse() bool { return p.store != nil }
