// Package csrf issues and verifies double-submit CSRF tokens.
//
// A token is random hex bound to an expiry and a server secret:
//
//	hash = hex(SHA-256(value + "." + expires + "." + secret))
//
// and travels as "value.expires.hash" in both a cookie and a request header
// (or form field). Verification rejects missing tokens, cookie/header
// mismatch, malformed tokens, expiry and hash mismatch, each with its own
// sentinel error. The hash comparison is constant time.
//
//	p, err := csrf.New(os.Getenv("CSRF_SECRET"))
//	if err != nil {
//		return err // secret shorter than 32 characters
//	}
//
//	tok, err := p.GenerateToken()
//	http.SetCookie(w, p.Cookie(tok))
//	w.Header().Set(p.HeaderName(), tok.String())
//
//	if err := p.Verify(r.Header.Get(p.HeaderName()), cookieValue); err != nil {
//		// respond 403 without revealing err
//	}
//
// With WithStore, VerifyOnce also rejects replayed tokens. MemoryStore works
// for a single instance; RedisStore shares state across instances.
package csrf
