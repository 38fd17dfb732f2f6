package csrf

import "errors"

var (
	ErrSecretTooShort = errors.New("csrf: secret must be at least 32 characters long")
	ErrInvalidConfig  = errors.New("csrf: invalid configuration")

	// Verification failures. Callers must not reveal which one occurred.
	ErrTokenMissing   = errors.New("csrf: token missing")
	ErrTokenMismatch  = errors.New("csrf: cookie and request token differ")
	ErrTokenMalformed = errors.New("csrf: token malformed")
	ErrTokenExpired   = errors.New("csrf: token expired")
	ErrTokenInvalid   = errors.New("csrf: token hash mismatch")
	ErrTokenReused    = errors.New("csrf: token already used")

	ErrStoreUnavailable = errors.New("csrf: replay store unavailable")
)
