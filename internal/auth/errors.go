package auth

import "errors"

// Internal failure kinds for token validation. Validation collapses all of
// them except ErrRegistryUnavailable into a plain boolean at the public
// boundary so callers cannot distinguish why a token was rejected.
var (
	ErrMalformedEnvelope   = errors.New("malformed token envelope")
	ErrInvalidSignature    = errors.New("invalid token signature")
	ErrMalformedClaims     = errors.New("malformed token claims")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenBlacklisted    = errors.New("token blacklisted")
	ErrTokenNotCurrent     = errors.New("token is not the current token for the user")
	ErrRegistryUnavailable = errors.New("session registry unavailable")
)
