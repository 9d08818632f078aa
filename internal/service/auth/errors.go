package auth

import "errors"

// Common authentication service errors
var (
	// ErrInvalidToken indicates the token format is invalid or signature doesn't match
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrWrongTokenType indicates the token's type claim does not match the
	// expected type for the operation (e.g. an access token presented for
	// refresh). No cross-type fallback is attempted.
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrTokenRevoked indicates the token is cryptographically valid but its
	// mirror record is gone, i.e. the session was revoked or superseded.
	ErrTokenRevoked = errors.New("authentication token has been revoked")

	// ErrMissingToken indicates a token was expected but not provided
	ErrMissingToken = errors.New("authentication token is missing")
)
