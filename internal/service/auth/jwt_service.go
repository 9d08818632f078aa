package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Token type claim values.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	TokenTypeReset   = "reset"
)

// JWTService defines the signing and parsing primitives for the three token
// kinds issued by the application. Liveness (revocation) is tracked
// separately by the SessionStore; a valid signature alone does not make a
// token usable.
type JWTService interface {
	// GenerateAccessToken creates a signed JWT access token carrying the
	// user's identity. Returns the token string or an error if signing fails.
	GenerateAccessToken(ctx context.Context, userID uuid.UUID, email string) (string, error)

	// GenerateRefreshToken creates a signed JWT refresh token. Refresh
	// tokens have a longer lifetime and are used to obtain new token pairs.
	GenerateRefreshToken(ctx context.Context, userID uuid.UUID, email string) (string, error)

	// GenerateResetToken creates a signed short-lived password-reset token.
	GenerateResetToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateAccessToken verifies signature, expiry and the "access" type
	// claim, returning the claims on success. Returns ErrExpiredToken,
	// ErrWrongTokenType or ErrInvalidToken on failure.
	ValidateAccessToken(ctx context.Context, tokenString string) (*Claims, error)

	// ValidateRefreshToken verifies signature, expiry and the "refresh"
	// type claim. A structurally valid token with a different type claim is
	// rejected with ErrWrongTokenType; no access-token fallback is attempted.
	ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error)

	// ValidateResetToken verifies signature, expiry and the "reset" type claim.
	ValidateResetToken(ctx context.Context, tokenString string) (*Claims, error)

	// DecodeClaims verifies the signature and returns the claims without
	// enforcing expiry or type. Used by logout, where an expired token must
	// still reveal which user's sessions to purge.
	DecodeClaims(ctx context.Context, tokenString string) (*Claims, error)

	// AccessTokenLifetime returns the configured access token lifetime.
	AccessTokenLifetime() time.Duration

	// RefreshTokenLifetime returns the configured refresh token lifetime.
	RefreshTokenLifetime() time.Duration

	// ResetTokenLifetime returns the configured password-reset token lifetime.
	ResetTokenLifetime() time.Duration
}

// Claims represents the custom claims structure for the JWT tokens.
// It extends standard JWT registered claims with application-specific fields.
type Claims struct {
	// UserID is the unique identifier of the user the token was issued for.
	UserID uuid.UUID `json:"uid,omitempty"`

	// Email is the user's email at issue time, carried so validation can
	// serve identity without an extra store round trip.
	Email string `json:"email,omitempty"`

	// TokenType indicates the purpose of the token ("access", "refresh" or
	// "reset"). Used to prevent token misuse across different contexts.
	TokenType string `json:"type,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
