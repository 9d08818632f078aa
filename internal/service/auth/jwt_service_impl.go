package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/taskforge/taskforge-api/internal/config"
	"github.com/taskforge/taskforge-api/internal/platform/logger"
	"github.com/taskforge/taskforge-api/internal/redact"
)

// hmacJWTService is an implementation of JWTService using HMAC-SHA signing.
type hmacJWTService struct {
	signingKey           []byte
	accessTokenLifetime  time.Duration
	refreshTokenLifetime time.Duration
	resetTokenLifetime   time.Duration
	timeFunc             func() time.Time // Injectable for testing
	clockSkew            time.Duration    // Allowed drift when validating time claims
}

// jwtCustomClaims defines the structure of JWT claims we use
type jwtCustomClaims struct {
	UserID    uuid.UUID `json:"uid"`
	Email     string    `json:"email,omitempty"`
	TokenType string    `json:"type"`
	jwt.RegisteredClaims
}

// Ensure hmacJWTService implements JWTService interface
var _ JWTService = (*hmacJWTService)(nil)

// NewJWTService creates a new JWT service using HMAC-SHA signing.
func NewJWTService(cfg config.AuthConfig) (JWTService, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}

	return &hmacJWTService{
		signingKey:           []byte(cfg.JWTSecret),
		accessTokenLifetime:  time.Duration(cfg.TokenLifetimeMinutes) * time.Minute,
		refreshTokenLifetime: time.Duration(cfg.RefreshTokenLifetimeMinutes) * time.Minute,
		resetTokenLifetime:   time.Duration(cfg.ResetTokenLifetimeMinutes) * time.Minute,
		timeFunc:             time.Now,
		clockSkew:            2 * time.Minute,
	}, nil
}

// NewJWTServiceWithClock is like NewJWTService but with an injectable time
// source, used by tests to exercise expiry behavior.
func NewJWTServiceWithClock(cfg config.AuthConfig, timeFunc func() time.Time) (JWTService, error) {
	svc, err := NewJWTService(cfg)
	if err != nil {
		return nil, err
	}
	impl := svc.(*hmacJWTService)
	impl.timeFunc = timeFunc
	return impl, nil
}

// GenerateAccessToken creates a signed JWT access token with user claims.
func (s *hmacJWTService) GenerateAccessToken(
	ctx context.Context,
	userID uuid.UUID,
	email string,
) (string, error) {
	return s.generate(ctx, userID, email, TokenTypeAccess, s.accessTokenLifetime)
}

// GenerateRefreshToken creates a signed JWT refresh token with user claims.
func (s *hmacJWTService) GenerateRefreshToken(
	ctx context.Context,
	userID uuid.UUID,
	email string,
) (string, error) {
	return s.generate(ctx, userID, email, TokenTypeRefresh, s.refreshTokenLifetime)
}

// GenerateResetToken creates a signed short-lived password-reset token.
// Reset tokens carry only the subject; email is not needed for consumption.
func (s *hmacJWTService) GenerateResetToken(
	ctx context.Context,
	userID uuid.UUID,
) (string, error) {
	return s.generate(ctx, userID, "", TokenTypeReset, s.resetTokenLifetime)
}

func (s *hmacJWTService) generate(
	ctx context.Context,
	userID uuid.UUID,
	email string,
	tokenType string,
	lifetime time.Duration,
) (string, error) {
	log := logger.FromContextOrDefault(ctx, nil)
	now := s.timeFunc()

	claims := jwtCustomClaims{
		UserID:    userID,
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			ID:        uuid.New().String(), // Unique token ID
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.signingKey)
	if err != nil {
		log.Error("failed to sign JWT token",
			"error", redact.Error(err),
			"user_id", userID,
			"token_type", tokenType,
			"signing_method", jwt.SigningMethodHS256.Name)
		return "", fmt.Errorf("failed to sign %s token with HMAC-SHA256: %w", tokenType, err)
	}

	return signedToken, nil
}

// ValidateAccessToken validates a JWT access token and returns the claims if valid.
func (s *hmacJWTService) ValidateAccessToken(
	ctx context.Context,
	tokenString string,
) (*Claims, error) {
	return s.validate(ctx, tokenString, TokenTypeAccess)
}

// ValidateRefreshToken validates a JWT refresh token and returns the claims if valid.
// It verifies the token has type "refresh" and returns ErrWrongTokenType if not.
func (s *hmacJWTService) ValidateRefreshToken(
	ctx context.Context,
	tokenString string,
) (*Claims, error) {
	return s.validate(ctx, tokenString, TokenTypeRefresh)
}

// ValidateResetToken validates a password-reset token and returns the claims if valid.
func (s *hmacJWTService) ValidateResetToken(
	ctx context.Context,
	tokenString string,
) (*Claims, error) {
	return s.validate(ctx, tokenString, TokenTypeReset)
}

func (s *hmacJWTService) validate(
	ctx context.Context,
	tokenString string,
	wantType string,
) (*Claims, error) {
	log := logger.FromContextOrDefault(ctx, nil)
	now := s.timeFunc()

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwtCustomClaims{},
		s.keyFunc,
		parserOpts...)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("token validation failed: token expired",
				"error", redact.Error(err),
				"token_type", wantType)
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed),
			errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenNotValidYet):
			log.Debug("token validation failed",
				"error", redact.Error(err),
				"token_type", wantType)
			return nil, ErrInvalidToken
		default:
			log.Debug("token validation failed: other validation error",
				"error", redact.Error(err),
				"token_type", wantType,
				"error_type", fmt.Sprintf("%T", err))
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid {
		log.Debug("token validation failed: invalid claims")
		return nil, ErrInvalidToken
	}

	// A valid signature with the wrong type claim is still a rejection; the
	// caller must not fall back to validating as another type.
	if claims.TokenType != wantType {
		log.Debug("token validation failed: wrong token type",
			"expected", wantType,
			"actual", claims.TokenType)
		return nil, ErrWrongTokenType
	}

	return claims.export(), nil
}

// DecodeClaims verifies the signature and extracts claims without enforcing
// expiry or type. Logout uses this so an expired access token can still
// identify which user's sessions to purge.
func (s *hmacJWTService) DecodeClaims(
	ctx context.Context,
	tokenString string,
) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwtCustomClaims{},
		s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	return claims.export(), nil
}

func (s *hmacJWTService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.signingKey, nil
}

// AccessTokenLifetime returns the configured access token lifetime.
func (s *hmacJWTService) AccessTokenLifetime() time.Duration {
	return s.accessTokenLifetime
}

// RefreshTokenLifetime returns the configured refresh token lifetime.
func (s *hmacJWTService) RefreshTokenLifetime() time.Duration {
	return s.refreshTokenLifetime
}

// ResetTokenLifetime returns the configured password-reset token lifetime.
func (s *hmacJWTService) ResetTokenLifetime() time.Duration {
	return s.resetTokenLifetime
}

func (c *jwtCustomClaims) export() *Claims {
	out := &Claims{
		UserID:    c.UserID,
		Email:     c.Email,
		TokenType: c.TokenType,
		Subject:   c.Subject,
		ID:        c.ID,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}
