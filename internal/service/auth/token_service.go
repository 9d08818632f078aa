package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskforge/taskforge-api/internal/domain"
	"github.com/taskforge/taskforge-api/internal/platform/logger"
	"github.com/taskforge/taskforge-api/internal/redact"
	"github.com/taskforge/taskforge-api/internal/store"
)

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expires_in"`
}

// TokenService manages the full token lifecycle: issuance, validation,
// refresh and revocation. A token is usable only while BOTH its signature
// is valid AND its mirror record is live; either failing invalidates it.
type TokenService interface {
	// IssueTokenPair revokes all of the user's previously live tokens
	// (single-session policy) and mints a fresh access/refresh pair with
	// mirror records.
	IssueTokenPair(ctx context.Context, user *domain.User) (*TokenPair, error)

	// ValidateAccessToken resolves a raw access token to its user.
	// Fails with ErrTokenRevoked if the mirror record is absent, with the
	// JWT sentinels on signature/expiry/type problems, and with
	// ErrInvalidToken if the user no longer exists.
	ValidateAccessToken(ctx context.Context, token string) (*domain.User, error)

	// Refresh exchanges a live refresh token for a brand-new pair. The new
	// pair supersedes the old session entirely.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)

	// Logout terminates the whole session for the token's subject: every
	// access and refresh mirror for that user is purged, not just the
	// presented token. Undecodable tokens fall back to deleting the literal
	// mirror keys. Logout is best-effort: it returns true when any mirror
	// record existed before the call and never returns an error to the
	// HTTP layer.
	Logout(ctx context.Context, token string) bool

	// IssueResetToken mints a single-use password-reset token with a mirror
	// record bound to the user.
	IssueResetToken(ctx context.Context, user *domain.User) (string, error)

	// ValidateResetToken checks a reset token without consuming it,
	// returning the subject user ID. The token stays live, so a caller can
	// defer consumption until its own side effects have been persisted.
	ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error)

	// ConsumeResetToken validates and permanently consumes a reset token,
	// returning the subject user ID. Fails with ErrInvalidToken (or
	// ErrExpiredToken) if the token is invalid, expired or already used.
	ConsumeResetToken(ctx context.Context, token string) (uuid.UUID, error)
}

type tokenService struct {
	jwt      JWTService
	sessions *SessionStore
	users    store.UserStore
	logger   *slog.Logger
}

// Ensure tokenService implements TokenService interface
var _ TokenService = (*tokenService)(nil)

// NewTokenService creates a TokenService composing the JWT signer, the
// session mirror store and the user store.
func NewTokenService(
	jwtService JWTService,
	sessions *SessionStore,
	users store.UserStore,
	log *slog.Logger,
) (TokenService, error) {
	if jwtService == nil {
		return nil, fmt.Errorf("jwtService cannot be nil")
	}
	if sessions == nil {
		return nil, fmt.Errorf("sessions cannot be nil")
	}
	if users == nil {
		return nil, fmt.Errorf("users cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &tokenService{
		jwt:      jwtService,
		sessions: sessions,
		users:    users,
		logger:   log.With(slog.String("component", "token_service")),
	}, nil
}

// IssueTokenPair implements TokenService.IssueTokenPair
func (s *tokenService) IssueTokenPair(ctx context.Context, user *domain.User) (*TokenPair, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Single-session policy: a new login always kills previous sessions
	// before minting replacements.
	if _, err := s.sessions.RevokeUserSessions(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to revoke previous sessions: %w", err)
	}

	accessToken, err := s.jwt.GenerateAccessToken(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwt.GenerateRefreshToken(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.SaveAccess(ctx, accessToken, user, s.jwt.AccessTokenLifetime()); err != nil {
		return nil, fmt.Errorf("failed to store access token mirror: %w", err)
	}
	if err := s.sessions.SaveRefresh(ctx, refreshToken, user, s.jwt.RefreshTokenLifetime()); err != nil {
		return nil, fmt.Errorf("failed to store refresh token mirror: %w", err)
	}

	log.Debug("issued token pair", slog.String("user_id", user.ID.String()))

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwt.AccessTokenLifetime().Seconds()),
	}, nil
}

// ValidateAccessToken implements TokenService.ValidateAccessToken
func (s *tokenService) ValidateAccessToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	// Liveness first: a revoked token is dead no matter how valid its
	// signature still is.
	record, err := s.sessions.GetAccess(ctx, token)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrTokenRevoked
	}

	claims, err := s.jwt.ValidateAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	// The mirror carries identity fields as an optimization, but the
	// authoritative user is re-fetched from the store; a deleted user
	// invalidates all their tokens.
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return user, nil
}

// Refresh implements TokenService.Refresh
func (s *tokenService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrMissingToken
	}

	record, err := s.sessions.GetRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrTokenRevoked
	}

	claims, err := s.jwt.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	// Minting a new pair purges the old session, so the presented refresh
	// token cannot be replayed.
	return s.IssueTokenPair(ctx, user)
}

// Logout implements TokenService.Logout
func (s *tokenService) Logout(ctx context.Context, token string) bool {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if token == "" {
		return false
	}

	claims, err := s.jwt.DecodeClaims(ctx, token)
	if err != nil {
		// Tolerate undecodable input: delete the literal mirror keys so a
		// legacy or malformed token can still be cleaned up.
		deleted, delErr := s.sessions.RevokeToken(ctx, token)
		if delErr != nil {
			log.Warn("logout fallback deletion failed", slog.String("error", redact.Error(delErr)))
			return false
		}
		return deleted > 0
	}

	deleted, err := s.sessions.RevokeUserSessions(ctx, claims.UserID)
	if err != nil {
		log.Warn("session purge failed during logout",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", claims.UserID.String()))
		return false
	}

	log.Info("user logged out",
		slog.String("user_id", claims.UserID.String()),
		slog.Int("sessions_revoked", deleted))
	return deleted > 0
}

// IssueResetToken implements TokenService.IssueResetToken
func (s *tokenService) IssueResetToken(ctx context.Context, user *domain.User) (string, error) {
	token, err := s.jwt.GenerateResetToken(ctx, user.ID)
	if err != nil {
		return "", err
	}

	if err := s.sessions.SaveReset(ctx, token, user.ID, s.jwt.ResetTokenLifetime()); err != nil {
		return "", fmt.Errorf("failed to store reset token mirror: %w", err)
	}

	return token, nil
}

// ValidateResetToken implements TokenService.ValidateResetToken
func (s *tokenService) ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrMissingToken
	}

	claims, err := s.jwt.ValidateResetToken(ctx, token)
	if err != nil {
		return uuid.Nil, err
	}

	userID, err := s.sessions.GetReset(ctx, token)
	if err != nil {
		return uuid.Nil, err
	}
	if userID == uuid.Nil {
		return uuid.Nil, ErrTokenRevoked
	}

	if userID != claims.UserID {
		return uuid.Nil, ErrInvalidToken
	}

	return userID, nil
}

// ConsumeResetToken implements TokenService.ConsumeResetToken
func (s *tokenService) ConsumeResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrMissingToken
	}

	claims, err := s.jwt.ValidateResetToken(ctx, token)
	if err != nil {
		return uuid.Nil, err
	}

	// Deleting the mirror is what enforces single use.
	userID, err := s.sessions.ConsumeReset(ctx, token)
	if err != nil {
		return uuid.Nil, err
	}
	if userID == uuid.Nil {
		return uuid.Nil, ErrTokenRevoked
	}

	if userID != claims.UserID {
		// Mirror and claims disagree; trust neither.
		return uuid.Nil, ErrInvalidToken
	}

	return userID, nil
}
