package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taskforge/taskforge-api/internal/domain"
	"github.com/taskforge/taskforge-api/internal/platform/logger"
	"github.com/taskforge/taskforge-api/internal/redact"
	"github.com/taskforge/taskforge-api/internal/service/auth"
	"github.com/taskforge/taskforge-api/internal/store"
)

// AuthService composes the password hasher, token service and user store to
// provide registration, authentication and the password-reset flow.
type AuthService struct {
	users        store.UserStore
	hasher       auth.PasswordHasher
	tokens       auth.TokenService
	mailer       EmailSender
	resetBaseURL string
	logger       *slog.Logger
}

// NewAuthService creates an AuthService with the given dependencies.
// resetBaseURL is the link base embedded in password-reset emails.
func NewAuthService(
	users store.UserStore,
	hasher auth.PasswordHasher,
	tokens auth.TokenService,
	mailer EmailSender,
	resetBaseURL string,
	log *slog.Logger,
) (*AuthService, error) {
	if users == nil {
		return nil, fmt.Errorf("%w: users", ErrNilDependency)
	}
	if hasher == nil {
		return nil, fmt.Errorf("%w: hasher", ErrNilDependency)
	}
	if tokens == nil {
		return nil, fmt.Errorf("%w: tokens", ErrNilDependency)
	}
	if mailer == nil {
		return nil, fmt.Errorf("%w: mailer", ErrNilDependency)
	}
	if log == nil {
		log = slog.Default()
	}

	return &AuthService{
		users:        users,
		hasher:       hasher,
		tokens:       tokens,
		mailer:       mailer,
		resetBaseURL: resetBaseURL,
		logger:       log.With(slog.String("component", "auth_service")),
	}, nil
}

// Register creates a new user with a hashed password.
// Returns store.ErrEmailExists if the email is already registered.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(username, email, password)
	if err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

// Authenticate verifies credentials and returns the user on success.
// Returns (nil, nil) for both an unknown email and a wrong password; the
// two cases are deliberately indistinguishable so responses cannot be used
// to enumerate accounts. Token minting is the caller's next step and goes
// through the token service, which purges prior sessions first.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return nil, nil
	}

	return user, nil
}

// Login authenticates and, on success, issues a token pair (revoking any
// previously live sessions for the user). Returns (nil, nil, nil) when the
// credentials are wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *auth.TokenPair, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, nil
	}

	pair, err := s.tokens.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// RequestPasswordReset issues a single-use reset token and emails a reset
// link when the email belongs to a registered user. For unknown emails it
// does nothing and returns nil, so the HTTP layer reports the same success
// message in both cases (anti-enumeration). Email delivery failures do
// propagate.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := s.tokens.IssueResetToken(ctx, user)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(
		"A password reset was requested for your account.\n\n"+
			"Reset your password using this link: %s?token=%s\n\n"+
			"If you did not request this, you can ignore this email.",
		s.resetBaseURL, token)

	if err := s.mailer.Send(ctx, user.Email, "Password reset request", body); err != nil {
		return err
	}

	log.Info("password reset email sent", slog.String("user_id", user.ID.String()))
	return nil
}

// ResetPassword validates a reset token, stores a new password hash, and
// only then consumes the token's mirror record. Consuming last means a
// failed persistence leaves the token live for a retry; once the new hash
// is stored the token cannot be reused.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	userID, err := s.tokens.ValidateResetToken(ctx, token)
	if err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	// The password is already changed; a failed consumption only leaves the
	// mirror to its TTL.
	if _, err := s.tokens.ConsumeResetToken(ctx, token); err != nil {
		log.Warn("failed to consume reset token after password update",
			slog.String("error", redact.Error(err)))
	}

	log.Info("password reset completed", slog.String("user_id", userID.String()))
	return nil
}

// Logout delegates to the token service's session-wide revoke.
func (s *AuthService) Logout(ctx context.Context, token string) bool {
	return s.tokens.Logout(ctx, token)
}
