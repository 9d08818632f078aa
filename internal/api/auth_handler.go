package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/taskforge/taskforge-api/internal/api/shared"
	"github.com/taskforge/taskforge-api/internal/platform/logger"
	"github.com/taskforge/taskforge-api/internal/redact"
	"github.com/taskforge/taskforge-api/internal/service"
	"github.com/taskforge/taskforge-api/internal/service/auth"
	"github.com/taskforge/taskforge-api/internal/store"
)

// forgotPasswordMessage is returned for every forgot-password request,
// known email or not, so responses cannot be used to enumerate accounts.
const forgotPasswordMessage = "If that email is registered, a reset link has been sent"

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	authService *service.AuthService
	tokens      auth.TokenService
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(authService *service.AuthService, tokens auth.TokenService, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}

	return &AuthHandler{
		authService: authService,
		tokens:      tokens,
		logger:      log.With(slog.String("component", "auth_handler")),
	}
}

// Register handles the /auth/register endpoint.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.authService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			shared.RespondWithError(w, r, http.StatusConflict, "Email already registered")
			return
		}
		log := logger.FromContextOrDefault(r.Context(), h.logger)
		log.Error("failed to register user", slog.String("error", redact.Error(err)))
		handleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, NewUserResponse(user))
}

// Login handles the /auth/login endpoint. A successful login supersedes any
// previously live session for the user.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, pair, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log := logger.FromContextOrDefault(r.Context(), h.logger)
		log.Error("login failed", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to authenticate user")
		return
	}
	if user == nil {
		// Unknown email and wrong password answer identically.
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		User:         NewUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

// RefreshToken handles the /auth/refresh endpoint.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	pair, err := h.tokens.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, pair)
}

// ValidateToken handles the /auth/validate-token endpoint. It answers
// whether the presented bearer token is currently usable and, if so, whose
// it is.
func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Missing or invalid token")
		return
	}

	user, err := h.tokens.ValidateAccessToken(r.Context(), token)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TokenValidationResponse{
		Valid: true,
		User:  NewUserResponse(user),
	})
}

// Logout handles the /auth/logout endpoint. It terminates the whole
// session for the presenting token's subject. The token is taken straight
// from the Authorization header rather than through the auth middleware,
// so an expired or already-revoked token can still clear its session
// remnants. Logout is best-effort and always answers 200; the body reports
// whether anything was revoked.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, _ := bearerToken(r)

	if h.authService.Logout(r.Context(), token) {
		shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Logged out"})
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "No active session"})
}

// ForgotPassword handles the /auth/forgot-password endpoint.
// The response is identical whether or not the email is registered.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		log := logger.FromContextOrDefault(r.Context(), h.logger)
		log.Error("failed to process password reset request", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to process request")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: forgotPasswordMessage})
}

// ResetPassword handles the /auth/reset-password endpoint. A reset token
// works exactly once.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		handleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Password updated"})
}
