package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/example/ec-orders/internal/api/middleware"
	"github.com/example/ec-orders/internal/auth"
	"github.com/example/ec-orders/internal/infrastructure/store"
	"github.com/example/ec-orders/internal/readmodel"
	"go.uber.org/zap"
)

const refreshCookiePath = "/api/auth/refresh"

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	jwtService *auth.JWTService
	users      store.UserStoreInterface
	logger     *zap.Logger
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(jwtService *auth.JWTService, users store.UserStoreInterface, logger *zap.Logger) *AuthHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandlers{
		jwtService: jwtService,
		users:      users,
		logger:     logger.Named("auth"),
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message,omitempty"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsStaff   bool      `json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u *readmodel.UserReadModel) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email, IsStaff: u.IsStaff, CreatedAt: u.CreatedAt}
}

// Login handles user login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.logger.Error("User lookup failed", zap.Error(err))
		}
		respondJSONError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		respondJSONError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	// Check if user is active
	if !user.IsActive {
		respondJSONError(w, "Account is deactivated", http.StatusForbidden)
		return
	}

	if err := h.setAuthCookies(w, r, user); err != nil {
		h.logger.Error("Failed to issue tokens", zap.String("user_id", user.ID), zap.Error(err))
		respondJSONError(w, "Failed to issue tokens", http.StatusInternalServerError)
		return
	}

	h.logger.Info("User logged in", zap.String("user_id", user.ID), zap.Bool("is_staff", user.IsStaff))
	respondJSON(w, http.StatusOK, AuthResponse{User: newUserResponse(user), Message: "Login successful"})
}

// Logout clears the auth cookies
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearAuthCookies(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Refresh issues a new token pair from a valid refresh token.
// The user is reloaded so revoked staff rights and deactivation take effect.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshCookie, err := r.Cookie("refresh_token")
	if err != nil {
		respondJSONError(w, "No refresh token", http.StatusUnauthorized)
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(refreshCookie.Value)
	if err != nil {
		h.clearAuthCookies(w)
		respondJSONError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		h.clearAuthCookies(w)
		respondJSONError(w, "User not found", http.StatusUnauthorized)
		return
	}
	if !user.IsActive {
		h.clearAuthCookies(w)
		respondJSONError(w, "Account is deactivated", http.StatusForbidden)
		return
	}

	if err := h.setAuthCookies(w, r, user); err != nil {
		h.logger.Error("Failed to issue tokens", zap.String("user_id", user.ID), zap.Error(err))
		respondJSONError(w, "Failed to issue tokens", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Token refreshed"})
}

// Me returns the current authenticated user's information
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		respondJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, newUserResponse(user))
}

// Helper methods

func (h *AuthHandlers) setAuthCookies(w http.ResponseWriter, r *http.Request, user *readmodel.UserReadModel) error {
	accessToken, accessExpiry, err := h.jwtService.GenerateAccessToken(auth.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsStaff:  user.IsStaff,
	})
	if err != nil {
		return err
	}

	refreshToken, refreshExpiry, err := h.jwtService.GenerateRefreshToken(user.ID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		Expires:  accessExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     refreshCookiePath,
		Expires:  refreshExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

func (h *AuthHandlers) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
	})
}
