package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/inkpress/apiserver/internal/policy"
	"github.com/inkpress/apiserver/internal/services"
	"github.com/inkpress/apiserver/internal/token"
)

// AuthHandler provides login, logout, and token-refresh endpoints.
type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, authService *services.AuthService) {
	handler := NewAuthHandler(authService)

	r.With(Require(policy.IsGuest)).Post("/login", handler.Login)
	r.With(Require(policy.IsAuthenticated)).Post("/logout", handler.Logout)
	r.Post("/refresh", handler.Refresh)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login verifies credentials and returns a token pair. It is gated on
// IsGuest: an authenticated caller may not log in again.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeFailure(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	pair, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeFailure(w, http.StatusUnauthorized, "Invalid email or password.")
			return
		}
		writeFailure(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}

	writeResult(w, http.StatusOK, "Login successful", pair)
}

// Logout revokes the presented refresh token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.RefreshToken == "" {
		writeFailure(w, http.StatusBadRequest, "Refresh token is required.")
		return
	}

	if err := h.authService.Logout(r.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, token.ErrTokenInvalid) {
			writeFailure(w, http.StatusBadRequest, "Invalid refresh token.")
			return
		}
		writeFailure(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}

	writeNoContent(w)
}

// Refresh rotates a refresh token for a fresh pair. The token itself
// is the credential; no bearer header is required.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.RefreshToken == "" {
		writeFailure(w, http.StatusBadRequest, "Refresh token is required.")
		return
	}

	pair, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrTokenInvalid),
			errors.Is(err, token.ErrTokenExpired),
			errors.Is(err, token.ErrTokenRevoked):
			writeFailure(w, http.StatusUnauthorized, "Invalid refresh token.")
		default:
			writeFailure(w, http.StatusInternalServerError, "A server error occurred.")
		}
		return
	}

	writeResult(w, http.StatusOK, "Renewal successful", pair)
}
