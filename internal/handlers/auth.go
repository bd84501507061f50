package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dohyunkim-dev/marketgate/internal/auth"
	"github.com/dohyunkim-dev/marketgate/internal/models"
	"github.com/dohyunkim-dev/marketgate/internal/services"
	pkghttp "github.com/dohyunkim-dev/marketgate/pkg/http"
)

// SessionServiceInterface defines the interface for session business logic
type SessionServiceInterface interface {
	Login(ctx context.Context, email, password, ip, ua string) (*services.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*services.AuthResponse, error)
	Logout(ctx context.Context, email string) error
	SocialLogin(ctx context.Context, identity models.SocialIdentity, ip, ua string) (*services.AuthResponse, error)
}

// AuthHandler handles login, refresh, logout and social login requests
type AuthHandler struct {
	service  SessionServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service SessionServiceInterface, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents the request body for token refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// SocialLoginRequest represents an identity already authenticated by the
// external provider.
type SocialLoginRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,min=1"`
	Provider    string `json:"provider" validate:"required,oneof=KAKAO NAVER GOOGLE"`
}

// Login handles password login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	ua := r.Header.Get("User-Agent")

	resp, err := h.service.Login(r.Context(), req.Email, req.Password, ip, ua)
	if err != nil {
		// an unknown address and a wrong password look the same to the caller
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteUnauthorized(w, "Invalid email or password")
			return
		}
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Refresh rotates a refresh token for a new token pair
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteUnauthorized(w, "Invalid token")
			return
		}
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Logout terminates the session of the authenticated caller
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Logout(r.Context(), claims.Subject); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// SocialLogin handles a provider-authenticated login
func (h *AuthHandler) SocialLogin(w http.ResponseWriter, r *http.Request) {
	var req SocialLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	identity := models.SocialIdentity{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Provider:    req.Provider,
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	ua := r.Header.Get("User-Agent")

	resp, err := h.service.SocialLogin(r.Context(), identity, ip, ua)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}
