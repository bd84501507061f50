package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dohyunkim-dev/marketgate/internal/auth"
	"github.com/dohyunkim-dev/marketgate/internal/models"
	pkghttp "github.com/dohyunkim-dev/marketgate/pkg/http"
)

// AccountServiceInterface defines the interface for account lifecycle logic
type AccountServiceInterface interface {
	Register(ctx context.Context, email, password, name string) error
	CheckEmail(ctx context.Context, email string) (bool, error)
	VerifyEmail(ctx context.Context, token string) (models.VerificationStatus, error)
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyResetToken(ctx context.Context, token string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	Withdraw(ctx context.Context, email string) error
}

// AccountHandler handles registration, verification and password reset
type AccountHandler struct {
	service AccountServiceInterface
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(service AccountServiceInterface) *AccountHandler {
	return &AccountHandler{service: service}
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
}

// CheckEmailRequest represents the request body for an availability check
type CheckEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetRequest represents the request body for requesting a reset link
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// TokenRequest carries a single business token
type TokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// PasswordResetConfirmRequest carries the reset token and the new password
type PasswordResetConfirmRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// Register handles account registration
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.Register(r.Context(), req.Email, req.Password, req.Name); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, map[string]string{
		"message": "Account created. Please check your email to verify your address.",
	})
}

// CheckEmail reports whether an address is free to register
func (h *AccountHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	var req CheckEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	available, err := h.service.CheckEmail(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"available": available})
}

// VerifyEmail consumes a verification token from the mailed link
func (h *AccountHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		pkghttp.WriteBadRequest(w, "Missing token")
		return
	}

	status, err := h.service.VerifyEmail(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	msg := "Email verified. You can now log in."
	if status == models.AlreadyVerified {
		msg = "Email was already verified."
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// RequestPasswordReset mails a reset link
func (h *AccountHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Password reset email sent.",
	})
}

// VerifyResetToken checks a reset token before the password form is shown
func (h *AccountHandler) VerifyResetToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.VerifyResetToken(r.Context(), req.Token); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

// ConfirmPasswordReset consumes the reset token and sets the new password
func (h *AccountHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ConfirmPasswordReset(r.Context(), req.Token, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Password updated. Please log in with your new password.",
	})
}

// Withdraw deletes the authenticated caller's account
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Withdraw(r.Context(), claims.Subject); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}
