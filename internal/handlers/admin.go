package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dohyunkim-dev/marketgate/internal/auth"
	"github.com/dohyunkim-dev/marketgate/internal/models"
	"github.com/dohyunkim-dev/marketgate/internal/services"
	pkghttp "github.com/dohyunkim-dev/marketgate/pkg/http"
	"github.com/go-chi/chi/v5"
)

// AdminServiceInterface defines the interface for privileged account operations
type AdminServiceInterface interface {
	ListAccounts(ctx context.Context, limit, offset int) ([]*services.AccountResponse, error)
	Suspend(ctx context.Context, actingAdmin, email string, days int, reason string) error
	Unsuspend(ctx context.Context, actingAdmin, email string) error
	ChangeRole(ctx context.Context, actingAdmin, email, role string) error
	ResetLoginFail(ctx context.Context, actingAdmin, email string) error
	ForceLogout(ctx context.Context, actingAdmin, email string) error
	ClearAllTokens(ctx context.Context, actingAdmin string) (int64, error)
	LoginHistory(ctx context.Context, email string, limit int) ([]*models.LoginEvent, error)
	ActionHistory(ctx context.Context, email string, limit int) ([]*models.AdminLog, error)
}

// AdminHandler handles the admin console endpoints
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// SuspendRequest represents the request body for suspending an account.
// Days of zero means the suspension does not expire on its own.
type SuspendRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Days   int    `json:"days" validate:"gte=0,lte=3650"`
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

// TargetAccountRequest names the account an admin action applies to
type TargetAccountRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ChangeRoleRequest represents the request body for a role change
type ChangeRoleRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=USER ADMIN"`
}

// ListAccounts returns a page of accounts
func (h *AdminHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	accounts, err := h.service.ListAccounts(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"accounts": accounts})
}

// Suspend blocks an account for a number of days, or indefinitely
func (h *AdminHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	admin, ok := actingAdmin(r)
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req SuspendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.Suspend(r.Context(), admin, req.Email, req.Days, req.Reason); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Account suspended"})
}

// Unsuspend lifts a suspension
func (h *AdminHandler) Unsuspend(w http.ResponseWriter, r *http.Request) {
	admin, ok := actingAdmin(r)
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req TargetAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.Unsuspend(r.Context(), admin, req.Email); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Suspension lifted"})
}

// ChangeRole switches an account between USER and ADMIN
func (h *AdminHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	admin, ok := actingAdmin(r)
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req ChangeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ChangeRole(r.Context(), admin, req.Email, req.Role); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Role updated"})
}

// ResetLoginFail clears the failure counter and lock for an account
func (h *AdminHandler) ResetLoginFail(w http.ResponseWriter, r *http.Request) {
	admin, ok := actingAdmin(r)
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req TargetAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ResetLoginFail(r.Context(), admin, req.Email); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Login failures reset"})
}

// ForceLogout terminates the target account's session
func (h *AdminHandler) ForceLogout(w http.ResponseWriter, r *http.Request) {
	admin, ok := actingAdmin(r)
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req TargetAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ForceLogout(r.Context(), admin, req.Email); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Account logged out"})
}

// ClearTokens revokes every live session at once
func (h *AdminHandler) ClearTokens(w http.ResponseWriter, r *http.Request) {
	admin, ok := actingAdmin(r)
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	cleared, err := h.service.ClearAllTokens(r.Context(), admin)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "All sessions ended",
		"cleared": cleared,
	})
}

// LoginHistory returns the recent login events for one account
func (h *AdminHandler) LoginHistory(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.service.LoginHistory(r.Context(), email, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// ActionHistory returns the admin actions taken against one account
func (h *AdminHandler) ActionHistory(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	logs, err := h.service.ActionHistory(r.Context(), email, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}

func actingAdmin(r *http.Request) (string, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return "", false
	}
	return claims.Subject, true
}
