package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dohyunkim-dev/marketgate/internal/auth"
	"github.com/dohyunkim-dev/marketgate/internal/models"
	"github.com/dohyunkim-dev/marketgate/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockAdminService implements AdminServiceInterface for testing
type MockAdminService struct {
	ListAccountsFunc   func(ctx context.Context, limit, offset int) ([]*services.AccountResponse, error)
	SuspendFunc        func(ctx context.Context, actingAdmin, email string, days int, reason string) error
	UnsuspendFunc      func(ctx context.Context, actingAdmin, email string) error
	ChangeRoleFunc     func(ctx context.Context, actingAdmin, email, role string) error
	ResetLoginFailFunc func(ctx context.Context, actingAdmin, email string) error
	ForceLogoutFunc    func(ctx context.Context, actingAdmin, email string) error
	ClearAllTokensFunc func(ctx context.Context, actingAdmin string) (int64, error)
	LoginHistoryFunc   func(ctx context.Context, email string, limit int) ([]*models.LoginEvent, error)
	ActionHistoryFunc  func(ctx context.Context, email string, limit int) ([]*models.AdminLog, error)
}

func (m *MockAdminService) ListAccounts(ctx context.Context, limit, offset int) ([]*services.AccountResponse, error) {
	if m.ListAccountsFunc != nil {
		return m.ListAccountsFunc(ctx, limit, offset)
	}
	return []*services.AccountResponse{}, nil
}

func (m *MockAdminService) Suspend(ctx context.Context, actingAdmin, email string, days int, reason string) error {
	if m.SuspendFunc != nil {
		return m.SuspendFunc(ctx, actingAdmin, email, days, reason)
	}
	return nil
}

func (m *MockAdminService) Unsuspend(ctx context.Context, actingAdmin, email string) error {
	if m.UnsuspendFunc != nil {
		return m.UnsuspendFunc(ctx, actingAdmin, email)
	}
	return nil
}

func (m *MockAdminService) ChangeRole(ctx context.Context, actingAdmin, email, role string) error {
	if m.ChangeRoleFunc != nil {
		return m.ChangeRoleFunc(ctx, actingAdmin, email, role)
	}
	return nil
}

func (m *MockAdminService) ResetLoginFail(ctx context.Context, actingAdmin, email string) error {
	if m.ResetLoginFailFunc != nil {
		return m.ResetLoginFailFunc(ctx, actingAdmin, email)
	}
	return nil
}

func (m *MockAdminService) ForceLogout(ctx context.Context, actingAdmin, email string) error {
	if m.ForceLogoutFunc != nil {
		return m.ForceLogoutFunc(ctx, actingAdmin, email)
	}
	return nil
}

func (m *MockAdminService) ClearAllTokens(ctx context.Context, actingAdmin string) (int64, error) {
	if m.ClearAllTokensFunc != nil {
		return m.ClearAllTokensFunc(ctx, actingAdmin)
	}
	return 0, nil
}

func (m *MockAdminService) LoginHistory(ctx context.Context, email string, limit int) ([]*models.LoginEvent, error) {
	if m.LoginHistoryFunc != nil {
		return m.LoginHistoryFunc(ctx, email, limit)
	}
	return []*models.LoginEvent{}, nil
}

func (m *MockAdminService) ActionHistory(ctx context.Context, email string, limit int) ([]*models.AdminLog, error) {
	if m.ActionHistoryFunc != nil {
		return m.ActionHistoryFunc(ctx, email, limit)
	}
	return []*models.AdminLog{}, nil
}

func withAdminClaims(req *http.Request, email string) *http.Request {
	claims := &models.TokenClaims{
		Type: models.TokenTypeAccess,
		Role: models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: email,
		},
	}
	return req.WithContext(auth.ContextWithClaims(req.Context(), claims))
}

func TestAdminSuspendHandler(t *testing.T) {
	var gotAdmin, gotEmail string
	var gotDays int
	svc := &MockAdminService{
		SuspendFunc: func(ctx context.Context, actingAdmin, email string, days int, reason string) error {
			gotAdmin, gotEmail, gotDays = actingAdmin, email, days
			return nil
		},
	}
	h := NewAdminHandler(svc)

	handler := func(w http.ResponseWriter, r *http.Request) {
		h.Suspend(w, withAdminClaims(r, "admin@example.com"))
	}

	rec := postJSON(t, handler, "/api/admin/accounts/suspend", SuspendRequest{
		Email:  "user@example.com",
		Days:   7,
		Reason: "abuse",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin@example.com", gotAdmin)
	assert.Equal(t, "user@example.com", gotEmail)
	assert.Equal(t, 7, gotDays)
}

func TestAdminSuspendHandler_RequiresClaims(t *testing.T) {
	h := NewAdminHandler(&MockAdminService{})

	rec := postJSON(t, h.Suspend, "/api/admin/accounts/suspend", SuspendRequest{
		Email:  "user@example.com",
		Days:   7,
		Reason: "abuse",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminChangeRoleHandler_RejectsUnknownRole(t *testing.T) {
	h := NewAdminHandler(&MockAdminService{})

	handler := func(w http.ResponseWriter, r *http.Request) {
		h.ChangeRole(w, withAdminClaims(r, "admin@example.com"))
	}

	rec := postJSON(t, handler, "/api/admin/accounts/role", ChangeRoleRequest{
		Email: "user@example.com",
		Role:  "SUPERUSER",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminForceLogoutHandler(t *testing.T) {
	var gotAdmin, gotEmail string
	svc := &MockAdminService{
		ForceLogoutFunc: func(ctx context.Context, actingAdmin, email string) error {
			gotAdmin, gotEmail = actingAdmin, email
			return nil
		},
	}
	h := NewAdminHandler(svc)

	handler := func(w http.ResponseWriter, r *http.Request) {
		h.ForceLogout(w, withAdminClaims(r, "admin@example.com"))
	}

	rec := postJSON(t, handler, "/api/admin/accounts/force-logout", TargetAccountRequest{
		Email: "user@example.com",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin@example.com", gotAdmin)
	assert.Equal(t, "user@example.com", gotEmail)
}

func TestAdminLoginHistoryHandler(t *testing.T) {
	svc := &MockAdminService{
		LoginHistoryFunc: func(ctx context.Context, email string, limit int) ([]*models.LoginEvent, error) {
			assert.Equal(t, "user@example.com", email)
			return []*models.LoginEvent{{Email: email, Result: models.LoginEventSuccess}}, nil
		},
	}
	h := NewAdminHandler(svc)

	router := chi.NewRouter()
	router.Get("/admin/accounts/{email}/login-events", h.LoginHistory)

	req := httptest.NewRequest(http.MethodGet, "/admin/accounts/user@example.com/login-events", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SUCCESS")
}
