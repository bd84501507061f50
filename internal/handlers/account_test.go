package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dohyunkim-dev/marketgate/internal/models"
	"github.com/stretchr/testify/assert"
)

// MockAccountService implements AccountServiceInterface for testing
type MockAccountService struct {
	RegisterFunc             func(ctx context.Context, email, password, name string) error
	CheckEmailFunc           func(ctx context.Context, email string) (bool, error)
	VerifyEmailFunc          func(ctx context.Context, token string) (models.VerificationStatus, error)
	RequestPasswordResetFunc func(ctx context.Context, email string) error
	VerifyResetTokenFunc     func(ctx context.Context, token string) error
	ConfirmPasswordResetFunc func(ctx context.Context, token, newPassword string) error
	WithdrawFunc             func(ctx context.Context, email string) error
}

func (m *MockAccountService) Register(ctx context.Context, email, password, name string) error {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, password, name)
	}
	return nil
}

func (m *MockAccountService) CheckEmail(ctx context.Context, email string) (bool, error) {
	if m.CheckEmailFunc != nil {
		return m.CheckEmailFunc(ctx, email)
	}
	return true, nil
}

func (m *MockAccountService) VerifyEmail(ctx context.Context, token string) (models.VerificationStatus, error) {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, token)
	}
	return models.Verified, nil
}

func (m *MockAccountService) RequestPasswordReset(ctx context.Context, email string) error {
	if m.RequestPasswordResetFunc != nil {
		return m.RequestPasswordResetFunc(ctx, email)
	}
	return nil
}

func (m *MockAccountService) VerifyResetToken(ctx context.Context, token string) error {
	if m.VerifyResetTokenFunc != nil {
		return m.VerifyResetTokenFunc(ctx, token)
	}
	return nil
}

func (m *MockAccountService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if m.ConfirmPasswordResetFunc != nil {
		return m.ConfirmPasswordResetFunc(ctx, token, newPassword)
	}
	return nil
}

func (m *MockAccountService) Withdraw(ctx context.Context, email string) error {
	if m.WithdrawFunc != nil {
		return m.WithdrawFunc(ctx, email)
	}
	return nil
}

func TestRegisterHandler_Created(t *testing.T) {
	svc := &MockAccountService{
		RegisterFunc: func(ctx context.Context, email, password, name string) error {
			assert.Equal(t, "new@example.com", email)
			assert.Equal(t, "New User", name)
			return nil
		},
	}
	h := NewAccountHandler(svc)

	rec := postJSON(t, h.Register, "/api/accounts", RegisterRequest{
		Email:    "new@example.com",
		Password: "GoodPassword1",
		Name:     "New User",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRegisterHandler_DuplicateEmail(t *testing.T) {
	svc := &MockAccountService{
		RegisterFunc: func(ctx context.Context, email, password, name string) error {
			return models.ErrConflict
		},
	}
	h := NewAccountHandler(svc)

	rec := postJSON(t, h.Register, "/api/accounts", RegisterRequest{
		Email:    "taken@example.com",
		Password: "GoodPassword1",
		Name:     "Someone",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCheckEmailHandler(t *testing.T) {
	svc := &MockAccountService{
		CheckEmailFunc: func(ctx context.Context, email string) (bool, error) {
			return false, nil
		},
	}
	h := NewAccountHandler(svc)

	rec := postJSON(t, h.CheckEmail, "/api/accounts/check-email", CheckEmailRequest{
		Email: "taken@example.com",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available":false`)
}

func TestVerifyEmailHandler_TokenFromQuery(t *testing.T) {
	var gotToken string
	svc := &MockAccountService{
		VerifyEmailFunc: func(ctx context.Context, token string) (models.VerificationStatus, error) {
			gotToken = token
			return models.Verified, nil
		},
	}
	h := NewAccountHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/verify-email?token=abc123", nil)
	rec := httptest.NewRecorder()
	h.VerifyEmail(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc123", gotToken)
}

func TestVerifyEmailHandler_MissingToken(t *testing.T) {
	h := NewAccountHandler(&MockAccountService{})

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/verify-email", nil)
	rec := httptest.NewRecorder()
	h.VerifyEmail(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyEmailHandler_ExpiredToken(t *testing.T) {
	svc := &MockAccountService{
		VerifyEmailFunc: func(ctx context.Context, token string) (models.VerificationStatus, error) {
			return 0, models.ErrTokenExpired
		},
	}
	h := NewAccountHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/verify-email?token=old", nil)
	rec := httptest.NewRecorder()
	h.VerifyEmail(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "TOKEN_EXPIRED")
}

func TestPasswordResetHandler_SocialOnlyConflict(t *testing.T) {
	svc := &MockAccountService{
		RequestPasswordResetFunc: func(ctx context.Context, email string) error {
			return &models.SocialOnlyError{Provider: models.ProviderKakao}
		},
	}
	h := NewAccountHandler(svc)

	rec := postJSON(t, h.RequestPasswordReset, "/api/accounts/password-reset", PasswordResetRequest{
		Email: "social@example.com",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "KAKAO")
}

func TestConfirmPasswordResetHandler_ConsumedToken(t *testing.T) {
	svc := &MockAccountService{
		ConfirmPasswordResetFunc: func(ctx context.Context, token, newPassword string) error {
			return models.ErrTokenInvalid
		},
	}
	h := NewAccountHandler(svc)

	rec := postJSON(t, h.ConfirmPasswordReset, "/api/accounts/password-reset/confirm", PasswordResetConfirmRequest{
		Token:       "used-token",
		NewPassword: "GoodPassword1",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWithdrawHandler_RequiresClaims(t *testing.T) {
	h := NewAccountHandler(&MockAccountService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/accounts/me", nil)
	rec := httptest.NewRecorder()
	h.Withdraw(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
