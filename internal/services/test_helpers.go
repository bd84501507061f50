package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/dohyunkim-dev/marketgate/internal/models"
	pkglogger "github.com/dohyunkim-dev/marketgate/pkg/logger"
)

// MockAccountRepository implements AccountRepository for testing
type MockAccountRepository struct {
	FindByEmailFunc       func(ctx context.Context, email string) (*models.Account, error)
	FindByActionTokenFunc func(ctx context.Context, token string) (*models.Account, error)
	CreateFunc            func(ctx context.Context, acct *models.Account) error
	ListFunc              func(ctx context.Context, limit, offset int) ([]*models.Account, error)

	UpdateFailCountFunc func(ctx context.Context, email string, count int) error
	SetLockFunc         func(ctx context.Context, email string, count int, until time.Time) error
	ResetFailCountFunc  func(ctx context.Context, email string) error

	ClearSuspensionFunc func(ctx context.Context, email string) error
	SuspendFunc         func(ctx context.Context, email string, until *time.Time, reason string) error

	SetRefreshTokenFunc        func(ctx context.Context, email, token string) error
	RotateRefreshTokenFunc     func(ctx context.Context, email, presented, next string) (bool, error)
	DeleteRefreshTokenFunc     func(ctx context.Context, email string) error
	DeleteAllRefreshTokensFunc func(ctx context.Context) (int64, error)

	ActivateFunc          func(ctx context.Context, email string) error
	SetActionTokenFunc    func(ctx context.Context, email, token string, expireAt time.Time) error
	ConsumeResetTokenFunc func(ctx context.Context, token, passwordHash string) (bool, error)

	UpdateRoleFunc                func(ctx context.Context, email, role string) error
	DeleteFunc                    func(ctx context.Context, email string) error
	DeleteExpiredActionTokensFunc func(ctx context.Context) (int64, error)
}

func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) FindByActionToken(ctx context.Context, token string) (*models.Account, error) {
	if m.FindByActionTokenFunc != nil {
		return m.FindByActionTokenFunc(ctx, token)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) Create(ctx context.Context, acct *models.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, acct)
	}
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.Account{}, nil
}

func (m *MockAccountRepository) UpdateFailCount(ctx context.Context, email string, count int) error {
	if m.UpdateFailCountFunc != nil {
		return m.UpdateFailCountFunc(ctx, email, count)
	}
	return nil
}

func (m *MockAccountRepository) SetLock(ctx context.Context, email string, count int, until time.Time) error {
	if m.SetLockFunc != nil {
		return m.SetLockFunc(ctx, email, count, until)
	}
	return nil
}

func (m *MockAccountRepository) ResetFailCount(ctx context.Context, email string) error {
	if m.ResetFailCountFunc != nil {
		return m.ResetFailCountFunc(ctx, email)
	}
	return nil
}

func (m *MockAccountRepository) ClearSuspension(ctx context.Context, email string) error {
	if m.ClearSuspensionFunc != nil {
		return m.ClearSuspensionFunc(ctx, email)
	}
	return nil
}

func (m *MockAccountRepository) Suspend(ctx context.Context, email string, until *time.Time, reason string) error {
	if m.SuspendFunc != nil {
		return m.SuspendFunc(ctx, email, until, reason)
	}
	return nil
}

func (m *MockAccountRepository) SetRefreshToken(ctx context.Context, email, token string) error {
	if m.SetRefreshTokenFunc != nil {
		return m.SetRefreshTokenFunc(ctx, email, token)
	}
	return nil
}

func (m *MockAccountRepository) RotateRefreshToken(ctx context.Context, email, presented, next string) (bool, error) {
	if m.RotateRefreshTokenFunc != nil {
		return m.RotateRefreshTokenFunc(ctx, email, presented, next)
	}
	return true, nil
}

func (m *MockAccountRepository) DeleteRefreshToken(ctx context.Context, email string) error {
	if m.DeleteRefreshTokenFunc != nil {
		return m.DeleteRefreshTokenFunc(ctx, email)
	}
	return nil
}

func (m *MockAccountRepository) DeleteAllRefreshTokens(ctx context.Context) (int64, error) {
	if m.DeleteAllRefreshTokensFunc != nil {
		return m.DeleteAllRefreshTokensFunc(ctx)
	}
	return 0, nil
}

func (m *MockAccountRepository) Activate(ctx context.Context, email string) error {
	if m.ActivateFunc != nil {
		return m.ActivateFunc(ctx, email)
	}
	return nil
}

func (m *MockAccountRepository) SetActionToken(ctx context.Context, email, token string, expireAt time.Time) error {
	if m.SetActionTokenFunc != nil {
		return m.SetActionTokenFunc(ctx, email, token, expireAt)
	}
	return nil
}

func (m *MockAccountRepository) ConsumeResetToken(ctx context.Context, token, passwordHash string) (bool, error) {
	if m.ConsumeResetTokenFunc != nil {
		return m.ConsumeResetTokenFunc(ctx, token, passwordHash)
	}
	return true, nil
}

func (m *MockAccountRepository) UpdateRole(ctx context.Context, email, role string) error {
	if m.UpdateRoleFunc != nil {
		return m.UpdateRoleFunc(ctx, email, role)
	}
	return nil
}

func (m *MockAccountRepository) Delete(ctx context.Context, email string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, email)
	}
	return nil
}

func (m *MockAccountRepository) DeleteExpiredActionTokens(ctx context.Context) (int64, error) {
	if m.DeleteExpiredActionTokensFunc != nil {
		return m.DeleteExpiredActionTokensFunc(ctx)
	}
	return 0, nil
}

// MockLoginEventRepository implements LoginEventRepository for testing. It
// collects recorded events so tests can assert on the audit trail.
type MockLoginEventRepository struct {
	RecordFunc          func(ctx context.Context, event *models.LoginEvent) error
	ListByEmailFunc     func(ctx context.Context, email string, limit int) ([]*models.LoginEvent, error)
	DeleteOlderThanFunc func(ctx context.Context, before time.Time) (int64, error)
	Recorded            []*models.LoginEvent
}

func (m *MockLoginEventRepository) Record(ctx context.Context, event *models.LoginEvent) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, event)
	}
	m.Recorded = append(m.Recorded, event)
	return nil
}

func (m *MockLoginEventRepository) ListByEmail(ctx context.Context, email string, limit int) ([]*models.LoginEvent, error) {
	if m.ListByEmailFunc != nil {
		return m.ListByEmailFunc(ctx, email, limit)
	}
	return []*models.LoginEvent{}, nil
}

func (m *MockLoginEventRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	if m.DeleteOlderThanFunc != nil {
		return m.DeleteOlderThanFunc(ctx, before)
	}
	return 0, nil
}

// MockAdminLogRepository implements AdminLogRepository for testing
type MockAdminLogRepository struct {
	RecordFunc       func(ctx context.Context, log *models.AdminLog) error
	ListByTargetFunc func(ctx context.Context, targetEmail string, limit int) ([]*models.AdminLog, error)
	Recorded         []*models.AdminLog
}

func (m *MockAdminLogRepository) Record(ctx context.Context, log *models.AdminLog) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, log)
	}
	m.Recorded = append(m.Recorded, log)
	return nil
}

func (m *MockAdminLogRepository) ListByTarget(ctx context.Context, targetEmail string, limit int) ([]*models.AdminLog, error) {
	if m.ListByTargetFunc != nil {
		return m.ListByTargetFunc(ctx, targetEmail, limit)
	}
	return m.Recorded, nil
}

// MockMailService implements MailService for testing
type MockMailService struct {
	SendVerificationMailFunc  func(ctx context.Context, email, token string) error
	SendPasswordResetMailFunc func(ctx context.Context, email, token string) error
}

func (m *MockMailService) SendVerificationMail(ctx context.Context, email, token string) error {
	if m.SendVerificationMailFunc != nil {
		return m.SendVerificationMailFunc(ctx, email, token)
	}
	return nil
}

func (m *MockMailService) SendPasswordResetMail(ctx context.Context, email, token string) error {
	if m.SendPasswordResetMailFunc != nil {
		return m.SendPasswordResetMailFunc(ctx, email, token)
	}
	return nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuditLogger() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(newTestLogger())
}

// NewTestAccount creates an active local account with the given password hash
func NewTestAccount(email, passwordHash string) *models.Account {
	now := time.Now()
	return &models.Account{
		Email:        email,
		PasswordHash: &passwordHash,
		FullName:     "Test User",
		Provider:     models.ProviderLocal,
		Role:         models.RoleUser,
		Status:       models.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestSocialAccount creates an active passwordless social account
func NewTestSocialAccount(email, provider string) *models.Account {
	acct := NewTestAccount(email, "")
	acct.PasswordHash = nil
	acct.Provider = provider
	return acct
}

// NewTestAccountUnverified creates an account still waiting on email verification
func NewTestAccountUnverified(email, passwordHash string) *models.Account {
	acct := NewTestAccount(email, passwordHash)
	acct.Status = models.StatusWaitingVerify
	return acct
}

// NewTestAccountSuspended suspends the account until the given time; a nil
// until means indefinite
func NewTestAccountSuspended(email, passwordHash string, until *time.Time, reason string) *models.Account {
	acct := NewTestAccount(email, passwordHash)
	acct.IsSuspended = true
	acct.SuspendUntil = until
	acct.SuspendReason = &reason
	return acct
}

// NewTestAccountLocked creates an account with an active login lock
func NewTestAccountLocked(email, passwordHash string, until time.Time) *models.Account {
	acct := NewTestAccount(email, passwordHash)
	acct.LoginFailCount = 5
	acct.LockUntil = &until
	return acct
}
