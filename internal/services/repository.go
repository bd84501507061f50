package services

import (
	"context"
	"time"

	"github.com/dohyunkim-dev/marketgate/internal/models"
)

// AccountRepository is the contract the core holds against the credential
// store. Implementations must provide read-modify-write atomicity per account
// row; RotateRefreshToken and ConsumeResetToken are compare-and-swap
// operations on which the security invariants depend.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByActionToken(ctx context.Context, token string) (*models.Account, error)
	Create(ctx context.Context, acct *models.Account) error
	List(ctx context.Context, limit, offset int) ([]*models.Account, error)

	UpdateFailCount(ctx context.Context, email string, count int) error
	SetLock(ctx context.Context, email string, count int, until time.Time) error
	ResetFailCount(ctx context.Context, email string) error

	ClearSuspension(ctx context.Context, email string) error
	Suspend(ctx context.Context, email string, until *time.Time, reason string) error

	SetRefreshToken(ctx context.Context, email, token string) error
	RotateRefreshToken(ctx context.Context, email, presented, next string) (bool, error)
	DeleteRefreshToken(ctx context.Context, email string) error
	DeleteAllRefreshTokens(ctx context.Context) (int64, error)

	Activate(ctx context.Context, email string) error
	SetActionToken(ctx context.Context, email, token string, expireAt time.Time) error
	ConsumeResetToken(ctx context.Context, token, passwordHash string) (bool, error)

	UpdateRole(ctx context.Context, email, role string) error
	Delete(ctx context.Context, email string) error
	DeleteExpiredActionTokens(ctx context.Context) (int64, error)
}

// LoginEventRepository records the login audit trail.
type LoginEventRepository interface {
	Record(ctx context.Context, event *models.LoginEvent) error
	ListByEmail(ctx context.Context, email string, limit int) ([]*models.LoginEvent, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// AdminLogRepository records administrative actions.
type AdminLogRepository interface {
	Record(ctx context.Context, log *models.AdminLog) error
	ListByTarget(ctx context.Context, targetEmail string, limit int) ([]*models.AdminLog, error)
}

// MailService dispatches account mails. Delivery is fire-and-forget from the
// core's perspective: failures are logged by callers, never propagated into
// state already committed to the store.
type MailService interface {
	SendVerificationMail(ctx context.Context, email, token string) error
	SendPasswordResetMail(ctx context.Context, email, token string) error
}
