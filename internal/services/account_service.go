package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dohyunkim-dev/marketgate/internal/models"
	pkgauth "github.com/dohyunkim-dev/marketgate/pkg/auth"
	pkglogger "github.com/dohyunkim-dev/marketgate/pkg/logger"
	"github.com/google/uuid"
)

// AccountService handles registration, email verification, password reset
// and withdrawal.
type AccountService struct {
	repo           AccountRepository
	mail           MailService
	logger         *slog.Logger
	auditLogger    *pkglogger.AuditLogger
	actionTokenTTL time.Duration
}

func NewAccountService(
	repo AccountRepository,
	mail MailService,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
	actionTokenTTL time.Duration,
) *AccountService {
	return &AccountService{
		repo:           repo,
		mail:           mail,
		logger:         logger,
		auditLogger:    auditLogger,
		actionTokenTTL: actionTokenTTL,
	}
}

// Register creates a WAITING_VERIFY account and dispatches the verification
// mail. Mail delivery failure is logged only; the account is already
// committed and the user can request the mail again.
func (s *AccountService) Register(ctx context.Context, email, password, name string) error {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return models.ErrBadRequest
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return err
	}

	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return models.ErrConflict
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check for existing account", slog.Any("error", err))
		return models.ErrInternalServer
	}

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	token := uuid.New().String()
	expireAt := time.Now().Add(s.actionTokenTTL)

	acct := &models.Account{
		Email:         email,
		PasswordHash:  &hash,
		FullName:      name,
		Provider:      models.ProviderLocal,
		Role:          models.RoleUser,
		Status:        models.StatusWaitingVerify,
		ActionToken:   &token,
		TokenExpireAt: &expireAt,
	}

	if err := s.repo.Create(ctx, acct); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return models.ErrConflict
		}
		s.logger.Error("failed to create account", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.mail.SendVerificationMail(ctx, email, token); err != nil {
		s.logger.Error("failed to send verification mail",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
	}

	s.auditLogger.LogAccountAction("account_registered", pkglogger.SanitizedEmail(email), nil)
	return nil
}

// CheckEmail reports whether the email is available for registration.
func (s *AccountService) CheckEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err == nil {
		return false, nil
	}
	if errors.Is(err, models.ErrNotFound) {
		return true, nil
	}
	s.logger.Error("failed to check email availability", slog.Any("error", err))
	return false, models.ErrInternalServer
}

// VerifyEmail consumes a verification token and activates the account.
// Verifying an already-active account reports AlreadyVerified, not an error.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) (models.VerificationStatus, error) {
	acct, err := s.repo.FindByActionToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return 0, models.ErrTokenInvalid
		}
		s.logger.Error("failed to look up verification token", slog.Any("error", err))
		return 0, models.ErrInternalServer
	}

	if acct.Status == models.StatusActive {
		return models.AlreadyVerified, nil
	}

	if acct.TokenExpireAt == nil || acct.TokenExpireAt.Before(time.Now()) {
		return 0, models.ErrTokenExpired
	}

	if err := s.repo.Activate(ctx, acct.Email); err != nil {
		s.logger.Error("failed to activate account", slog.Any("error", err))
		return 0, models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("account_verified", pkglogger.SanitizedEmail(acct.Email), nil)
	return models.Verified, nil
}

// RequestPasswordReset issues a single-use reset token and mails the link.
// Social-only accounts have no password and are refused with the provider
// name so the caller can point the user at the right login.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)

	acct, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to load account for password reset", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if !acct.HasPassword() {
		return &models.SocialOnlyError{Provider: acct.Provider}
	}

	token := uuid.New().String()
	expireAt := time.Now().Add(s.actionTokenTTL)

	if err := s.repo.SetActionToken(ctx, email, token, expireAt); err != nil {
		s.logger.Error("failed to store reset token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.mail.SendPasswordResetMail(ctx, email, token); err != nil {
		s.logger.Error("failed to send password reset mail",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
	}

	s.auditLogger.LogAccountAction("password_reset_requested", pkglogger.SanitizedEmail(email), nil)
	return nil
}

// VerifyResetToken checks a reset token without consuming it. Invalid and
// expired are distinguishable outcomes; both deny.
func (s *AccountService) VerifyResetToken(ctx context.Context, token string) error {
	acct, err := s.repo.FindByActionToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrTokenInvalid
		}
		s.logger.Error("failed to look up reset token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if acct.TokenExpireAt == nil || acct.TokenExpireAt.Before(time.Now()) {
		return models.ErrTokenExpired
	}

	return nil
}

// ConfirmPasswordReset consumes the token exactly once and installs the new
// password. The consume is a compare-and-swap in the store, so a concurrent
// confirm with the same token cannot succeed twice.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if err := s.VerifyResetToken(ctx, token); err != nil {
		return err
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	consumed, err := s.repo.ConsumeResetToken(ctx, token, hash)
	if err != nil {
		s.logger.Error("failed to consume reset token", slog.Any("error", err))
		return models.ErrInternalServer
	}
	if !consumed {
		// Raced with another confirm or with the cleanup job.
		return models.ErrTokenInvalid
	}

	s.auditLogger.LogAccountAction("password_reset_completed", "", nil)
	return nil
}

// Withdraw removes the account entirely. This is the only hard-delete path.
func (s *AccountService) Withdraw(ctx context.Context, email string) error {
	if err := s.repo.Delete(ctx, email); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete account", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("account_withdrawn", pkglogger.SanitizedEmail(email), nil)
	return nil
}
