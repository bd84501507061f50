package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dohyunkim-dev/marketgate/internal/models"
	pkglogger "github.com/dohyunkim-dev/marketgate/pkg/logger"
)

// AdminService performs privileged account administration. Every mutation
// writes an admin log row naming the acting administrator.
type AdminService struct {
	repo        AccountRepository
	events      LoginEventRepository
	adminLogs   AdminLogRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewAdminService(
	repo AccountRepository,
	events LoginEventRepository,
	adminLogs AdminLogRepository,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AdminService {
	return &AdminService{
		repo:        repo,
		events:      events,
		adminLogs:   adminLogs,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// ListAccounts returns a page of accounts for the admin console.
func (s *AdminService) ListAccounts(ctx context.Context, limit, offset int) ([]*AccountResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	accounts, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list accounts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	resp := make([]*AccountResponse, 0, len(accounts))
	for _, acct := range accounts {
		resp = append(resp, accountToResponse(acct))
	}
	return resp, nil
}

// Suspend blocks the account for the given number of days, or indefinitely
// when days is zero.
func (s *AdminService) Suspend(ctx context.Context, actingAdmin, email string, days int, reason string) error {
	if days < 0 {
		return models.ErrBadRequest
	}

	acct, err := s.loadTarget(ctx, email)
	if err != nil {
		return err
	}

	var until *time.Time
	if days > 0 {
		t := time.Now().Add(time.Duration(days) * 24 * time.Hour)
		until = &t
	}

	if err := s.repo.Suspend(ctx, acct.Email, until, reason); err != nil {
		s.logger.Error("failed to suspend account", slog.Any("error", err))
		return models.ErrInternalServer
	}

	detail := "indefinite"
	if days > 0 {
		detail = strconv.Itoa(days) + " days"
	}
	s.recordAdminLog(ctx, actingAdmin, acct.Email, "SUSPEND", fmt.Sprintf("%s: %s", detail, reason))
	return nil
}

// Unsuspend lifts a suspension immediately.
func (s *AdminService) Unsuspend(ctx context.Context, actingAdmin, email string) error {
	acct, err := s.loadTarget(ctx, email)
	if err != nil {
		return err
	}

	if !acct.IsSuspended {
		return nil
	}

	if err := s.repo.ClearSuspension(ctx, acct.Email); err != nil {
		s.logger.Error("failed to clear suspension", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.recordAdminLog(ctx, actingAdmin, acct.Email, "UNSUSPEND", "")
	return nil
}

// ChangeRole switches an account between USER and ADMIN. Suspended and
// unverified accounts cannot be promoted or demoted.
func (s *AdminService) ChangeRole(ctx context.Context, actingAdmin, email, role string) error {
	if role != models.RoleUser && role != models.RoleAdmin {
		return models.ErrBadRequest
	}

	acct, err := s.loadTarget(ctx, email)
	if err != nil {
		return err
	}

	if acct.Status != models.StatusActive {
		return models.ErrBadRequest
	}
	if acct.IsSuspended {
		return models.ErrBadRequest
	}
	if acct.Role == role {
		return nil
	}

	if err := s.repo.UpdateRole(ctx, acct.Email, role); err != nil {
		s.logger.Error("failed to update role", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.recordAdminLog(ctx, actingAdmin, acct.Email, "CHANGE_ROLE", acct.Role+" -> "+role)
	return nil
}

// ResetLoginFail clears the failure counter and any active lock, restoring
// login ability without waiting out the lock window.
func (s *AdminService) ResetLoginFail(ctx context.Context, actingAdmin, email string) error {
	acct, err := s.loadTarget(ctx, email)
	if err != nil {
		return err
	}

	if err := s.repo.ResetFailCount(ctx, acct.Email); err != nil {
		s.logger.Error("failed to reset login failures", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.recordAdminLog(ctx, actingAdmin, acct.Email, "RESET_LOGIN_FAIL", "")
	return nil
}

// ForceLogout deletes the target's stored refresh token, terminating its
// session at the next rotation. Already being logged out is not an error.
func (s *AdminService) ForceLogout(ctx context.Context, actingAdmin, email string) error {
	acct, err := s.loadTarget(ctx, email)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteRefreshToken(ctx, acct.Email); err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to force logout", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.recordAdminLog(ctx, actingAdmin, acct.Email, "FORCE_LOGOUT", "")
	return nil
}

// ClearAllTokens revokes every stored refresh token, logging out all accounts
// at once. Returns how many sessions were ended.
func (s *AdminService) ClearAllTokens(ctx context.Context, actingAdmin string) (int64, error) {
	cleared, err := s.repo.DeleteAllRefreshTokens(ctx)
	if err != nil {
		s.logger.Error("failed to clear refresh tokens", slog.Any("error", err))
		return 0, models.ErrInternalServer
	}

	s.recordAdminLog(ctx, actingAdmin, "", "CLEAR_TOKENS", strconv.FormatInt(cleared, 10)+" sessions ended")
	return cleared, nil
}

// LoginHistory returns the recent login events recorded against an account.
func (s *AdminService) LoginHistory(ctx context.Context, email string, limit int) ([]*models.LoginEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	if _, err := s.loadTarget(ctx, email); err != nil {
		return nil, err
	}

	events, err := s.events.ListByEmail(ctx, email, limit)
	if err != nil {
		s.logger.Error("failed to list login events", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return events, nil
}

// ActionHistory returns the administrative actions taken against an account.
func (s *AdminService) ActionHistory(ctx context.Context, email string, limit int) ([]*models.AdminLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	if _, err := s.loadTarget(ctx, email); err != nil {
		return nil, err
	}

	logs, err := s.adminLogs.ListByTarget(ctx, email, limit)
	if err != nil {
		s.logger.Error("failed to list admin logs", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return logs, nil
}

func (s *AdminService) loadTarget(ctx context.Context, email string) (*models.Account, error) {
	acct, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to load target account", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return acct, nil
}

func (s *AdminService) recordAdminLog(ctx context.Context, actingAdmin, target, action, detail string) {
	log := &models.AdminLog{
		AdminEmail:  actingAdmin,
		TargetEmail: target,
		Action:      action,
		Detail:      detail,
		CreatedAt:   time.Now(),
	}
	if err := s.adminLogs.Record(ctx, log); err != nil {
		s.logger.Error("failed to record admin log",
			slog.String("action", action),
			slog.Any("error", err))
	}

	s.auditLogger.LogAccountAction("admin_"+action,
		pkglogger.SanitizedEmail(target),
		map[string]string{"admin": pkglogger.SanitizedEmail(actingAdmin)})
}
