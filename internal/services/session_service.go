package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dohyunkim-dev/marketgate/internal/auth"
	"github.com/dohyunkim-dev/marketgate/internal/models"
	pkgauth "github.com/dohyunkim-dev/marketgate/pkg/auth"
	pkglogger "github.com/dohyunkim-dev/marketgate/pkg/logger"
)

// SessionService orchestrates login, refresh, logout and social login. It is
// the single source of truth for "is this login allowed right now".
type SessionService struct {
	repo        AccountRepository
	events      LoginEventRepository
	eligibility *EligibilityChecker
	lockout     *LockoutPolicy
	tm          *auth.TokenManager
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewSessionService(
	repo AccountRepository,
	events LoginEventRepository,
	eligibility *EligibilityChecker,
	lockout *LockoutPolicy,
	tm *auth.TokenManager,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *SessionService {
	return &SessionService{
		repo:        repo,
		events:      events,
		eligibility: eligibility,
		lockout:     lockout,
		tm:          tm,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// AccountResponse represents an account in the HTTP response
type AccountResponse struct {
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	Provider  string `json:"provider"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// AuthResponse represents the response from login, social login and refresh
type AuthResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	Account      *AccountResponse `json:"account"`
}

// Login evaluates a password login. Blocking outcomes short-circuit before
// the bcrypt compare so no hashing work is spent on an account that could
// not log in anyway, and no failure reason leaks past a blocked state.
func (s *SessionService) Login(ctx context.Context, email, password, ip, ua string) (*AuthResponse, error) {
	if email = strings.TrimSpace(email); email == "" {
		return nil, models.ErrBadRequest
	}

	acct, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.recordEvent(ctx, email, models.LoginEventFail, ip, ua)
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				FailureReason: models.LoginFailNotFound,
				IPAddress:     ip,
				Success:       false,
			})
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load account for login", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.eligibility.Check(ctx, acct, ip, ua); err != nil {
		var blocked *models.AccountBlockedError
		if errors.As(err, &blocked) {
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_blocked",
				Email:         pkglogger.SanitizedEmail(acct.Email),
				FailureReason: blocked.Outcome(),
				IPAddress:     ip,
				Success:       false,
			})
		}
		return nil, err
	}

	if !acct.HasPassword() || pkgauth.ComparePassword(*acct.PasswordHash, password) != nil {
		return nil, s.handlePasswordFailure(ctx, acct, ip, ua)
	}

	if err := s.lockout.OnSuccess(ctx, acct); err != nil {
		s.logger.Error("failed to reset fail count", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.recordEvent(ctx, acct.Email, models.LoginEventSuccess, ip, ua)

	resp, err := s.establishSession(ctx, acct)
	if err != nil {
		return nil, err
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		Email:     pkglogger.SanitizedEmail(acct.Email),
		IPAddress: ip,
		Success:   true,
	})

	return resp, nil
}

func (s *SessionService) handlePasswordFailure(ctx context.Context, acct *models.Account, ip, ua string) error {
	result, err := s.lockout.OnFailure(ctx, acct)
	if err != nil {
		s.logger.Error("failed to record login failure", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.recordEvent(ctx, acct.Email, models.LoginEventFail, ip, ua)
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		Email:         pkglogger.SanitizedEmail(acct.Email),
		FailureReason: models.LoginFailBadPassword,
		IPAddress:     ip,
		Success:       false,
	})

	if result.LockUntil != nil {
		return &models.AccountBlockedError{
			Reason:        models.BlockLocked,
			LockRemaining: time.Until(*result.LockUntil),
		}
	}

	return &models.InvalidCredentialError{Remaining: result.Remaining}
}

// Refresh rotates the session: the presented refresh token must match the
// stored one exactly. Any mismatch, including "nothing stored", is treated
// as a reuse/theft signal and terminates the session outright. Rotation is a
// compare-and-swap, so of two concurrent refresh calls only one can win.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken = strings.TrimSpace(refreshToken); refreshToken == "" {
		return nil, models.ErrTokenInvalid
	}

	claims, err := s.tm.Verify(refreshToken)
	if err != nil {
		return nil, models.ErrTokenInvalid
	}
	if claims.Type != models.TokenTypeRefresh {
		return nil, models.ErrTokenInvalid
	}

	acct, err := s.repo.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to load account for refresh", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if acct.Status != models.StatusActive {
		return nil, &models.AccountBlockedError{Reason: models.BlockUnverified}
	}

	// A suspension blocks refresh too, so suspending an account ends its
	// live session at the next rotation. Clearing an elapsed suspension
	// stays with login.
	if acct.IsSuspended && (acct.SuspendUntil == nil || acct.SuspendUntil.After(time.Now())) {
		blocked := &models.AccountBlockedError{
			Reason:       models.BlockSuspended,
			SuspendUntil: acct.SuspendUntil,
		}
		if acct.SuspendReason != nil {
			blocked.SuspendReason = *acct.SuspendReason
		}
		return nil, blocked
	}

	newAccess, err := s.tm.IssueAccessToken(acct.Email, acct.Role)
	if err != nil {
		s.logger.Error("failed to issue access token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	newRefresh, err := s.tm.IssueRefreshToken(acct.Email, acct.Role)
	if err != nil {
		s.logger.Error("failed to issue refresh token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	swapped, err := s.repo.RotateRefreshToken(ctx, acct.Email, refreshToken, newRefresh)
	if err != nil {
		s.logger.Error("failed to rotate refresh token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !swapped {
		// One-way ratchet: the stored token is destroyed, forcing full
		// re-login. Never silently recoverable.
		if err := s.repo.DeleteRefreshToken(ctx, acct.Email); err != nil && !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to delete refresh token after mismatch", slog.Any("error", err))
		}
		s.auditLogger.LogTokenReuse(pkglogger.SanitizedEmail(acct.Email))
		return nil, models.ErrTokenReused
	}

	s.logger.Info("session refreshed", slog.String("email", pkglogger.SanitizedEmail(acct.Email)))

	return &AuthResponse{
		AccessToken:  newAccess,
		RefreshToken: newRefresh,
		Account:      accountToResponse(acct),
	}, nil
}

// Logout deletes the stored refresh token for the named account. Deleting an
// already-absent token still succeeds; an unknown account is an error.
func (s *SessionService) Logout(ctx context.Context, email string) error {
	if _, err := s.repo.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to load account for logout", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.DeleteRefreshToken(ctx, email); err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to delete refresh token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("logged out", slog.String("email", pkglogger.SanitizedEmail(email)))
	return nil
}

// SocialLogin consumes an already-normalized identity from the external OAuth
// exchange. A first-time identity creates an ACTIVE account with no password;
// afterwards the flow is the success path of Login minus password and lock
// checks, since no password exists to fail.
func (s *SessionService) SocialLogin(ctx context.Context, identity models.SocialIdentity, ip, ua string) (*AuthResponse, error) {
	email := strings.TrimSpace(identity.Email)
	if email == "" {
		return nil, models.ErrBadRequest
	}

	acct, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to load account for social login", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		newAcct := &models.Account{
			Email:    email,
			FullName: identity.DisplayName,
			Provider: identity.Provider,
			Role:     models.RoleUser,
			Status:   models.StatusActive,
		}
		if err := s.repo.Create(ctx, newAcct); err != nil {
			// A concurrent social login may have created the row first.
			if !errors.Is(err, models.ErrConflict) {
				s.logger.Error("failed to create social account", slog.Any("error", err))
				return nil, models.ErrInternalServer
			}
		}

		acct, err = s.repo.FindByEmail(ctx, email)
		if err != nil {
			s.logger.Error("failed to reload social account", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		s.auditLogger.LogAccountAction("social_account_created", pkglogger.SanitizedEmail(email),
			map[string]string{"provider": identity.Provider})
	}

	if err := s.eligibility.CheckSocial(ctx, acct, ip, ua); err != nil {
		return nil, err
	}

	s.recordEvent(ctx, acct.Email, models.LoginEventSuccess, ip, ua)

	resp, err := s.establishSession(ctx, acct)
	if err != nil {
		return nil, err
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "social_login_success",
		Email:     pkglogger.SanitizedEmail(acct.Email),
		IPAddress: ip,
		Success:   true,
	})

	return resp, nil
}

// establishSession mints a token pair and persists the refresh token. The
// store write commits before the response is formed.
func (s *SessionService) establishSession(ctx context.Context, acct *models.Account) (*AuthResponse, error) {
	accessToken, err := s.tm.IssueAccessToken(acct.Email, acct.Role)
	if err != nil {
		s.logger.Error("failed to issue access token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := s.tm.IssueRefreshToken(acct.Email, acct.Role)
	if err != nil {
		s.logger.Error("failed to issue refresh token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.repo.SetRefreshToken(ctx, acct.Email, refreshToken); err != nil {
		s.logger.Error("failed to persist refresh token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Account:      accountToResponse(acct),
	}, nil
}

func (s *SessionService) recordEvent(ctx context.Context, email, result, ip, ua string) {
	err := s.events.Record(ctx, &models.LoginEvent{
		Email:     email,
		Result:    result,
		IPAddress: ip,
		UserAgent: ua,
	})
	if err != nil {
		s.logger.Error("failed to record login event",
			slog.String("result", result),
			slog.Any("error", err))
	}
}

func accountToResponse(acct *models.Account) *AccountResponse {
	return &AccountResponse{
		Email:     acct.Email,
		FullName:  acct.FullName,
		Role:      acct.Role,
		Provider:  acct.Provider,
		Status:    acct.Status,
		CreatedAt: acct.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
