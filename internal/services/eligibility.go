package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/dohyunkim-dev/marketgate/internal/models"
	pkglogger "github.com/dohyunkim-dev/marketgate/pkg/logger"
)

// EligibilityChecker is the account state machine gate in front of login.
// Checks run in a fixed order so the caller always sees the most fundamental
// blocking reason first: verification, then suspension, then lock.
type EligibilityChecker struct {
	repo   AccountRepository
	events LoginEventRepository
	logger *slog.Logger
}

func NewEligibilityChecker(repo AccountRepository, events LoginEventRepository, logger *slog.Logger) *EligibilityChecker {
	return &EligibilityChecker{
		repo:   repo,
		events: events,
		logger: logger,
	}
}

// Check evaluates whether the account may attempt a password login right now.
// A nil return means eligible. An elapsed suspension is cleared here as a
// side effect and logged as AUTO_UNSUSPEND; an elapsed lock simply no longer
// blocks (the counter is reset only by a successful login).
func (c *EligibilityChecker) Check(ctx context.Context, acct *models.Account, ip, ua string) error {
	if err := c.checkStatusAndSuspension(ctx, acct, ip, ua); err != nil {
		return err
	}

	now := time.Now()
	if acct.LockUntil != nil && acct.LockUntil.After(now) {
		c.recordEvent(ctx, acct.Email, models.LoginEventLocked, ip, ua)
		return &models.AccountBlockedError{
			Reason:        models.BlockLocked,
			LockRemaining: acct.LockUntil.Sub(now),
		}
	}

	return nil
}

// CheckSocial gates a provider-authenticated login: verification status and
// suspension apply, the password lock does not because no password exists.
func (c *EligibilityChecker) CheckSocial(ctx context.Context, acct *models.Account, ip, ua string) error {
	return c.checkStatusAndSuspension(ctx, acct, ip, ua)
}

func (c *EligibilityChecker) checkStatusAndSuspension(ctx context.Context, acct *models.Account, ip, ua string) error {
	if acct.Status != models.StatusActive {
		c.recordEvent(ctx, acct.Email, models.LoginEventFail, ip, ua)
		return &models.AccountBlockedError{Reason: models.BlockUnverified}
	}

	if !acct.IsSuspended {
		return nil
	}

	now := time.Now()

	// suspend_until == nil means the suspension is indefinite
	if acct.SuspendUntil != nil && acct.SuspendUntil.Before(now) {
		if err := c.repo.ClearSuspension(ctx, acct.Email); err != nil {
			c.logger.Error("failed to clear elapsed suspension",
				slog.String("email", pkglogger.SanitizedEmail(acct.Email)),
				slog.Any("error", err))
			return models.ErrInternalServer
		}
		acct.IsSuspended = false
		acct.SuspendUntil = nil
		acct.SuspendReason = nil
		c.recordEvent(ctx, acct.Email, models.LoginEventAutoUnsuspend, ip, ua)
		return nil
	}

	c.recordEvent(ctx, acct.Email, models.LoginEventSuspended, ip, ua)

	blocked := &models.AccountBlockedError{
		Reason:       models.BlockSuspended,
		SuspendUntil: acct.SuspendUntil,
	}
	if acct.SuspendReason != nil {
		blocked.SuspendReason = *acct.SuspendReason
	}
	return blocked
}

func (c *EligibilityChecker) recordEvent(ctx context.Context, email, result, ip, ua string) {
	err := c.events.Record(ctx, &models.LoginEvent{
		Email:     email,
		Result:    result,
		IPAddress: ip,
		UserAgent: ua,
	})
	if err != nil {
		c.logger.Error("failed to record login event",
			slog.String("result", result),
			slog.Any("error", err))
	}
}
