package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/dohyunkim-dev/marketgate/internal/models"
)

// LockoutConfig carries the lockout policy values. They are policy, not
// mechanism, and come from configuration.
type LockoutConfig struct {
	MaxFail      int
	LockDuration time.Duration
}

// LockoutPolicy tracks consecutive password failures per account and computes
// lock windows. The store serializes counter updates per account row.
type LockoutPolicy struct {
	repo   AccountRepository
	config LockoutConfig
	logger *slog.Logger
}

func NewLockoutPolicy(repo AccountRepository, config LockoutConfig, logger *slog.Logger) *LockoutPolicy {
	return &LockoutPolicy{
		repo:   repo,
		config: config,
		logger: logger,
	}
}

// FailureResult describes the outcome of recording one password failure.
type FailureResult struct {
	FailCount int
	Remaining int        // attempts left before the lock; 0 when Locked
	LockUntil *time.Time // set when this failure tripped the lock
}

// OnFailure increments the persisted counter and sets the lock when the
// threshold is reached. The counter and the lock timestamp are written in a
// single store operation.
func (p *LockoutPolicy) OnFailure(ctx context.Context, acct *models.Account) (*FailureResult, error) {
	newCount := acct.LoginFailCount + 1

	if newCount >= p.config.MaxFail {
		until := time.Now().Add(p.config.LockDuration)
		if err := p.repo.SetLock(ctx, acct.Email, newCount, until); err != nil {
			return nil, err
		}
		p.logger.Warn("account locked after consecutive failures",
			slog.Int("fail_count", newCount),
			slog.Time("lock_until", until))
		return &FailureResult{FailCount: newCount, Remaining: 0, LockUntil: &until}, nil
	}

	if err := p.repo.UpdateFailCount(ctx, acct.Email, newCount); err != nil {
		return nil, err
	}
	return &FailureResult{FailCount: newCount, Remaining: p.config.MaxFail - newCount}, nil
}

// OnSuccess fully rehabilitates the account: the counter returns to zero and
// any lock is cleared, regardless of how the account arrived here.
func (p *LockoutPolicy) OnSuccess(ctx context.Context, acct *models.Account) error {
	if acct.LoginFailCount == 0 && acct.LockUntil == nil {
		return nil
	}
	return p.repo.ResetFailCount(ctx, acct.Email)
}
