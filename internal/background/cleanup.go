package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/dohyunkim-dev/marketgate/internal/services"
)

// CleanupManager periodically purges expired action tokens and aged login
// event rows.
type CleanupManager struct {
	accounts  services.AccountRepository
	events    services.LoginEventRepository
	logger    *slog.Logger
	interval  time.Duration
	retention time.Duration
	stopCh    chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	accounts services.AccountRepository,
	events services.LoginEventRepository,
	logger *slog.Logger,
	interval time.Duration,
	retention time.Duration,
) *CleanupManager {
	return &CleanupManager{
		accounts:  accounts,
		events:    events,
		logger:    logger,
		interval:  interval,
		retention: retention,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tokensCleared, err := cm.accounts.DeleteExpiredActionTokens(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to clear expired action tokens", slog.Any("error", err))
	} else if tokensCleared > 0 {
		cm.logger.Info("expired action tokens cleared", slog.Int64("rows", tokensCleared))
	}

	cutoff := time.Now().Add(-cm.retention)
	eventsDeleted, err := cm.events.DeleteOlderThan(cleanupCtx, cutoff)
	if err != nil {
		cm.logger.Error("failed to prune login events", slog.Any("error", err))
	} else if eventsDeleted > 0 {
		cm.logger.Info("old login events pruned", slog.Int64("rows", eventsDeleted))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
