package background

import (
	"context"
	"log/slog"
	"time"
)

// AttemptPruner deletes login attempt rows older than a cutoff.
type AttemptPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionReaper deactivates sessions idle since a cutoff.
type SessionReaper interface {
	DeactivateIdleSince(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupManager periodically prunes old login attempts and deactivates
// sessions with no recent activity.
type CleanupManager struct {
	attempts         AttemptPruner
	sessions         SessionReaper
	logger           *slog.Logger
	interval         time.Duration
	attemptRetention time.Duration
	sessionIdle      time.Duration
	stopCh           chan struct{}
}

func NewCleanupManager(
	attempts AttemptPruner,
	sessions SessionReaper,
	logger *slog.Logger,
	interval, attemptRetention, sessionIdle time.Duration,
) *CleanupManager {
	return &CleanupManager{
		attempts:         attempts,
		sessions:         sessions,
		logger:           logger,
		interval:         interval,
		attemptRetention: attemptRetention,
		sessionIdle:      sessionIdle,
		stopCh:           make(chan struct{}),
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

	now := time.Now().UTC()

	pruned, err := cm.attempts.DeleteOlderThan(cleanupCtx, now.Add(-cm.attemptRetention))
	if err != nil {
		cm.logger.Error("failed to prune login attempts", slog.Any("error", err))
	} else if pruned > 0 {
		cm.logger.Info("login attempt pruning completed", slog.Int64("rows_deleted", pruned))
	}

	reaped, err := cm.sessions.DeactivateIdleSince(cleanupCtx, now.Add(-cm.sessionIdle))
	if err != nil {
		cm.logger.Error("failed to deactivate idle sessions", slog.Any("error", err))
	} else if reaped > 0 {
		cm.logger.Info("idle session cleanup completed", slog.Int64("sessions_deactivated", reaped))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
