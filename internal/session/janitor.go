package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"member-ledger/internal/metrics"
)

// DefaultPurgeSchedule runs the expired-session purge every 15 minutes.
const DefaultPurgeSchedule = "@every 15m"

// StartJanitor schedules periodic purges of expired sessions.
// Stop the returned cron to end the job.
func StartJanitor(store Store, schedule string, logger *slog.Logger) (*cron.Cron, error) {
	if schedule == "" {
		schedule = DefaultPurgeSchedule
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		PurgeExpired(ctx, store, logger)
	}); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
	}
	c.Start()

	return c, nil
}

// PurgeExpired removes expired sessions from store and logs the outcome.
func PurgeExpired(ctx context.Context, store Store, logger *slog.Logger) int64 {
	n, err := store.Purge(ctx)
	if err != nil {
		logger.Error("failed to purge expired sessions", "error", err)
		return 0
	}
	metrics.RecordSessionsPurged(n)
	if n > 0 {
		logger.Info("purged expired sessions", "count", n)
	}
	return n
}
