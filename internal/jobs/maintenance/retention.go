package maintenance

import (
	"context"
	"errors"
	"time"

	"allowcast/internal/config"
	"allowcast/internal/database"
	"allowcast/internal/suggest"
	"allowcast/internal/support"

	"github.com/charmbracelet/log"
)

const retentionLockKey = "allowcast:leader:retention"

// StartRetentionRoutine periodically expires stale records and trims the
// inactive inferred pool. The leader lock keeps a multi-instance deployment
// from running the sweep concurrently.
func StartRetentionRoutine(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	err := support.RunWithLeader(ctx, retentionLockKey, support.DefaultLeadershipTTL, func(leaderCtx context.Context) {
		runRetentionLoop(leaderCtx)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Retention routine stopped", "error", err)
	}
}

func runRetentionLoop(ctx context.Context) {
	updates := config.RetentionIntervalUpdates()
	interval := config.GetRetentionInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runRetentionSweep()

	for {
		select {
		case <-ctx.Done():
			return
		case newInterval := <-updates:
			if newInterval != interval {
				interval = newInterval
				ticker.Reset(interval)
			}
		case <-ticker.C:
			runRetentionSweep()
		}
	}
}

func runRetentionSweep() {
	start := time.Now()
	cfg := config.GetConfig()

	staleDays := cfg.Retention.StaleAfterDays
	if staleDays <= 0 {
		staleDays = 30
	}
	cutoff := time.Now().AddDate(0, 0, -staleDays)

	expired, err := database.DeactivateStaleRecords(cutoff)
	if err != nil {
		log.Error("Failed to deactivate stale records", "error", err)
	}

	deactivated, deleted, err := database.PruneInferred()
	if err != nil {
		log.Error("Failed to prune inferred records", "error", err)
	}

	suggest.DefaultEngine.Invalidate()

	if expired > 0 || deactivated > 0 || deleted > 0 {
		log.Info("Retention sweep completed",
			"expired", expired,
			"inferred_deactivated", deactivated,
			"inferred_deleted", deleted,
			"duration", time.Since(start))
	}
}
