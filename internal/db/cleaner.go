package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartStaleSnapshotCleaner removes snapshots not written within retention,
// checking every interval until ctx is done. Snapshot keys are per profile,
// so abandoned profiles would otherwise accumulate forever.
func StartStaleSnapshotCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-retention)
				res, err := db.ExecContext(ctx, `
                    DELETE FROM snapshots
                     WHERE updated_at < $1
                `, cutoff)
				if err != nil {
					log.Error("failed to clean stale snapshots", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("cleaned stale snapshots", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
