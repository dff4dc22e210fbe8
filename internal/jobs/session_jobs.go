package jobs

import (
	"context"
	"fmt"

	"camrent-web/internal/logger"
)

// PruneSessions deletes expired BFF sessions from postgres.
func (jr *JobRunner) PruneSessions() {
	jr.runWithRecovery("PruneSessions", func(ctx context.Context) error {
		_, err := jr.pruneSessions(ctx)
		return err
	})
}

func (jr *JobRunner) pruneSessions(ctx context.Context) (int64, error) {
	if jr.sessions == nil {
		logger.Debug("Session pruning skipped, store is not postgres")
		return 0, nil
	}
	n, err := jr.sessions.DeleteExpired(ctx, jr.now())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	logger.Info("Expired sessions pruned", "count", n)
	return n, nil
}
