package jobs

import (
	"context"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/logger"
)

// ResolveExpiredDisputes settles every pending dispute whose voting window
// has closed. Each dispute is resolved in its own transaction, so one failure
// does not hold back the rest.
func (jr *JobRunner) ResolveExpiredDisputes() {
	jr.runWithRecovery("ResolveExpiredDisputes", func(ctx context.Context) {
		resolved, err := jr.services.Disputes.ResolveExpired(ctx, domain.SystemCaller())
		for _, d := range resolved {
			approve, reject := d.Tally()
			logger.Info("Resolved expired dispute",
				"dispute_id", d.ID,
				"property_id", d.PropertyID,
				"outcome", d.Status,
				"approve", approve,
				"reject", reject,
			)
		}
		if err != nil {
			logger.Error("Failed to resolve some expired disputes", "error", err, "resolved", len(resolved))
			return
		}
		logger.Info("Expired disputes resolved", "count", len(resolved))
	})
}
