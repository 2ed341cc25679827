package jobs

import (
	"context"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/logger"
	"rentchain-backend/internal/metrics"
)

// ReconcileLedger checks that total supply equals account balances plus
// escrow and publishes the totals as gauges.
func (jr *JobRunner) ReconcileLedger() {
	jr.runWithRecovery("ReconcileLedger", func(ctx context.Context) {
		rec, err := jr.reconcile(ctx)
		if err != nil {
			logger.Error("Failed to reconcile ledger", "error", err)
			return
		}
		metrics.Core().RecordSupply(rec.Supply, rec.Accounts, rec.Escrowed)
		if !rec.Balanced() {
			logger.Error("Ledger out of balance",
				"supply", rec.Supply,
				"accounts", rec.Accounts,
				"escrowed", rec.Escrowed,
				"difference", rec.Supply-rec.Accounts-rec.Escrowed,
			)
			return
		}
		logger.Info("Ledger balanced", "supply", rec.Supply, "escrowed", rec.Escrowed)
	})
}

func (jr *JobRunner) reconcile(ctx context.Context) (domain.LedgerTotals, error) {
	return jr.services.Ledger.Reconcile(ctx)
}
