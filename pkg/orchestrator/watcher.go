package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shieldpay/solzec-bridge/internal/metrics"
	"github.com/shieldpay/solzec-bridge/pkg/bridge"
)

// depositExpiredReason is recorded on PENDING rows failed for never
// receiving a deposit before the intent deadline.
const depositExpiredReason = "intent deadline elapsed before a deposit was observed"

// runDepositScan is one watcher tick. It scans PENDING rows for deposits
// and promotes funded rows to PROCESSING, then fails the rows whose intent
// deadline elapsed with no deposit in sight. Scanning before expiring means
// a deposit that landed just inside the deadline is claimed, not discarded.
func (e *Engine) runDepositScan(ctx context.Context) error {
	pending, err := e.store.ListByStatus(ctx, bridge.StatusPending, scanBatch)
	if err != nil {
		return fmt.Errorf("failed to list pending transactions: %w", err)
	}

	for _, tx := range pending {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.stopCh:
			return nil
		default:
		}

		if _, err := e.checkDeposit(ctx, tx); err != nil {
			e.logger.Warn("Deposit check failed",
				zap.String("bridge_id", tx.ID),
				zap.String("deposit_address", tx.DepositAddress),
				zap.Error(err))
		}
	}

	return e.expirePending(ctx)
}

// expirePending fails PENDING rows whose intent deadline elapsed. Every row
// gets a final deposit lookup first: a deposit observed now, including one
// that arrived while the watcher was down, still promotes the row. A row
// whose lookup errors is left alone until a tick can actually verify it.
func (e *Engine) expirePending(ctx context.Context) error {
	cutoff := time.Now().Add(-e.cfg.IntentDeadline)
	expired, err := e.store.ListExpiredPending(ctx, cutoff, scanBatch)
	if err != nil {
		return fmt.Errorf("failed to list expired transactions: %w", err)
	}

	for _, tx := range expired {
		funded, err := e.checkDeposit(ctx, tx)
		if err != nil {
			e.logger.Warn("Deposit check failed, deferring expiry",
				zap.String("bridge_id", tx.ID),
				zap.String("deposit_address", tx.DepositAddress),
				zap.Error(err))
			continue
		}
		if funded {
			continue
		}

		updated, err := e.store.MarkFailed(ctx, tx.ID, bridge.StatusPending, depositExpiredReason)
		if err != nil {
			e.logger.Error("Failed to expire transaction",
				zap.String("bridge_id", tx.ID),
				zap.Error(err))
			continue
		}
		if updated {
			metrics.SettlementOutcomes.WithLabelValues("expired").Inc()
			e.logger.Info("Bridge attempt expired without deposit",
				zap.String("bridge_id", tx.ID),
				zap.String("deposit_address", tx.DepositAddress),
				zap.Time("created_at", tx.CreatedAt))
		}
	}

	return nil
}

// checkDeposit looks for a funding transaction on one PENDING row and, if
// found, claims the row via the status gate. It reports whether a deposit
// was observed regardless of who won the claim. Notifying the settlement
// network is best effort: it discovers deposits on its own, the submit
// call only speeds that up.
func (e *Engine) checkDeposit(ctx context.Context, tx *bridge.Transaction) (bool, error) {
	deposit, err := e.source.FindDeposit(ctx, tx.DepositAddress)
	if err != nil {
		metrics.ExternalCallErrors.WithLabelValues("solana").Inc()
		return false, fmt.Errorf("find deposit: %w", err)
	}
	if deposit == nil {
		return false, nil
	}

	updated, err := e.store.MarkProcessing(ctx, tx.ID, deposit.Signature)
	if err != nil {
		return true, fmt.Errorf("mark processing: %w", err)
	}
	if !updated {
		// Row left PENDING between the list and the update.
		return true, nil
	}

	metrics.DepositsObserved.Inc()
	e.logger.Info("Deposit observed",
		zap.String("bridge_id", tx.ID),
		zap.String("deposit_address", tx.DepositAddress),
		zap.String("signature", deposit.Signature),
		zap.Uint64("slot", deposit.Slot))

	if err := e.settlement.SubmitDepositTx(ctx, tx.DepositAddress, deposit.Signature); err != nil {
		metrics.ExternalCallErrors.WithLabelValues("settlement").Inc()
		e.logger.Warn("Deposit notification failed, settlement will self-discover",
			zap.String("bridge_id", tx.ID),
			zap.Error(err))
	}

	return true, nil
}
