package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shieldpay/solzec-bridge/internal/metrics"
	"github.com/shieldpay/solzec-bridge/pkg/bridge"
	"github.com/shieldpay/solzec-bridge/pkg/settlement"
)

// runReconcile is one reconciler tick: poll the settlement network for
// every PROCESSING row and apply the mapped outcome. Rows whose poll
// budget runs out raise an operational alert but keep their state; the
// next tick polls them again.
func (e *Engine) runReconcile(ctx context.Context) error {
	processing, err := e.store.ListByStatus(ctx, bridge.StatusProcessing, scanBatch)
	if err != nil {
		return fmt.Errorf("failed to list processing transactions: %w", err)
	}

	for _, tx := range processing {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.stopCh:
			return nil
		default:
		}

		if err := e.reconcileOne(ctx, tx); err != nil {
			e.logger.Warn("Settlement poll failed",
				zap.String("bridge_id", tx.ID),
				zap.String("deposit_address", tx.DepositAddress),
				zap.Error(err))
		}
	}

	return nil
}

func (e *Engine) reconcileOne(ctx context.Context, tx *bridge.Transaction) error {
	e.pollCounts[tx.ID]++

	start := time.Now()
	status, err := e.settlement.GetExecutionStatus(ctx, tx.DepositAddress)
	metrics.SettlementPollDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExternalCallErrors.WithLabelValues("settlement").Inc()
		e.checkBudget(tx)
		return fmt.Errorf("get execution status: %w", err)
	}

	outcome := status.Outcome()
	switch outcome.Kind {
	case bridge.OutcomeFulfilled:
		updated, err := e.store.MarkSucceeded(ctx, tx.ID, outcome)
		if err != nil {
			return fmt.Errorf("mark succeeded: %w", err)
		}
		if updated {
			metrics.SettlementOutcomes.WithLabelValues("fulfilled").Inc()
			e.logger.Info("Bridge attempt fulfilled",
				zap.String("bridge_id", tx.ID),
				zap.String("deposit_address", tx.DepositAddress),
				zap.Strings("destination_tx_hashes", outcome.TxHashes))
		}
		e.forget(tx.ID)

	case bridge.OutcomeFailed:
		updated, err := e.store.MarkFailed(ctx, tx.ID, bridge.StatusProcessing, outcome.Reason)
		if err != nil {
			return fmt.Errorf("mark failed: %w", err)
		}
		if updated {
			metrics.SettlementOutcomes.WithLabelValues("failed").Inc()
			e.logger.Warn("Bridge attempt failed",
				zap.String("bridge_id", tx.ID),
				zap.String("deposit_address", tx.DepositAddress),
				zap.String("reason", outcome.Reason))
		}
		e.forget(tx.ID)

	case bridge.OutcomeRefunded:
		updated, err := e.store.MarkRefunded(ctx, tx.ID, outcome.Reason)
		if err != nil {
			return fmt.Errorf("mark refunded: %w", err)
		}
		if updated {
			metrics.SettlementOutcomes.WithLabelValues("refunded").Inc()
			e.logger.Info("Bridge attempt refunded",
				zap.String("bridge_id", tx.ID),
				zap.String("deposit_address", tx.DepositAddress))
		}
		e.forget(tx.ID)

	default:
		if !settlement.KnownStatus(status.RawStatus) {
			e.logger.Warn("Unknown settlement status, treating as pending",
				zap.String("bridge_id", tx.ID),
				zap.String("raw_status", status.RawStatus))
		}
		// Still in flight: persist any hashes the poll surfaced so a
		// restart does not lose them, then check the poll budget.
		if len(outcome.IntentHashes) > 0 || len(outcome.TxHashes) > 0 {
			if err := e.store.AppendSettlementHashes(ctx, tx.ID, outcome.IntentHashes, outcome.TxHashes); err != nil {
				e.logger.Warn("Failed to persist settlement hashes",
					zap.String("bridge_id", tx.ID),
					zap.Error(err))
			}
		}
		e.checkBudget(tx)
	}

	return nil
}

// checkBudget fires a one-time alert when a row has been polled more than
// the configured budget. The row is never failed for slowness: only the
// settlement network decides terminal outcomes.
func (e *Engine) checkBudget(tx *bridge.Transaction) {
	if e.pollCounts[tx.ID] < e.cfg.ReconcileBudget || e.alerted[tx.ID] {
		return
	}
	e.alerted[tx.ID] = true
	metrics.ReconcileBudgetExhausted.Inc()
	e.logger.Error("Reconcile budget exhausted, transaction needs attention",
		zap.String("bridge_id", tx.ID),
		zap.String("deposit_address", tx.DepositAddress),
		zap.Int("polls", e.pollCounts[tx.ID]),
		zap.Time("created_at", tx.CreatedAt))
}

func (e *Engine) forget(id string) {
	delete(e.pollCounts, id)
	delete(e.alerted, id)
}
