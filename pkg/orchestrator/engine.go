// Package orchestrator runs the background loops that move bridge rows
// through their lifecycle: the deposit watcher owns PENDING rows and the
// status reconciler owns PROCESSING rows. Each row has exactly one writer
// at a time, gated on the status the writer expects.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shieldpay/solzec-bridge/internal/metrics"
	"github.com/shieldpay/solzec-bridge/pkg/bridge"
	"github.com/shieldpay/solzec-bridge/pkg/config"
	"github.com/shieldpay/solzec-bridge/pkg/settlement"
	"github.com/shieldpay/solzec-bridge/pkg/solana"
)

// scanBatch bounds how many rows one tick processes.
const scanBatch = 100

// Ledger defines the store operations the orchestrator loops need
type Ledger interface {
	ListByStatus(ctx context.Context, status bridge.Status, limit int) ([]*bridge.Transaction, error)
	ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*bridge.Transaction, error)
	CountByStatus(ctx context.Context, status bridge.Status) (int, error)
	MarkProcessing(ctx context.Context, id, sourceTxSignature string) (bool, error)
	MarkFailed(ctx context.Context, id string, from bridge.Status, reason string) (bool, error)
	MarkRefunded(ctx context.Context, id string, reason string) (bool, error)
	MarkSucceeded(ctx context.Context, id string, outcome bridge.Outcome) (bool, error)
	AppendSettlementHashes(ctx context.Context, id string, intentHashes, txHashes []string) error
}

// SettlementClient defines the settlement network operations the loops need
type SettlementClient interface {
	GetExecutionStatus(ctx context.Context, depositAddress string) (*settlement.ExecutionStatus, error)
	SubmitDepositTx(ctx context.Context, depositAddress, txHash string) error
}

// SourceChainClient defines the source chain operations the loops need
type SourceChainClient interface {
	FindDeposit(ctx context.Context, depositAddress string) (*solana.Deposit, error)
}

// Engine runs the deposit watcher and the status reconciler
type Engine struct {
	cfg        *config.BridgeConfig
	store      Ledger
	settlement SettlementClient
	source     SourceChainClient
	logger     *zap.Logger

	// pollCounts tracks settlement polls per PROCESSING row; budget
	// exhaustion raises an alert without touching the row. Counts reset
	// on restart, which only delays the alert.
	pollCounts map[string]int
	alerted    map[string]bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewEngine creates a new orchestrator engine
func NewEngine(
	cfg *config.BridgeConfig,
	store Ledger,
	settlementClient SettlementClient,
	source SourceChainClient,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		cfg:        cfg,
		store:      store,
		settlement: settlementClient,
		source:     source,
		logger:     logger,
		pollCounts: make(map[string]int),
		alerted:    make(map[string]bool),
		stopCh:     make(chan struct{}),
	}
}

// Start starts the orchestrator loops
func (e *Engine) Start(ctx context.Context) {
	e.logger.Info("Starting orchestrator engine",
		zap.Duration("deposit_poll_interval", e.cfg.DepositPollInterval),
		zap.Duration("reconcile_interval", e.cfg.ReconcileInterval),
		zap.Int("reconcile_budget", e.cfg.ReconcileBudget))

	e.wg.Add(1)
	go e.watchLoop(ctx)

	e.wg.Add(1)
	go e.reconcileLoop(ctx)

	e.logger.Info("Orchestrator engine started")
}

// Stop stops the orchestrator loops and waits for them to drain
func (e *Engine) Stop() {
	e.logger.Info("Stopping orchestrator engine")
	close(e.stopCh)
	e.wg.Wait()
	e.logger.Info("Orchestrator engine stopped")
}

func (e *Engine) watchLoop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.DepositPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-ticker.C:
			if err := e.runDepositScan(ctx); err != nil {
				e.logger.Error("Deposit scan failed", zap.Error(err))
			}
		}
	}
}

func (e *Engine) reconcileLoop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-ticker.C:
			if err := e.runReconcile(ctx); err != nil {
				e.logger.Error("Reconcile pass failed", zap.Error(err))
			}
			e.updateGauges(ctx)
		}
	}
}

func (e *Engine) updateGauges(ctx context.Context) {
	for _, status := range []bridge.Status{bridge.StatusPending, bridge.StatusProcessing} {
		count, err := e.store.CountByStatus(ctx, status)
		if err != nil {
			e.logger.Warn("Failed to count transactions for gauge",
				zap.String("status", string(status)),
				zap.Error(err))
			continue
		}
		metrics.ActiveBridges.WithLabelValues(string(status)).Set(float64(count))
	}
}
