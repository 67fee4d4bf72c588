package orchestrator

// TODO: remove the mock impl and use mockery to generate mock

import (
	"context"
	"time"

	"github.com/shieldpay/solzec-bridge/pkg/bridge"
	"github.com/shieldpay/solzec-bridge/pkg/settlement"
	"github.com/shieldpay/solzec-bridge/pkg/solana"
)

// MockLedger is a mock implementation of Ledger
type MockLedger struct {
	ListByStatusFunc           func(ctx context.Context, status bridge.Status, limit int) ([]*bridge.Transaction, error)
	ListExpiredPendingFunc     func(ctx context.Context, cutoff time.Time, limit int) ([]*bridge.Transaction, error)
	CountByStatusFunc          func(ctx context.Context, status bridge.Status) (int, error)
	MarkProcessingFunc         func(ctx context.Context, id, sourceTxSignature string) (bool, error)
	MarkFailedFunc             func(ctx context.Context, id string, from bridge.Status, reason string) (bool, error)
	MarkRefundedFunc           func(ctx context.Context, id string, reason string) (bool, error)
	MarkSucceededFunc          func(ctx context.Context, id string, outcome bridge.Outcome) (bool, error)
	AppendSettlementHashesFunc func(ctx context.Context, id string, intentHashes, txHashes []string) error
}

func (m *MockLedger) ListByStatus(ctx context.Context, status bridge.Status, limit int) ([]*bridge.Transaction, error) {
	if m.ListByStatusFunc != nil {
		return m.ListByStatusFunc(ctx, status, limit)
	}
	return nil, nil
}

func (m *MockLedger) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*bridge.Transaction, error) {
	if m.ListExpiredPendingFunc != nil {
		return m.ListExpiredPendingFunc(ctx, cutoff, limit)
	}
	return nil, nil
}

func (m *MockLedger) CountByStatus(ctx context.Context, status bridge.Status) (int, error) {
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ctx, status)
	}
	return 0, nil
}

func (m *MockLedger) MarkProcessing(ctx context.Context, id, sourceTxSignature string) (bool, error) {
	if m.MarkProcessingFunc != nil {
		return m.MarkProcessingFunc(ctx, id, sourceTxSignature)
	}
	return true, nil
}

func (m *MockLedger) MarkFailed(ctx context.Context, id string, from bridge.Status, reason string) (bool, error) {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, id, from, reason)
	}
	return true, nil
}

func (m *MockLedger) MarkRefunded(ctx context.Context, id string, reason string) (bool, error) {
	if m.MarkRefundedFunc != nil {
		return m.MarkRefundedFunc(ctx, id, reason)
	}
	return true, nil
}

func (m *MockLedger) MarkSucceeded(ctx context.Context, id string, outcome bridge.Outcome) (bool, error) {
	if m.MarkSucceededFunc != nil {
		return m.MarkSucceededFunc(ctx, id, outcome)
	}
	return true, nil
}

func (m *MockLedger) AppendSettlementHashes(ctx context.Context, id string, intentHashes, txHashes []string) error {
	if m.AppendSettlementHashesFunc != nil {
		return m.AppendSettlementHashesFunc(ctx, id, intentHashes, txHashes)
	}
	return nil
}

// MockSettlementClient is a mock implementation of SettlementClient
type MockSettlementClient struct {
	GetExecutionStatusFunc func(ctx context.Context, depositAddress string) (*settlement.ExecutionStatus, error)
	SubmitDepositTxFunc    func(ctx context.Context, depositAddress, txHash string) error
}

func (m *MockSettlementClient) GetExecutionStatus(ctx context.Context, depositAddress string) (*settlement.ExecutionStatus, error) {
	if m.GetExecutionStatusFunc != nil {
		return m.GetExecutionStatusFunc(ctx, depositAddress)
	}
	return &settlement.ExecutionStatus{RawStatus: "PENDING_DEPOSIT"}, nil
}

func (m *MockSettlementClient) SubmitDepositTx(ctx context.Context, depositAddress, txHash string) error {
	if m.SubmitDepositTxFunc != nil {
		return m.SubmitDepositTxFunc(ctx, depositAddress, txHash)
	}
	return nil
}

// MockSourceChain is a mock implementation of SourceChainClient
type MockSourceChain struct {
	FindDepositFunc func(ctx context.Context, depositAddress string) (*solana.Deposit, error)
}

func (m *MockSourceChain) FindDeposit(ctx context.Context, depositAddress string) (*solana.Deposit, error) {
	if m.FindDepositFunc != nil {
		return m.FindDepositFunc(ctx, depositAddress)
	}
	return nil, nil
}
