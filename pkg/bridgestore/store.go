package bridgestore

import (
	"context"
	"time"

	"github.com/shieldpay/solzec-bridge/pkg/bridge"
)

// Store defines the interface for bridge transaction persistence
type Store interface {
	Create(ctx context.Context, tx *bridge.Transaction) error
	GetByID(ctx context.Context, id string) (*bridge.Transaction, error)
	GetByDepositAddress(ctx context.Context, depositAddress string) (*bridge.Transaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*bridge.Transaction, error)
	ListByStatus(ctx context.Context, status bridge.Status, limit int) ([]*bridge.Transaction, error)
	ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*bridge.Transaction, error)
	List(ctx context.Context, status *bridge.Status, limit int) ([]*bridge.Transaction, error)
	CountByStatus(ctx context.Context, status bridge.Status) (int, error)
	MarkProcessing(ctx context.Context, id, sourceTxSignature string) (bool, error)
	MarkFailed(ctx context.Context, id string, from bridge.Status, reason string) (bool, error)
	MarkRefunded(ctx context.Context, id string, reason string) (bool, error)
	MarkSucceeded(ctx context.Context, id string, outcome bridge.Outcome) (bool, error)
	AppendSettlementHashes(ctx context.Context, id string, intentHashes, txHashes []string) error
}
