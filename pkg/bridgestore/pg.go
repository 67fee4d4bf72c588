// Package bridgestore implements durable persistence for bridge
// transactions on PostgreSQL. All status changes go through
// status-gated updates so that concurrent workers cannot move a row
// backwards or overwrite a terminal outcome.
package bridgestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/shieldpay/solzec-bridge/pkg/bridge"
)

// ErrNotFound is returned when a transaction lookup finds no matching record.
var ErrNotFound = errors.New("bridge transaction not found")

// ErrDuplicateDepositAddress is returned when an insert collides with an
// existing row on the deposit_address unique index.
var ErrDuplicateDepositAddress = errors.New("deposit address already in use")

// ErrDuplicateIdempotencyKey is returned when an insert collides with an
// existing row on the idempotency_key unique index.
var ErrDuplicateIdempotencyKey = errors.New("idempotency key already in use")

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the bridge ledger
func NewStore(db *bun.DB) *pgStore {
	return &pgStore{db: db}
}

// violatedConstraint returns the constraint name behind a postgres unique
// index violation, or ok=false for any other error.
func violatedConstraint(err error) (string, bool) {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
		return pgErr.Field('n'), true
	}
	return "", false
}

func (s *pgStore) Create(ctx context.Context, tx *bridge.Transaction) error {
	dao := toTransactionDao(tx)

	_, err := s.db.NewInsert().
		Model(dao).
		Exec(ctx)
	if err != nil {
		if constraint, ok := violatedConstraint(err); ok {
			if strings.Contains(constraint, "idempotency_key") {
				return ErrDuplicateIdempotencyKey
			}
			return ErrDuplicateDepositAddress
		}
		return fmt.Errorf("failed to create bridge transaction: %w", err)
	}

	return nil
}

func (s *pgStore) GetByID(ctx context.Context, id string) (*bridge.Transaction, error) {
	dao := new(TransactionDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bridge transaction: %w", err)
	}
	return toTransaction(dao), nil
}

func (s *pgStore) GetByDepositAddress(ctx context.Context, depositAddress string) (*bridge.Transaction, error) {
	dao := new(TransactionDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("deposit_address = ?", depositAddress).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bridge transaction by deposit address: %w", err)
	}
	return toTransaction(dao), nil
}

func (s *pgStore) GetByIdempotencyKey(ctx context.Context, key string) (*bridge.Transaction, error) {
	dao := new(TransactionDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("idempotency_key = ?", key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bridge transaction by idempotency key: %w", err)
	}
	return toTransaction(dao), nil
}

// ListByStatus returns up to limit transactions in the given status,
// oldest first. Workers iterate the result as their work queue.
func (s *pgStore) ListByStatus(ctx context.Context, status bridge.Status, limit int) ([]*bridge.Transaction, error) {
	var daos []TransactionDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("status = ?", string(status)).
		Order("created_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bridge transactions: %w", err)
	}
	txs := make([]*bridge.Transaction, len(daos))
	for i := range daos {
		txs[i] = toTransaction(&daos[i])
	}
	return txs, nil
}

// List returns transactions newest first, optionally filtered by status.
func (s *pgStore) List(ctx context.Context, status *bridge.Status, limit int) ([]*bridge.Transaction, error) {
	var daos []TransactionDao
	query := s.db.NewSelect().
		Model(&daos).
		Order("created_at DESC").
		Limit(limit)
	if status != nil {
		query = query.Where("status = ?", string(*status))
	}
	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list bridge transactions: %w", err)
	}
	txs := make([]*bridge.Transaction, len(daos))
	for i := range daos {
		txs[i] = toTransaction(&daos[i])
	}
	return txs, nil
}

func (s *pgStore) CountByStatus(ctx context.Context, status bridge.Status) (int, error) {
	count, err := s.db.NewSelect().
		Model((*TransactionDao)(nil)).
		Where("status = ?", string(status)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count bridge transactions: %w", err)
	}
	return count, nil
}

// MarkProcessing records the observed source transaction signature and moves
// the row from PENDING to PROCESSING. It reports false when the row was not
// in PENDING anymore, which callers treat as already claimed.
func (s *pgStore) MarkProcessing(ctx context.Context, id, sourceTxSignature string) (bool, error) {
	res, err := s.db.NewUpdate().
		Model((*TransactionDao)(nil)).
		Set("status = ?", string(bridge.StatusProcessing)).
		Set("source_tx_signature = ?", sourceTxSignature).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Where("status = ?", string(bridge.StatusPending)).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to mark bridge transaction processing: %w", err)
	}
	return rowsUpdated(res)
}

// MarkFailed moves the row from the expected status to FAILED and stamps
// completed_at. Expired PENDING rows and failed PROCESSING rows both land
// here, gated on the status the caller owns.
func (s *pgStore) MarkFailed(ctx context.Context, id string, from bridge.Status, reason string) (bool, error) {
	res, err := s.db.NewUpdate().
		Model((*TransactionDao)(nil)).
		Set("status = ?", string(bridge.StatusFailed)).
		Set("error_message = ?", reason).
		Set("updated_at = NOW()").
		Set("completed_at = NOW()").
		Where("id = ?", id).
		Where("status = ?", string(from)).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to mark bridge transaction failed: %w", err)
	}
	return rowsUpdated(res)
}

// MarkRefunded moves the row from PROCESSING to REFUNDED and stamps
// completed_at.
func (s *pgStore) MarkRefunded(ctx context.Context, id string, reason string) (bool, error) {
	res, err := s.db.NewUpdate().
		Model((*TransactionDao)(nil)).
		Set("status = ?", string(bridge.StatusRefunded)).
		Set("error_message = ?", reason).
		Set("updated_at = NOW()").
		Set("completed_at = NOW()").
		Where("id = ?", id).
		Where("status = ?", string(bridge.StatusProcessing)).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to mark bridge transaction refunded: %w", err)
	}
	return rowsUpdated(res)
}

// MarkSucceeded moves the row from PROCESSING to SUCCESS, recording the
// destination transaction hash, the settled amount, and the hash sequences
// reported by the settlement network. Hash sequences are merged append-only:
// hashes already on the row stay in place and new ones are appended in
// observation order. The user-facing destination hash is the first
// transaction of the merged sequence, the one that paid the recipient.
func (s *pgStore) MarkSucceeded(ctx context.Context, id string, outcome bridge.Outcome) (bool, error) {
	var updated bool
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		dao := new(TransactionDao)
		err := tx.NewSelect().
			Model(dao).
			Where("id = ?", id).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load bridge transaction: %w", err)
		}
		if dao.Status != string(bridge.StatusProcessing) {
			return nil
		}

		intentHashes := bridge.AppendUnique(dao.SettlementIntentHashes, outcome.IntentHashes...)
		txHashes := bridge.AppendUnique(dao.SettlementTxHashes, outcome.TxHashes...)

		q := tx.NewUpdate().
			Model((*TransactionDao)(nil)).
			Set("status = ?", string(bridge.StatusSuccess)).
			Set("settlement_intent_hashes = ?", pgdialect.Array(intentHashes)).
			Set("settlement_tx_hashes = ?", pgdialect.Array(txHashes)).
			Set("updated_at = NOW()").
			Set("completed_at = NOW()").
			Where("id = ?", id).
			Where("status = ?", string(bridge.StatusProcessing))

		if len(txHashes) > 0 {
			q = q.Set("destination_tx_hash = ?", txHashes[0])
		}
		if outcome.AmountOutUnits != nil {
			q = q.Set("actual_destination_units = ?", int64(*outcome.AmountOutUnits))
		}

		res, err := q.Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to mark bridge transaction succeeded: %w", err)
		}
		updated, err = rowsUpdated(res)
		return err
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

// AppendSettlementHashes merges newly observed hashes into a PROCESSING row
// without changing its status. Used by the reconciler when a poll reports
// progress before the outcome is terminal.
func (s *pgStore) AppendSettlementHashes(ctx context.Context, id string, intentHashes, txHashes []string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		dao := new(TransactionDao)
		err := tx.NewSelect().
			Model(dao).
			Where("id = ?", id).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load bridge transaction: %w", err)
		}
		if dao.Status != string(bridge.StatusProcessing) {
			return nil
		}

		merged := bridge.AppendUnique(dao.SettlementIntentHashes, intentHashes...)
		mergedTx := bridge.AppendUnique(dao.SettlementTxHashes, txHashes...)
		if len(merged) == len(dao.SettlementIntentHashes) && len(mergedTx) == len(dao.SettlementTxHashes) {
			return nil
		}

		_, err = tx.NewUpdate().
			Model((*TransactionDao)(nil)).
			Set("settlement_intent_hashes = ?", pgdialect.Array(merged)).
			Set("settlement_tx_hashes = ?", pgdialect.Array(mergedTx)).
			Set("updated_at = NOW()").
			Where("id = ?", id).
			Where("status = ?", string(bridge.StatusProcessing)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to append settlement hashes: %w", err)
		}
		return nil
	})
}

// ListExpiredPending returns PENDING rows created before the cutoff,
// oldest first.
func (s *pgStore) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*bridge.Transaction, error) {
	var daos []TransactionDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("status = ?", string(bridge.StatusPending)).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired bridge transactions: %w", err)
	}
	txs := make([]*bridge.Transaction, len(daos))
	for i := range daos {
		txs[i] = toTransaction(&daos[i])
	}
	return txs, nil
}

func rowsUpdated(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}
