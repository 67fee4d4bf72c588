package bridgestore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/shieldpay/solzec-bridge/pkg/bridge"
)

// TransactionDao is a data access object that maps directly to the
// 'bridge_transactions' table in PostgreSQL.
type TransactionDao struct {
	bun.BaseModel `bun:"table:bridge_transactions,alias:bt"`

	ID                       string     `bun:"id,pk,type:uuid"`
	UserID                   string     `bun:"user_id,notnull,type:varchar(255)"`
	SourceTxSignature        *string    `bun:"source_tx_signature,type:varchar(128)"`
	DepositAddress           string     `bun:"deposit_address,unique,notnull,type:varchar(128)"`
	AmountSourceUnits        int64      `bun:"amount_source_units,notnull"`
	ExpectedDestinationUnits *int64     `bun:"expected_destination_units"`
	Status                   string     `bun:"status,notnull,type:varchar(16)"`
	ErrorMessage             *string    `bun:"error_message,type:text"`
	SettlementIntentHashes   []string   `bun:"settlement_intent_hashes,array"`
	SettlementTxHashes       []string   `bun:"settlement_tx_hashes,array"`
	DestinationTxHash        *string    `bun:"destination_tx_hash,type:varchar(128)"`
	ActualDestinationUnits   *int64     `bun:"actual_destination_units"`
	RefundAddress            string     `bun:"refund_address,notnull,type:varchar(128)"`
	RecipientAddress         string     `bun:"recipient_address,notnull,type:varchar(512)"`
	IdempotencyKey           *string    `bun:"idempotency_key,type:varchar(128)"`
	CreatedAt                time.Time  `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt                time.Time  `bun:"updated_at,nullzero,default:current_timestamp"`
	CompletedAt              *time.Time `bun:"completed_at"`
}

// toTransactionDao converts a bridge.Transaction to TransactionDao.
func toTransactionDao(tx *bridge.Transaction) *TransactionDao {
	dao := &TransactionDao{
		ID:                     tx.ID,
		UserID:                 tx.UserID,
		SourceTxSignature:      tx.SourceTxSignature,
		DepositAddress:         tx.DepositAddress,
		AmountSourceUnits:      int64(tx.AmountSourceUnits),
		Status:                 string(tx.Status),
		ErrorMessage:           tx.ErrorMessage,
		SettlementIntentHashes: tx.SettlementIntentHashes,
		SettlementTxHashes:     tx.SettlementTxHashes,
		DestinationTxHash:      tx.DestinationTxHash,
		RefundAddress:          tx.RefundAddress,
		RecipientAddress:       tx.RecipientAddress,
		IdempotencyKey:         tx.IdempotencyKey,
		CreatedAt:              tx.CreatedAt,
		UpdatedAt:              tx.UpdatedAt,
		CompletedAt:            tx.CompletedAt,
	}

	if tx.ExpectedDestinationUnits != nil {
		v := int64(*tx.ExpectedDestinationUnits)
		dao.ExpectedDestinationUnits = &v
	}
	if tx.ActualDestinationUnits != nil {
		v := int64(*tx.ActualDestinationUnits)
		dao.ActualDestinationUnits = &v
	}

	return dao
}

// toTransaction converts a TransactionDao to bridge.Transaction.
func toTransaction(dao *TransactionDao) *bridge.Transaction {
	tx := &bridge.Transaction{
		ID:                     dao.ID,
		UserID:                 dao.UserID,
		SourceTxSignature:      dao.SourceTxSignature,
		DepositAddress:         dao.DepositAddress,
		AmountSourceUnits:      uint64(dao.AmountSourceUnits),
		Status:                 bridge.Status(dao.Status),
		ErrorMessage:           dao.ErrorMessage,
		SettlementIntentHashes: dao.SettlementIntentHashes,
		SettlementTxHashes:     dao.SettlementTxHashes,
		DestinationTxHash:      dao.DestinationTxHash,
		RefundAddress:          dao.RefundAddress,
		RecipientAddress:       dao.RecipientAddress,
		IdempotencyKey:         dao.IdempotencyKey,
		CreatedAt:              dao.CreatedAt,
		UpdatedAt:              dao.UpdatedAt,
		CompletedAt:            dao.CompletedAt,
	}

	if dao.ExpectedDestinationUnits != nil {
		v := uint64(*dao.ExpectedDestinationUnits)
		tx.ExpectedDestinationUnits = &v
	}
	if dao.ActualDestinationUnits != nil {
		v := uint64(*dao.ActualDestinationUnits)
		tx.ActualDestinationUnits = &v
	}

	return tx
}
