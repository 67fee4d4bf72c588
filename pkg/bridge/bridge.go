// Package bridge defines the domain model for SOL to ZEC bridge attempts:
// the transaction record, its status machine, and the closed set of
// settlement outcomes applied to it.
package bridge

import "time"

// Status is the lifecycle state of a bridge transaction.
type Status string

const (
	// StatusPending means the row exists and we are waiting for the
	// source-chain deposit to the assigned deposit address.
	StatusPending Status = "PENDING"
	// StatusProcessing means the deposit was observed and the settlement
	// network is executing the swap.
	StatusProcessing Status = "PROCESSING"
	// StatusSuccess means the destination payout is confirmed.
	StatusSuccess Status = "SUCCESS"
	// StatusFailed means the swap failed without a refund path.
	StatusFailed Status = "FAILED"
	// StatusRefunded means the settlement network returned the deposit
	// to the refund address.
	StatusRefunded Status = "REFUNDED"
)

// IsTerminal reports whether the status permits no further transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusSuccess, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// CanTransition reports whether the status machine allows from -> to.
// PENDING -> FAILED is allowed directly for intent expiry before any
// deposit is seen; terminal states never transition.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusFailed
	case StatusProcessing:
		return to.IsTerminal()
	}
	return false
}

// Transaction is one bridge attempt. A row is created PENDING by Execute,
// mutated only by the deposit watcher (while PENDING) and the status
// reconciler (while PROCESSING), and kept forever as the audit record.
type Transaction struct {
	ID                       string
	UserID                   string
	SourceTxSignature        *string
	DepositAddress           string
	AmountSourceUnits        uint64
	ExpectedDestinationUnits *uint64
	Status                   Status
	ErrorMessage             *string
	SettlementIntentHashes   []string
	SettlementTxHashes       []string
	DestinationTxHash        *string
	ActualDestinationUnits   *uint64
	RefundAddress            string
	RecipientAddress         string
	IdempotencyKey           *string
	CreatedAt                time.Time
	UpdatedAt                time.Time
	CompletedAt              *time.Time
}

// OutcomeKind is the closed set of settlement results. Free-form status
// strings from the settlement network are mapped into this set at the
// client boundary; the raw string survives only in logs and ErrorMessage.
type OutcomeKind int

const (
	// OutcomePending means the swap has not reached a terminal state.
	OutcomePending OutcomeKind = iota
	// OutcomeFulfilled means the destination payout happened.
	OutcomeFulfilled
	// OutcomeFailed means the swap failed with no refund.
	OutcomeFailed
	// OutcomeRefunded means the deposit was returned to the refund address.
	OutcomeRefunded
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeFulfilled:
		return "fulfilled"
	case OutcomeFailed:
		return "failed"
	case OutcomeRefunded:
		return "refunded"
	default:
		return "pending"
	}
}

// Outcome is a settlement poll result after boundary mapping.
type Outcome struct {
	Kind OutcomeKind

	// TxHashes and IntentHashes are appended to the row's sequences in
	// order, deduplicated against entries already present.
	TxHashes     []string
	IntentHashes []string

	// AmountOutUnits carries the actual destination amount in zatoshis
	// when the settlement network reports it (Fulfilled only).
	AmountOutUnits *uint64

	// Reason is the settlement network's failure description (Failed only).
	Reason string
}

// AppendUnique appends items to seq preserving order, skipping entries
// already present. The sequences on a Transaction are append-only, so this
// is the only merge operation the store performs on them.
func AppendUnique(seq []string, items ...string) []string {
	seen := make(map[string]struct{}, len(seq))
	for _, s := range seq {
		seen[s] = struct{}{}
	}
	for _, item := range items {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seq = append(seq, item)
		seen[item] = struct{}{}
	}
	return seq
}
