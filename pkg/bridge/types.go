package bridge

import "time"

// QuoteRequest asks for an indicative price without creating a row.
type QuoteRequest struct {
	AmountInUnits    uint64 `json:"amount_in_units" validate:"required,gt=0"`
	RecipientAddress string `json:"recipient_address" validate:"required"`
}

// QuoteResponse carries the indicative quote. The deposit address is
// provisional: Execute requests a firm quote and may be assigned a
// different address, so callers must never fund the quoted address.
type QuoteResponse struct {
	AmountOutEstimateUnits uint64 `json:"amount_out_estimate_units"`
	DepositAddress         string `json:"deposit_address"`
	TimeEstimateMinutes    uint32 `json:"time_estimate_minutes"`
}

// ExecuteRequest creates a new bridge attempt. RefundAddress is the
// source-chain address that receives funds back if the swap fails.
// IdempotencyKey lets callers retry safely after a LedgerWriteFailed
// without creating a second remote intent.
type ExecuteRequest struct {
	UserID           string `json:"user_id" validate:"required"`
	AmountInUnits    uint64 `json:"amount_in_units" validate:"required,gt=0"`
	RecipientAddress string `json:"recipient_address" validate:"required"`
	RefundAddress    string `json:"refund_address" validate:"required"`
	IdempotencyKey   string `json:"idempotency_key,omitempty"`
}

// ExecuteResponse hands the caller the address to fund. The orchestrator
// moves no funds itself.
type ExecuteResponse struct {
	BridgeID                 string  `json:"bridge_id"`
	DepositAddress           string  `json:"deposit_address"`
	ExpectedDestinationUnits *uint64 `json:"expected_destination_units,omitempty"`
}

// StatusResponse is the read-only view served to any poller. DepositTimeout
// is a hint that no deposit has been seen within the detection window; the
// row stays PENDING and detection continues server-side.
type StatusResponse struct {
	BridgeID               string     `json:"bridge_id"`
	Status                 Status     `json:"status"`
	SourceTxSignature      *string    `json:"source_tx_signature,omitempty"`
	DestinationTxHash      *string    `json:"destination_tx_hash,omitempty"`
	ActualDestinationUnits *uint64    `json:"actual_destination_units,omitempty"`
	ErrorMessage           *string    `json:"error_message,omitempty"`
	DepositTimeout         bool       `json:"deposit_timeout,omitempty"`
	UpdatedAt              time.Time  `json:"updated_at"`
	CompletedAt            *time.Time `json:"completed_at,omitempty"`
}
