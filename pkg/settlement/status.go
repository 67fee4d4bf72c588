package settlement

import (
	"strings"

	"github.com/shieldpay/solzec-bridge/pkg/bridge"
)

// MapStatus folds 1Click's status strings into the closed outcome set.
// Anything unrecognized is treated as still pending so a new status string
// rolled out by the settlement network can never terminate a row by
// accident; the raw value is preserved for logging by the caller.
func MapStatus(raw string) bridge.OutcomeKind {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SUCCESS", "COMPLETED":
		return bridge.OutcomeFulfilled
	case "FAILED":
		return bridge.OutcomeFailed
	case "REFUNDED":
		return bridge.OutcomeRefunded
	case "PENDING_DEPOSIT", "KNOWN_DEPOSIT_TX", "INCOMPLETE_DEPOSIT", "PENDING", "PROCESSING":
		return bridge.OutcomePending
	default:
		return bridge.OutcomePending
	}
}

// KnownStatus reports whether raw is one of the documented 1Click status
// strings. Used to log unknown values at a higher severity.
func KnownStatus(raw string) bool {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SUCCESS", "COMPLETED", "FAILED", "REFUNDED",
		"PENDING_DEPOSIT", "KNOWN_DEPOSIT_TX", "INCOMPLETE_DEPOSIT", "PENDING", "PROCESSING":
		return true
	}
	return false
}

// Outcome maps a poll result into the tagged outcome applied to the ledger.
func (es *ExecutionStatus) Outcome() bridge.Outcome {
	kind := MapStatus(es.RawStatus)

	out := bridge.Outcome{
		Kind:         kind,
		TxHashes:     es.DestinationTxHashes,
		IntentHashes: es.IntentHashes,
	}

	switch kind {
	case bridge.OutcomeFulfilled:
		out.AmountOutUnits = es.AmountOutUnits
	case bridge.OutcomeFailed:
		out.Reason = "settlement network reported " + es.RawStatus
	}
	return out
}
