package settlement

import (
	"testing"

	"github.com/shieldpay/solzec-bridge/pkg/bridge"
)

func TestMapStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want bridge.OutcomeKind
	}{
		{"SUCCESS", bridge.OutcomeFulfilled},
		{"COMPLETED", bridge.OutcomeFulfilled},
		{"success", bridge.OutcomeFulfilled},
		{"FAILED", bridge.OutcomeFailed},
		{"REFUNDED", bridge.OutcomeRefunded},
		{"PENDING_DEPOSIT", bridge.OutcomePending},
		{"KNOWN_DEPOSIT_TX", bridge.OutcomePending},
		{"INCOMPLETE_DEPOSIT", bridge.OutcomePending},
		{"PENDING", bridge.OutcomePending},
		{"PROCESSING", bridge.OutcomePending},
		{" processing ", bridge.OutcomePending},
		// Unknown strings must never terminate a row.
		{"SOMETHING_NEW", bridge.OutcomePending},
		{"", bridge.OutcomePending},
	}

	for _, c := range cases {
		if got := MapStatus(c.raw); got != c.want {
			t.Errorf("MapStatus(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestKnownStatus(t *testing.T) {
	if !KnownStatus("REFUNDED") {
		t.Error("REFUNDED should be known")
	}
	if KnownStatus("SOMETHING_NEW") {
		t.Error("SOMETHING_NEW should not be known")
	}
}

func TestExecutionStatusOutcome_Fulfilled(t *testing.T) {
	amount := uint64(495_000_000)
	es := &ExecutionStatus{
		RawStatus:           "SUCCESS",
		DestinationTxHashes: []string{"zec-tx-1"},
		IntentHashes:        []string{"intent-1"},
		AmountOutUnits:      &amount,
	}

	out := es.Outcome()
	if out.Kind != bridge.OutcomeFulfilled {
		t.Fatalf("expected fulfilled, got %v", out.Kind)
	}
	if out.AmountOutUnits == nil || *out.AmountOutUnits != amount {
		t.Errorf("amount out not carried through: %v", out.AmountOutUnits)
	}
	if len(out.TxHashes) != 1 || out.TxHashes[0] != "zec-tx-1" {
		t.Errorf("unexpected tx hashes: %v", out.TxHashes)
	}
	if len(out.IntentHashes) != 1 || out.IntentHashes[0] != "intent-1" {
		t.Errorf("unexpected intent hashes: %v", out.IntentHashes)
	}
}

func TestExecutionStatusOutcome_Failed(t *testing.T) {
	es := &ExecutionStatus{RawStatus: "FAILED"}
	out := es.Outcome()
	if out.Kind != bridge.OutcomeFailed {
		t.Fatalf("expected failed, got %v", out.Kind)
	}
	if out.Reason == "" {
		t.Error("expected a failure reason")
	}
	if out.AmountOutUnits != nil {
		t.Error("failed outcome must not carry an amount out")
	}
}

func TestExecutionStatusOutcome_Refunded(t *testing.T) {
	amount := uint64(1)
	es := &ExecutionStatus{RawStatus: "REFUNDED", AmountOutUnits: &amount}
	out := es.Outcome()
	if out.Kind != bridge.OutcomeRefunded {
		t.Fatalf("expected refunded, got %v", out.Kind)
	}
	// Refunds never produce destination funds.
	if out.AmountOutUnits != nil {
		t.Error("refunded outcome must not carry an amount out")
	}
}
