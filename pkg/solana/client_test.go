package solana

import (
	"testing"

	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/shieldpay/solzec-bridge/pkg/config"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(&config.SolanaConfig{
		RPCURL:     "http://localhost:8899",
		Commitment: "finalized",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}
	return c
}

func TestNewClient_RequiresRPCURL(t *testing.T) {
	_, err := NewClient(&config.SolanaConfig{}, zap.NewNop())
	if err == nil {
		t.Fatal("expected an error for missing rpc_url")
	}
}

func TestValidateAddress(t *testing.T) {
	c := newTestClient(t)

	if err := c.ValidateAddress("9vXr3CJrMDk8dVBXFuHmbbdkXFVfE96mFrtM3TpTqE5C"); err != nil {
		t.Fatalf("valid address rejected: %v", err)
	}

	for _, addr := range []string{
		"",
		"not-base58-0OIl",
		"abc",
		"t1Hsc1LR8yKnbbe3twRp88p6vFfC5t7DLbs", // zcash, not solana
	} {
		if err := c.ValidateAddress(addr); err == nil {
			t.Errorf("expected %q to be rejected", addr)
		}
	}
}

func TestCommitmentFromConfig(t *testing.T) {
	cases := map[string]rpc.CommitmentType{
		"finalized": rpc.CommitmentFinalized,
		"confirmed": rpc.CommitmentConfirmed,
		"processed": rpc.CommitmentProcessed,
		"Confirmed": rpc.CommitmentConfirmed,
		"":          rpc.CommitmentFinalized,
		"bogus":     rpc.CommitmentFinalized,
	}
	for in, want := range cases {
		if got := commitmentFromConfig(in); got != want {
			t.Errorf("commitmentFromConfig(%q) = %s, want %s", in, got, want)
		}
	}
}
