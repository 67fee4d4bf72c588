// Package solana observes the source chain. The orchestrator never signs
// or broadcasts transactions; it only watches deposit addresses and
// validates refund addresses.
package solana

import (
	"context"
	"fmt"
	"strings"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/shieldpay/solzec-bridge/pkg/config"
)

// Deposit is a confirmed source-chain transaction paying a deposit address.
type Deposit struct {
	Signature string
	Slot      uint64
	BlockTime *time.Time
}

// Client wraps the Solana JSON-RPC client.
type Client struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType
	sigLimit   int
	logger     *zap.Logger
}

// NewClient creates a Solana RPC client from configuration.
func NewClient(cfg *config.SolanaConfig, logger *zap.Logger) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("solana rpc_url is required")
	}

	sigLimit := cfg.SignatureLimit
	if sigLimit <= 0 {
		sigLimit = 10
	}

	return &Client{
		rpc:        rpc.New(cfg.RPCURL),
		commitment: commitmentFromConfig(cfg.Commitment),
		sigLimit:   sigLimit,
		logger:     logger,
	}, nil
}

func commitmentFromConfig(commitment string) rpc.CommitmentType {
	switch strings.ToLower(commitment) {
	case "finalized":
		return rpc.CommitmentFinalized
	case "confirmed":
		return rpc.CommitmentConfirmed
	case "processed":
		return rpc.CommitmentProcessed
	default:
		return rpc.CommitmentFinalized
	}
}

// ValidateAddress checks that addr is a well-formed Solana public key.
func (c *Client) ValidateAddress(addr string) error {
	if _, err := solanago.PublicKeyFromBase58(addr); err != nil {
		return fmt.Errorf("invalid solana address: %w", err)
	}
	return nil
}

// FindDeposit returns the oldest successful transaction paying into
// depositAddress at the configured commitment, or nil when none exists
// yet. Deposit addresses are one-time, so the first funding transaction is
// the deposit.
func (c *Client) FindDeposit(ctx context.Context, depositAddress string) (*Deposit, error) {
	account, err := solanago.PublicKeyFromBase58(depositAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid deposit address: %w", err)
	}

	limit := c.sigLimit
	sigs, err := c.rpc.GetSignaturesForAddressWithOpts(ctx, account, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: c.commitment,
	})
	if err != nil {
		return nil, fmt.Errorf("get signatures for %s: %w", depositAddress, err)
	}

	// Results are newest first; walk backwards for the earliest success.
	for i := len(sigs) - 1; i >= 0; i-- {
		sig := sigs[i]
		if sig == nil || sig.Err != nil {
			continue
		}

		deposit := &Deposit{
			Signature: sig.Signature.String(),
			Slot:      sig.Slot,
		}
		if sig.BlockTime != nil {
			bt := sig.BlockTime.Time()
			deposit.BlockTime = &bt
		}
		return deposit, nil
	}

	return nil, nil
}

// Healthy pings the RPC node. Used by readiness checks.
func (c *Client) Healthy(ctx context.Context) error {
	if _, err := c.rpc.GetHealth(ctx); err != nil {
		return fmt.Errorf("solana rpc unhealthy: %w", err)
	}
	return nil
}
