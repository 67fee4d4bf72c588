package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/shieldpay/solzec-bridge/pkg/app/errors"
	"github.com/shieldpay/solzec-bridge/pkg/bridge"
	"github.com/shieldpay/solzec-bridge/pkg/bridgestore"
	"github.com/shieldpay/solzec-bridge/pkg/settlement"
)

const (
	testRecipient = "t1Hsc1LR8yKnbbe3twRp88p6vFfC5t7DLbs"
	testRefund    = "9vXr3CJrMDk8dVBXFuHmbbdkXFVfE96mFrtM3TpTqE5C"
)

func newTestService(store *MockStore, stl *MockSettlement, chain *MockSourceChain, opts Options) Service {
	if store == nil {
		store = &MockStore{}
	}
	if stl == nil {
		stl = &MockSettlement{}
	}
	if chain == nil {
		chain = &MockSourceChain{}
	}
	return NewService(store, stl, chain, opts, zap.NewNop())
}

func TestBridgeService_GetQuote(t *testing.T) {
	ctx := context.Background()

	stl := &MockSettlement{
		RequestQuoteFunc: func(ctx context.Context, p settlement.QuoteParams) (*settlement.Quote, error) {
			if !p.Dry {
				t.Fatalf("quote requests must be dry")
			}
			if p.AmountInUnits != 5_000_000_000 {
				t.Fatalf("unexpected amount: %d", p.AmountInUnits)
			}
			return &settlement.Quote{
				DepositAddress: "provisional-addr",
				AmountOutUnits: 495_000_000,
				TimeEstimate:   10 * time.Minute,
			}, nil
		},
	}
	svc := newTestService(nil, stl, nil, Options{})

	resp, err := svc.GetQuote(ctx, &bridge.QuoteRequest{
		AmountInUnits:    5_000_000_000,
		RecipientAddress: testRecipient,
	})
	if err != nil {
		t.Fatalf("GetQuote() failed: %v", err)
	}
	if resp.AmountOutEstimateUnits != 495_000_000 {
		t.Fatalf("unexpected estimate: %d", resp.AmountOutEstimateUnits)
	}
	if resp.TimeEstimateMinutes != 10 {
		t.Fatalf("unexpected time estimate: %d", resp.TimeEstimateMinutes)
	}
}

func TestBridgeService_GetQuote_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil, nil, nil, Options{})

	_, err := svc.GetQuote(ctx, &bridge.QuoteRequest{AmountInUnits: 0, RecipientAddress: testRecipient})
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected CategoryDataError for zero amount, got %v", err)
	}

	_, err = svc.GetQuote(ctx, &bridge.QuoteRequest{AmountInUnits: 1, RecipientAddress: "not-a-zec-address"})
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected CategoryDataError for bad recipient, got %v", err)
	}
	if !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("expected ErrInvalidRecipient, got %v", err)
	}
}

func TestBridgeService_GetQuote_DependencyFailure(t *testing.T) {
	ctx := context.Background()
	stl := &MockSettlement{
		RequestQuoteFunc: func(ctx context.Context, p settlement.QuoteParams) (*settlement.Quote, error) {
			return nil, errors.New("get quote: status 503")
		},
	}
	svc := newTestService(nil, stl, nil, Options{})

	_, err := svc.GetQuote(ctx, &bridge.QuoteRequest{AmountInUnits: 1, RecipientAddress: testRecipient})
	if !apperrors.Is(err, apperrors.CategoryDependencyFailure) {
		t.Fatalf("expected CategoryDependencyFailure, got %v", err)
	}
}

func TestBridgeService_Execute_CreatesPendingRow(t *testing.T) {
	ctx := context.Background()

	var created *bridge.Transaction
	store := &MockStore{
		CreateFunc: func(ctx context.Context, tx *bridge.Transaction) error {
			created = tx
			return nil
		},
	}
	stl := &MockSettlement{
		RequestQuoteFunc: func(ctx context.Context, p settlement.QuoteParams) (*settlement.Quote, error) {
			if p.Dry {
				t.Fatalf("execute must request a firm quote")
			}
			if p.RefundAddress != testRefund {
				t.Fatalf("unexpected refund address: %s", p.RefundAddress)
			}
			return &settlement.Quote{
				DepositAddress: "firm-addr",
				AmountOutUnits: 494_000_000,
			}, nil
		},
	}
	svc := newTestService(store, stl, nil, Options{})

	resp, err := svc.Execute(ctx, &bridge.ExecuteRequest{
		UserID:           "user-1",
		AmountInUnits:    5_000_000_000,
		RecipientAddress: testRecipient,
		RefundAddress:    testRefund,
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if created == nil {
		t.Fatal("expected a row to be created")
	}
	if created.Status != bridge.StatusPending {
		t.Fatalf("new rows must be PENDING, got %s", created.Status)
	}
	if created.DepositAddress != "firm-addr" {
		t.Fatalf("unexpected deposit address: %s", created.DepositAddress)
	}
	if created.ExpectedDestinationUnits == nil || *created.ExpectedDestinationUnits != 494_000_000 {
		t.Fatalf("unexpected expected destination units: %v", created.ExpectedDestinationUnits)
	}
	if created.IdempotencyKey != nil {
		t.Fatalf("idempotency key should be absent: %v", *created.IdempotencyKey)
	}
	if resp.BridgeID != created.ID || resp.DepositAddress != "firm-addr" {
		t.Fatalf("response does not match created row: %+v", resp)
	}
}

func TestBridgeService_Execute_IdempotencyKeyReplays(t *testing.T) {
	ctx := context.Background()

	expected := uint64(100)
	existing := &bridge.Transaction{
		ID:                       "existing-id",
		DepositAddress:           "existing-addr",
		AmountSourceUnits:        1,
		RecipientAddress:         testRecipient,
		RefundAddress:            testRefund,
		ExpectedDestinationUnits: &expected,
		Status:                   bridge.StatusPending,
	}
	store := &MockStore{
		GetByIdempotencyKeyFunc: func(ctx context.Context, key string) (*bridge.Transaction, error) {
			if key != "retry-1" {
				t.Fatalf("unexpected key: %s", key)
			}
			return existing, nil
		},
		CreateFunc: func(ctx context.Context, tx *bridge.Transaction) error {
			t.Fatal("replay must not create a second row")
			return nil
		},
	}
	stl := &MockSettlement{
		RequestQuoteFunc: func(ctx context.Context, p settlement.QuoteParams) (*settlement.Quote, error) {
			t.Fatal("replay must not request a second quote")
			return nil, nil
		},
	}
	svc := newTestService(store, stl, nil, Options{})

	resp, err := svc.Execute(ctx, &bridge.ExecuteRequest{
		UserID:           "user-1",
		AmountInUnits:    1,
		RecipientAddress: testRecipient,
		RefundAddress:    testRefund,
		IdempotencyKey:   "retry-1",
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if resp.BridgeID != "existing-id" || resp.DepositAddress != "existing-addr" {
		t.Fatalf("expected the stored attempt, got %+v", resp)
	}
}

func TestBridgeService_Execute_IdempotencyKeyTerminalRowConflicts(t *testing.T) {
	ctx := context.Background()

	store := &MockStore{
		GetByIdempotencyKeyFunc: func(ctx context.Context, key string) (*bridge.Transaction, error) {
			return &bridge.Transaction{
				ID:                "done-id",
				DepositAddress:    "done-addr",
				AmountSourceUnits: 1,
				RecipientAddress:  testRecipient,
				RefundAddress:     testRefund,
				Status:            bridge.StatusSuccess,
			}, nil
		},
		CreateFunc: func(ctx context.Context, tx *bridge.Transaction) error {
			t.Fatal("a reused key must not create a second row")
			return nil
		},
	}
	svc := newTestService(store, nil, nil, Options{})

	_, err := svc.Execute(ctx, &bridge.ExecuteRequest{
		UserID:           "user-1",
		AmountInUnits:    1,
		RecipientAddress: testRecipient,
		RefundAddress:    testRefund,
		IdempotencyKey:   "retry-done",
	})
	if !apperrors.Is(err, apperrors.CategoryDataConflict) {
		t.Fatalf("expected CategoryDataConflict for a completed attempt, got %v", err)
	}
	if !errors.Is(err, ErrIdempotencyKeyReused) {
		t.Fatalf("expected ErrIdempotencyKeyReused, got %v", err)
	}
}

func TestBridgeService_Execute_IdempotencyKeyParameterMismatchConflicts(t *testing.T) {
	ctx := context.Background()

	store := &MockStore{
		GetByIdempotencyKeyFunc: func(ctx context.Context, key string) (*bridge.Transaction, error) {
			return &bridge.Transaction{
				ID:                "existing-id",
				DepositAddress:    "existing-addr",
				AmountSourceUnits: 2_000_000_000,
				RecipientAddress:  testRecipient,
				RefundAddress:     testRefund,
				Status:            bridge.StatusPending,
			}, nil
		},
	}
	svc := newTestService(store, nil, nil, Options{})

	_, err := svc.Execute(ctx, &bridge.ExecuteRequest{
		UserID:           "user-1",
		AmountInUnits:    1,
		RecipientAddress: testRecipient,
		RefundAddress:    testRefund,
		IdempotencyKey:   "retry-1",
	})
	if !apperrors.Is(err, apperrors.CategoryDataConflict) {
		t.Fatalf("expected CategoryDataConflict for a mismatched retry, got %v", err)
	}
	if !errors.Is(err, ErrIdempotencyKeyReused) {
		t.Fatalf("expected ErrIdempotencyKeyReused, got %v", err)
	}
}

func TestBridgeService_Execute_IdempotencyKeyInsertRaceReplaysWinner(t *testing.T) {
	ctx := context.Background()

	expected := uint64(100)
	winner := &bridge.Transaction{
		ID:                       "winner-id",
		DepositAddress:           "winner-addr",
		AmountSourceUnits:        1,
		RecipientAddress:         testRecipient,
		RefundAddress:            testRefund,
		ExpectedDestinationUnits: &expected,
		Status:                   bridge.StatusPending,
	}

	// The key is free at the pre-insert check but claimed by a concurrent
	// request before our insert lands.
	lookups := 0
	store := &MockStore{
		GetByIdempotencyKeyFunc: func(ctx context.Context, key string) (*bridge.Transaction, error) {
			lookups++
			if lookups == 1 {
				return nil, bridgestore.ErrNotFound
			}
			return winner, nil
		},
		CreateFunc: func(ctx context.Context, tx *bridge.Transaction) error {
			return bridgestore.ErrDuplicateIdempotencyKey
		},
	}
	stl := &MockSettlement{
		RequestQuoteFunc: func(ctx context.Context, p settlement.QuoteParams) (*settlement.Quote, error) {
			return &settlement.Quote{DepositAddress: "loser-addr", AmountOutUnits: 100}, nil
		},
	}
	svc := newTestService(store, stl, nil, Options{})

	resp, err := svc.Execute(ctx, &bridge.ExecuteRequest{
		UserID:           "user-1",
		AmountInUnits:    1,
		RecipientAddress: testRecipient,
		RefundAddress:    testRefund,
		IdempotencyKey:   "retry-race",
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if resp.BridgeID != "winner-id" || resp.DepositAddress != "winner-addr" {
		t.Fatalf("expected the winning attempt, got %+v", resp)
	}
	if lookups != 2 {
		t.Fatalf("expected a re-read after the insert conflict, got %d lookups", lookups)
	}
}

func TestBridgeService_Execute_InvalidRefundAddress(t *testing.T) {
	ctx := context.Background()
	chain := &MockSourceChain{
		ValidateAddressFunc: func(addr string) error {
			return errors.New("invalid solana address")
		},
	}
	svc := newTestService(nil, nil, chain, Options{})

	_, err := svc.Execute(ctx, &bridge.ExecuteRequest{
		UserID:           "user-1",
		AmountInUnits:    1,
		RecipientAddress: testRecipient,
		RefundAddress:    "bogus",
	})
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected CategoryDataError, got %v", err)
	}
	if !errors.Is(err, ErrInvalidRefund) {
		t.Fatalf("expected ErrInvalidRefund, got %v", err)
	}
}

func TestBridgeService_Execute_LedgerWriteFailed(t *testing.T) {
	ctx := context.Background()

	store := &MockStore{
		CreateFunc: func(ctx context.Context, tx *bridge.Transaction) error {
			return errors.New("connection reset")
		},
	}
	stl := &MockSettlement{
		RequestQuoteFunc: func(ctx context.Context, p settlement.QuoteParams) (*settlement.Quote, error) {
			return &settlement.Quote{DepositAddress: "firm-addr"}, nil
		},
	}
	svc := newTestService(store, stl, nil, Options{})

	_, err := svc.Execute(ctx, &bridge.ExecuteRequest{
		UserID:           "user-1",
		AmountInUnits:    1,
		RecipientAddress: testRecipient,
		RefundAddress:    testRefund,
	})
	if !apperrors.Is(err, apperrors.CategoryGeneralError) {
		t.Fatalf("expected CategoryGeneralError, got %v", err)
	}

	store.CreateFunc = func(ctx context.Context, tx *bridge.Transaction) error {
		return bridgestore.ErrDuplicateDepositAddress
	}
	_, err = svc.Execute(ctx, &bridge.ExecuteRequest{
		UserID:           "user-1",
		AmountInUnits:    1,
		RecipientAddress: testRecipient,
		RefundAddress:    testRefund,
	})
	if !apperrors.Is(err, apperrors.CategoryDataConflict) {
		t.Fatalf("expected CategoryDataConflict, got %v", err)
	}
}

func TestBridgeService_GetStatus(t *testing.T) {
	ctx := context.Background()

	now := time.Now()
	sig := "sig-1"
	store := &MockStore{
		GetByDepositAddressFunc: func(ctx context.Context, depositAddress string) (*bridge.Transaction, error) {
			if depositAddress != "addr-1" {
				return nil, bridgestore.ErrNotFound
			}
			return &bridge.Transaction{
				ID:                "id-1",
				DepositAddress:    "addr-1",
				Status:            bridge.StatusProcessing,
				SourceTxSignature: &sig,
				CreatedAt:         now,
				UpdatedAt:         now,
			}, nil
		},
	}
	svc := newTestService(store, nil, nil, Options{})

	resp, err := svc.GetStatus(ctx, "addr-1")
	if err != nil {
		t.Fatalf("GetStatus() failed: %v", err)
	}
	if resp.BridgeID != "id-1" || resp.Status != bridge.StatusProcessing {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.DepositTimeout {
		t.Fatal("deposit timeout hint only applies to PENDING rows")
	}

	_, err = svc.GetStatus(ctx, "addr-missing")
	if !apperrors.Is(err, apperrors.CategoryResourceNotFound) {
		t.Fatalf("expected CategoryResourceNotFound, got %v", err)
	}

	_, err = svc.GetStatus(ctx, "")
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected CategoryDataError for empty address, got %v", err)
	}
}

func TestBridgeService_GetStatus_DepositTimeoutHint(t *testing.T) {
	ctx := context.Background()

	store := &MockStore{
		GetByDepositAddressFunc: func(ctx context.Context, depositAddress string) (*bridge.Transaction, error) {
			return &bridge.Transaction{
				ID:             "id-1",
				DepositAddress: depositAddress,
				Status:         bridge.StatusPending,
				CreatedAt:      time.Now().Add(-30 * time.Minute),
			}, nil
		},
	}
	svc := newTestService(store, nil, nil, Options{DetectionWindow: 10 * time.Minute})

	resp, err := svc.GetStatus(ctx, "addr-1")
	if err != nil {
		t.Fatalf("GetStatus() failed: %v", err)
	}
	if !resp.DepositTimeout {
		t.Fatal("expected deposit timeout hint for an old pending row")
	}
	if resp.Status != bridge.StatusPending {
		t.Fatalf("timeout hint must not change the status, got %s", resp.Status)
	}
}

func TestBridgeService_ListTransactions(t *testing.T) {
	ctx := context.Background()

	store := &MockStore{
		ListFunc: func(ctx context.Context, status *bridge.Status, limit int) ([]*bridge.Transaction, error) {
			if status == nil || *status != bridge.StatusFailed {
				t.Fatalf("unexpected status filter: %v", status)
			}
			if limit != 100 {
				t.Fatalf("expected default limit, got %d", limit)
			}
			return []*bridge.Transaction{{ID: "id-1"}}, nil
		},
	}
	svc := newTestService(store, nil, nil, Options{ListLimit: 100})

	txs, err := svc.ListTransactions(ctx, "FAILED", 0)
	if err != nil {
		t.Fatalf("ListTransactions() failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("unexpected count: %d", len(txs))
	}

	_, err = svc.ListTransactions(ctx, "BOGUS", 0)
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected CategoryDataError for unknown status, got %v", err)
	}
}
