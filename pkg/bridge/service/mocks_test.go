package service

// TODO: remove the mock impl and use mockery to generate mock

import (
	"context"

	"github.com/shieldpay/solzec-bridge/pkg/bridge"
	"github.com/shieldpay/solzec-bridge/pkg/bridgestore"
	"github.com/shieldpay/solzec-bridge/pkg/settlement"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	CreateFunc               func(ctx context.Context, tx *bridge.Transaction) error
	GetByDepositAddressFunc  func(ctx context.Context, depositAddress string) (*bridge.Transaction, error)
	GetByIdempotencyKeyFunc  func(ctx context.Context, key string) (*bridge.Transaction, error)
	ListFunc                 func(ctx context.Context, status *bridge.Status, limit int) ([]*bridge.Transaction, error)
}

func (m *MockStore) Create(ctx context.Context, tx *bridge.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx)
	}
	return nil
}

func (m *MockStore) GetByDepositAddress(ctx context.Context, depositAddress string) (*bridge.Transaction, error) {
	if m.GetByDepositAddressFunc != nil {
		return m.GetByDepositAddressFunc(ctx, depositAddress)
	}
	return nil, bridgestore.ErrNotFound
}

func (m *MockStore) GetByIdempotencyKey(ctx context.Context, key string) (*bridge.Transaction, error) {
	if m.GetByIdempotencyKeyFunc != nil {
		return m.GetByIdempotencyKeyFunc(ctx, key)
	}
	return nil, bridgestore.ErrNotFound
}

func (m *MockStore) List(ctx context.Context, status *bridge.Status, limit int) ([]*bridge.Transaction, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, status, limit)
	}
	return nil, nil
}

// MockSettlement is a mock implementation of Settlement
type MockSettlement struct {
	RequestQuoteFunc func(ctx context.Context, p settlement.QuoteParams) (*settlement.Quote, error)
}

func (m *MockSettlement) RequestQuote(ctx context.Context, p settlement.QuoteParams) (*settlement.Quote, error) {
	if m.RequestQuoteFunc != nil {
		return m.RequestQuoteFunc(ctx, p)
	}
	return nil, nil
}

// MockSourceChain is a mock implementation of SourceChain
type MockSourceChain struct {
	ValidateAddressFunc func(addr string) error
}

func (m *MockSourceChain) ValidateAddress(addr string) error {
	if m.ValidateAddressFunc != nil {
		return m.ValidateAddressFunc(addr)
	}
	return nil
}
