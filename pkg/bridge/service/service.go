// Package service implements the bridge API business logic: quoting,
// accepting new bridge attempts, and serving status reads. All writes past
// row creation happen in the orchestrator loops, never here.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shieldpay/solzec-bridge/internal/metrics"
	apperrors "github.com/shieldpay/solzec-bridge/pkg/app/errors"
	"github.com/shieldpay/solzec-bridge/pkg/bridge"
	"github.com/shieldpay/solzec-bridge/pkg/bridgestore"
	"github.com/shieldpay/solzec-bridge/pkg/settlement"
	"github.com/shieldpay/solzec-bridge/pkg/zcash"
)

var (
	ErrInvalidRecipient     = errors.New("invalid recipient address")
	ErrInvalidRefund        = errors.New("invalid refund address")
	ErrQuoteUnavailable     = errors.New("settlement network did not return a quote")
	ErrInvalidStatus        = errors.New("unknown status filter")
	ErrIdempotencyKeyReused = errors.New("idempotency key already used")
)

// Store is the narrow data-access interface for the bridge service.
// Defined here to keep the service decoupled from bridgestore implementation details.
//
//go:generate mockery --name Store --output mocks --outpkg mocks --filename mock_store.go --with-expecter
type Store interface {
	Create(ctx context.Context, tx *bridge.Transaction) error
	GetByDepositAddress(ctx context.Context, depositAddress string) (*bridge.Transaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*bridge.Transaction, error)
	List(ctx context.Context, status *bridge.Status, limit int) ([]*bridge.Transaction, error)
}

// Settlement is the quoting surface of the settlement network client.
//
//go:generate mockery --name Settlement --output mocks --outpkg mocks --filename mock_settlement.go --with-expecter
type Settlement interface {
	RequestQuote(ctx context.Context, p settlement.QuoteParams) (*settlement.Quote, error)
}

// SourceChain validates source-chain addresses.
//
//go:generate mockery --name SourceChain --output mocks --outpkg mocks --filename mock_source_chain.go --with-expecter
type SourceChain interface {
	ValidateAddress(addr string) error
}

// Service defines the interface for the bridge API business logic
//
//go:generate mockery --name Service --output mocks --outpkg mocks --filename mock_service.go --with-expecter
type Service interface {
	GetQuote(ctx context.Context, req *bridge.QuoteRequest) (*bridge.QuoteResponse, error)
	Execute(ctx context.Context, req *bridge.ExecuteRequest) (*bridge.ExecuteResponse, error)
	GetStatus(ctx context.Context, depositAddress string) (*bridge.StatusResponse, error)
	ListTransactions(ctx context.Context, statusFilter string, limit int) ([]*bridge.Transaction, error)
}

type bridgeService struct {
	store           Store
	settlement      Settlement
	sourceChain     SourceChain
	validate        *validator.Validate
	detectionWindow time.Duration
	listLimit       int
	logger          *zap.Logger
}

// Options tune reporting behavior; zero values get sane defaults.
type Options struct {
	// DetectionWindow is how long a row may sit PENDING before status
	// responses carry a deposit-timeout hint.
	DetectionWindow time.Duration
	// ListLimit caps ListTransactions results.
	ListLimit int
}

// NewService creates a new bridge service
func NewService(
	store Store,
	settlementClient Settlement,
	sourceChain SourceChain,
	opts Options,
	logger *zap.Logger,
) Service {
	if opts.DetectionWindow <= 0 {
		opts.DetectionWindow = 10 * time.Minute
	}
	if opts.ListLimit <= 0 {
		opts.ListLimit = 100
	}
	return &bridgeService{
		store:           store,
		settlement:      settlementClient,
		sourceChain:     sourceChain,
		validate:        validator.New(),
		detectionWindow: opts.DetectionWindow,
		listLimit:       opts.ListLimit,
		logger:          logger,
	}
}

// GetQuote prices the swap without creating a row. The quote is dry: no
// remote intent is created and the returned deposit address must not be
// funded.
func (s *bridgeService) GetQuote(ctx context.Context, req *bridge.QuoteRequest) (*bridge.QuoteResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.BadRequestError(err, "invalid quote request")
	}
	if err := zcash.ValidateAddress(req.RecipientAddress); err != nil {
		return nil, apperrors.BadRequestError(errors.Join(ErrInvalidRecipient, err), "invalid recipient address")
	}

	quote, err := s.settlement.RequestQuote(ctx, settlement.QuoteParams{
		AmountInUnits:    req.AmountInUnits,
		RecipientAddress: req.RecipientAddress,
		Dry:              true,
	})
	if err != nil {
		metrics.QuotesRequested.WithLabelValues("error").Inc()
		return nil, apperrors.DependencyFailureError(err, "quote unavailable")
	}
	if quote == nil || (quote.DepositAddress == "" && quote.AmountOutUnits == 0) {
		metrics.QuotesRequested.WithLabelValues("error").Inc()
		return nil, apperrors.DependencyFailureError(ErrQuoteUnavailable, "quote unavailable")
	}
	metrics.QuotesRequested.WithLabelValues("ok").Inc()

	return &bridge.QuoteResponse{
		AmountOutEstimateUnits: quote.AmountOutUnits,
		DepositAddress:         quote.DepositAddress,
		TimeEstimateMinutes:    uint32(quote.TimeEstimate / time.Minute),
	}, nil
}

// Execute validates the request, asks the settlement network for a firm
// quote, and persists a PENDING row keyed by the assigned deposit address.
// If the row cannot be persisted the caller must not fund the address;
// retrying with the same idempotency key reuses the stored attempt instead
// of creating a second remote intent.
func (s *bridgeService) Execute(ctx context.Context, req *bridge.ExecuteRequest) (*bridge.ExecuteResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.BadRequestError(err, "invalid execute request")
	}
	if err := zcash.ValidateAddress(req.RecipientAddress); err != nil {
		return nil, apperrors.BadRequestError(errors.Join(ErrInvalidRecipient, err), "invalid recipient address")
	}
	if err := s.sourceChain.ValidateAddress(req.RefundAddress); err != nil {
		return nil, apperrors.BadRequestError(errors.Join(ErrInvalidRefund, err), "invalid refund address")
	}

	if req.IdempotencyKey != "" {
		existing, err := s.store.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil && !errors.Is(err, bridgestore.ErrNotFound) {
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if existing != nil {
			return s.replayExisting(req, existing)
		}
	}

	quote, err := s.settlement.RequestQuote(ctx, settlement.QuoteParams{
		AmountInUnits:    req.AmountInUnits,
		RecipientAddress: req.RecipientAddress,
		RefundAddress:    req.RefundAddress,
		Dry:              false,
	})
	if err != nil {
		metrics.QuotesRequested.WithLabelValues("error").Inc()
		return nil, apperrors.DependencyFailureError(err, "quote unavailable")
	}
	if quote == nil || quote.DepositAddress == "" {
		metrics.QuotesRequested.WithLabelValues("error").Inc()
		return nil, apperrors.DependencyFailureError(ErrQuoteUnavailable, "quote unavailable")
	}
	metrics.QuotesRequested.WithLabelValues("ok").Inc()

	expected := quote.AmountOutUnits
	tx := &bridge.Transaction{
		ID:                       uuid.NewString(),
		UserID:                   req.UserID,
		DepositAddress:           quote.DepositAddress,
		AmountSourceUnits:        req.AmountInUnits,
		ExpectedDestinationUnits: &expected,
		Status:                   bridge.StatusPending,
		RefundAddress:            req.RefundAddress,
		RecipientAddress:         req.RecipientAddress,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		tx.IdempotencyKey = &key
	}

	if err := s.store.Create(ctx, tx); err != nil {
		if errors.Is(err, bridgestore.ErrDuplicateIdempotencyKey) {
			// Lost a race against a concurrent retry carrying the same
			// key; serve the attempt that won the insert.
			winner, lookupErr := s.store.GetByIdempotencyKey(ctx, req.IdempotencyKey)
			if lookupErr != nil {
				return nil, fmt.Errorf("failed to load concurrent idempotent attempt: %w", lookupErr)
			}
			return s.replayExisting(req, winner)
		}
		if errors.Is(err, bridgestore.ErrDuplicateDepositAddress) {
			return nil, apperrors.ConflictError(err, "deposit address already in use")
		}
		// The remote intent exists but we have no durable record of it.
		// Surface a write failure so the caller retries with the same
		// idempotency key instead of funding an untracked address.
		return nil, apperrors.GeneralError(fmt.Errorf("ledger write failed: %w", err))
	}

	metrics.BridgesCreated.Inc()
	s.logger.Info("Bridge attempt created",
		zap.String("bridge_id", tx.ID),
		zap.String("user_id", tx.UserID),
		zap.String("deposit_address", tx.DepositAddress),
		zap.Uint64("amount_source_units", tx.AmountSourceUnits))

	return &bridge.ExecuteResponse{
		BridgeID:                 tx.ID,
		DepositAddress:           tx.DepositAddress,
		ExpectedDestinationUnits: tx.ExpectedDestinationUnits,
	}, nil
}

// replayExisting serves a retried Execute from the stored attempt. Replay is
// limited to live rows carrying the same parameters: a terminal row or a
// parameter mismatch means the key is being reused for a new attempt, which
// is a conflict, not a retry.
func (s *bridgeService) replayExisting(req *bridge.ExecuteRequest, existing *bridge.Transaction) (*bridge.ExecuteResponse, error) {
	if existing.Status.IsTerminal() {
		return nil, apperrors.ConflictError(ErrIdempotencyKeyReused, "idempotency key already used by a completed attempt")
	}
	if existing.AmountSourceUnits != req.AmountInUnits ||
		existing.RecipientAddress != req.RecipientAddress ||
		existing.RefundAddress != req.RefundAddress {
		return nil, apperrors.ConflictError(ErrIdempotencyKeyReused, "idempotency key already used with different parameters")
	}

	s.logger.Info("Execute replayed via idempotency key",
		zap.String("bridge_id", existing.ID),
		zap.String("deposit_address", existing.DepositAddress))
	return &bridge.ExecuteResponse{
		BridgeID:                 existing.ID,
		DepositAddress:           existing.DepositAddress,
		ExpectedDestinationUnits: existing.ExpectedDestinationUnits,
	}, nil
}

// GetStatus serves the current row for a deposit address. Reads never
// trigger settlement polling; the orchestrator owns all polling.
func (s *bridgeService) GetStatus(ctx context.Context, depositAddress string) (*bridge.StatusResponse, error) {
	if depositAddress == "" {
		return nil, apperrors.BadRequestError(nil, "deposit address is required")
	}

	tx, err := s.store.GetByDepositAddress(ctx, depositAddress)
	if err != nil {
		if errors.Is(err, bridgestore.ErrNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "bridge transaction not found")
		}
		return nil, fmt.Errorf("failed to get bridge transaction: %w", err)
	}

	resp := &bridge.StatusResponse{
		BridgeID:               tx.ID,
		Status:                 tx.Status,
		SourceTxSignature:      tx.SourceTxSignature,
		DestinationTxHash:      tx.DestinationTxHash,
		ActualDestinationUnits: tx.ActualDestinationUnits,
		ErrorMessage:           tx.ErrorMessage,
		UpdatedAt:              tx.UpdatedAt,
		CompletedAt:            tx.CompletedAt,
	}
	if tx.Status == bridge.StatusPending && time.Since(tx.CreatedAt) > s.detectionWindow {
		resp.DepositTimeout = true
	}
	return resp, nil
}

// ListTransactions is the operational listing, newest first. statusFilter
// is optional; an unknown value is rejected rather than silently matching
// nothing.
func (s *bridgeService) ListTransactions(ctx context.Context, statusFilter string, limit int) ([]*bridge.Transaction, error) {
	var status *bridge.Status
	if statusFilter != "" {
		st := bridge.Status(statusFilter)
		if !st.Valid() {
			return nil, apperrors.BadRequestError(ErrInvalidStatus, "unknown status filter")
		}
		status = &st
	}

	if limit <= 0 || limit > s.listLimit {
		limit = s.listLimit
	}

	txs, err := s.store.List(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bridge transactions: %w", err)
	}
	return txs, nil
}
