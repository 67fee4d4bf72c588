package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shieldpay/solzec-bridge/pkg/bridge"
)

const serviceName = "BridgeService"

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the bridge Service.
// It logs method entry/exit, duration and errors.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

// GetQuote wraps the service method with logging
func (ls *logService) GetQuote(ctx context.Context, req *bridge.QuoteRequest) (resp *bridge.QuoteResponse, err error) {
	start := time.Now()

	ls.logger.Info("GetQuote started",
		zap.String("service", serviceName),
		zap.String("method", "GetQuote"),
		zap.Uint64("amount_in_units", req.AmountInUnits),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Error("GetQuote failed",
				zap.String("service", serviceName),
				zap.String("method", "GetQuote"),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("GetQuote completed",
				zap.String("service", serviceName),
				zap.String("method", "GetQuote"),
				zap.Uint64("amount_out_estimate_units", resp.AmountOutEstimateUnits),
				zap.Uint32("time_estimate_minutes", resp.TimeEstimateMinutes),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.GetQuote(ctx, req)
}

// Execute wraps the service method with logging
func (ls *logService) Execute(ctx context.Context, req *bridge.ExecuteRequest) (resp *bridge.ExecuteResponse, err error) {
	start := time.Now()

	ls.logger.Info("Execute started",
		zap.String("service", serviceName),
		zap.String("method", "Execute"),
		zap.String("user_id", req.UserID),
		zap.Uint64("amount_in_units", req.AmountInUnits),
		zap.Bool("has_idempotency_key", req.IdempotencyKey != ""),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Error("Execute failed",
				zap.String("service", serviceName),
				zap.String("method", "Execute"),
				zap.String("user_id", req.UserID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("Execute completed",
				zap.String("service", serviceName),
				zap.String("method", "Execute"),
				zap.String("bridge_id", resp.BridgeID),
				zap.String("deposit_address", resp.DepositAddress),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.Execute(ctx, req)
}

// GetStatus wraps the service method with logging
func (ls *logService) GetStatus(ctx context.Context, depositAddress string) (resp *bridge.StatusResponse, err error) {
	start := time.Now()

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Warn("GetStatus failed",
				zap.String("service", serviceName),
				zap.String("method", "GetStatus"),
				zap.String("deposit_address", depositAddress),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Debug("GetStatus completed",
				zap.String("service", serviceName),
				zap.String("method", "GetStatus"),
				zap.String("bridge_id", resp.BridgeID),
				zap.String("status", string(resp.Status)),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.GetStatus(ctx, depositAddress)
}

// ListTransactions wraps the service method with logging
func (ls *logService) ListTransactions(ctx context.Context, statusFilter string, limit int) (txs []*bridge.Transaction, err error) {
	start := time.Now()

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Warn("ListTransactions failed",
				zap.String("service", serviceName),
				zap.String("method", "ListTransactions"),
				zap.String("status_filter", statusFilter),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Debug("ListTransactions completed",
				zap.String("service", serviceName),
				zap.String("method", "ListTransactions"),
				zap.Int("count", len(txs)),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.ListTransactions(ctx, statusFilter, limit)
}
