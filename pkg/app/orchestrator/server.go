// Package orchestrator implements app.Runner for the bridge orchestrator process.
package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	apphttp "github.com/shieldpay/solzec-bridge/pkg/app/http"
	bridgeservice "github.com/shieldpay/solzec-bridge/pkg/bridge/service"
	"github.com/shieldpay/solzec-bridge/pkg/bridgestore"
	"github.com/shieldpay/solzec-bridge/pkg/config"
	orchestratorpkg "github.com/shieldpay/solzec-bridge/pkg/orchestrator"
	"github.com/shieldpay/solzec-bridge/pkg/pgutil"
	"github.com/shieldpay/solzec-bridge/pkg/settlement"
	"github.com/shieldpay/solzec-bridge/pkg/solana"
)

const defaultRequestTimeout = 60 * time.Second

// readyProbeTimeout bounds the dependency checks behind /ready.
const readyProbeTimeout = 5 * time.Second

// Server holds cfg to init the orchestrator process.
type Server struct {
	cfg *config.Config
}

// NewServer initializes a new orchestrator Server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Run starts the orchestrator loops and the HTTP API.
// It blocks until an OS shutdown signal is received or a fatal server error occurs.
func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("orchestrator config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting SOL-ZEC bridge orchestrator",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() { _ = db.Close() }()
	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	store := bridgestore.NewStore(db)

	settlementClient, err := settlement.NewClient(settlement.Config{
		JWT:                  cfg.Settlement.JWT,
		OriginAsset:          cfg.Settlement.OriginAsset,
		DestinationAsset:     cfg.Settlement.DestinationAsset,
		SlippageToleranceBps: cfg.Settlement.SlippageToleranceBps,
		QuoteDeadline:        cfg.Settlement.QuoteDeadline,
	}, logger)
	if err != nil {
		return fmt.Errorf("create settlement client: %w", err)
	}

	solanaClient, err := solana.NewClient(&cfg.Solana, logger)
	if err != nil {
		return fmt.Errorf("create solana client: %w", err)
	}

	engine := orchestratorpkg.NewEngine(&cfg.Bridge, store, settlementClient, solanaClient, logger)
	engine.Start(ctx)
	defer engine.Stop()

	svc := bridgeservice.NewService(store, settlementClient, solanaClient, bridgeservice.Options{
		DetectionWindow: cfg.Bridge.DetectionWindow,
		ListLimit:       cfg.Bridge.ListLimit,
	}, logger)

	router := s.setupRouter(bridgeservice.NewLog(svc, logger), db, solanaClient, logger)

	return apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)
}

func (s *Server) setupRouter(
	svc bridgeservice.Service,
	db *bun.DB,
	solanaClient *solana.Client,
	logger *zap.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultRequestTimeout))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Readiness: the API is useless without the ledger and the source chain.
	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		probeCtx, cancel := context.WithTimeout(req.Context(), readyProbeTimeout)
		defer cancel()

		if err := db.PingContext(probeCtx); err != nil {
			logger.Warn("Readiness check failed: database", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT_READY"))
			return
		}
		if err := solanaClient.Healthy(probeCtx); err != nil {
			logger.Warn("Readiness check failed: solana rpc", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT_READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	})

	if s.cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
		logger.Info("Metrics enabled", zap.String("path", "/metrics"))
	}

	r.Route("/api/v1", func(r chi.Router) {
		bridgeservice.RegisterRoutes(r, svc, logger)
	})

	return r
}
