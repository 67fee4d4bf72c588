// Package config loads orchestrator configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the orchestrator configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Solana     SolanaConfig     `mapstructure:"solana"`
	Settlement SettlementConfig `mapstructure:"settlement"`
	Bridge     BridgeConfig     `mapstructure:"bridge"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// SolanaConfig contains source chain client settings.
type SolanaConfig struct {
	RPCURL string `mapstructure:"rpc_url"`
	// Commitment is the confirmation level required before a deposit
	// counts as observed: processed, confirmed, or finalized.
	Commitment string `mapstructure:"commitment"`
	// SignatureLimit bounds how many recent signatures are fetched per
	// deposit address poll.
	SignatureLimit int `mapstructure:"signature_limit"`
}

// SettlementConfig contains 1Click settlement network settings.
type SettlementConfig struct {
	JWT                  string        `mapstructure:"jwt"`
	OriginAsset          string        `mapstructure:"origin_asset"`
	DestinationAsset     string        `mapstructure:"destination_asset"`
	SlippageToleranceBps int           `mapstructure:"slippage_tolerance_bps"`
	QuoteDeadline        time.Duration `mapstructure:"quote_deadline"`
}

// BridgeConfig contains orchestration loop settings.
type BridgeConfig struct {
	// DepositPollInterval is the watcher tick over PENDING rows.
	DepositPollInterval time.Duration `mapstructure:"deposit_poll_interval"`
	// ReconcileInterval is the reconciler tick over PROCESSING rows.
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval"`
	// ReconcileBudget is the number of settlement polls per row before an
	// operational alert fires. The row keeps its state either way.
	ReconcileBudget int `mapstructure:"reconcile_budget"`
	// DetectionWindow is how long a row may sit PENDING before status
	// responses carry a deposit-timeout hint. Reporting only.
	DetectionWindow time.Duration `mapstructure:"detection_window"`
	// IntentDeadline is how long a PENDING row may wait for a deposit
	// before it is failed; mirrors the settlement quote deadline.
	IntentDeadline time.Duration `mapstructure:"intent_deadline"`
	// ListLimit caps the operational transactions listing.
	ListLimit int `mapstructure:"list_limit"`
}

// MonitoringConfig contains monitoring and metrics settings.
type MonitoringConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Load loads configuration from file and environment variables. Any key
// can be overridden with a BRIDGE_-prefixed variable, e.g.
// BRIDGE_SETTLEMENT_JWT or BRIDGE_DATABASE_PASSWORD.
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("BRIDGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.database", "solzec_bridge")

	// Solana defaults
	viper.SetDefault("solana.commitment", "finalized")
	viper.SetDefault("solana.signature_limit", 10)

	// Settlement defaults
	viper.SetDefault("settlement.origin_asset", "nep141:sol.omft.near")
	viper.SetDefault("settlement.destination_asset", "nep141:zec.omft.near")
	viper.SetDefault("settlement.slippage_tolerance_bps", 100)
	viper.SetDefault("settlement.quote_deadline", "24h")

	// Bridge defaults
	viper.SetDefault("bridge.deposit_poll_interval", "5s")
	viper.SetDefault("bridge.reconcile_interval", "5s")
	viper.SetDefault("bridge.reconcile_budget", 60)
	viper.SetDefault("bridge.detection_window", "10m")
	viper.SetDefault("bridge.intent_deadline", "24h")
	viper.SetDefault("bridge.list_limit", 100)

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_path", "stdout")
}

func validate(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Solana.RPCURL == "" {
		return fmt.Errorf("solana.rpc_url is required")
	}
	if config.Settlement.JWT == "" {
		return fmt.Errorf("settlement.jwt is required")
	}
	if config.Bridge.DepositPollInterval <= 0 {
		return fmt.Errorf("bridge.deposit_poll_interval must be positive")
	}
	if config.Bridge.ReconcileInterval <= 0 {
		return fmt.Errorf("bridge.reconcile_interval must be positive")
	}
	if config.Bridge.ReconcileBudget <= 0 {
		return fmt.Errorf("bridge.reconcile_budget must be positive")
	}
	return nil
}

// GetConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) GetConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
