package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/position-risk-engine/internal/audit"
	"github.com/ducminhle1904/position-risk-engine/internal/cache"
	"github.com/ducminhle1904/position-risk-engine/internal/config"
	"github.com/ducminhle1904/position-risk-engine/internal/exchange"
	"github.com/ducminhle1904/position-risk-engine/internal/exchange/bybit"
	"github.com/ducminhle1904/position-risk-engine/internal/logger"
	"github.com/ducminhle1904/position-risk-engine/internal/regime"
	"github.com/ducminhle1904/position-risk-engine/internal/volatility"
	"github.com/ducminhle1904/position-risk-engine/pkg/data"
	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

var (
	configPath string
	envFile    string
	logLevel   string

	app *config.AppConfig
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "riskctl",
	Short: "Adaptive position risk engine",
	Long: `riskctl sizes trades from an adaptive risk percentage, checks them
against order book liquidity, allocates capital across symbols and
replays trailing stops.

Settings come from the environment (optionally a .env file); the risk
configuration lives in a JSON or YAML file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvFile(envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
		app = config.LoadAppConfig()
		if configPath != "" {
			app.RiskConfigPath = configPath
		}
		if logLevel != "" {
			app.LogLevel = logLevel
		}

		l, err := logger.New(app.LogLevel)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "risk configuration file (default $RISK_CONFIG_PATH or risk_config.json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "env file to load before reading settings")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func loadStore() (*config.Store, error) {
	return config.Load(app.RiskConfigPath, log)
}

// marketFlags selects where candles and order books come from
type marketFlags struct {
	dataDir string
	live    bool
}

func (m *marketFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.dataDir, "data", "", "read candles from CSV files under this directory")
	cmd.Flags().BoolVar(&m.live, "live", false, "read market data from Bybit")
}

func (m *marketFlags) bybit() *bybit.Client {
	return bybit.NewClient(bybit.Config{
		APIKey:    app.Exchange.APIKey,
		APISecret: app.Exchange.Secret,
		Testnet:   app.Exchange.Testnet,
		Category:  app.Exchange.Category,
	}, log)
}

func (m *marketFlags) configured() bool {
	return m.live || m.dataDir != ""
}

// candles returns the configured candle provider, or nil when neither
// --data nor --live is set
func (m *marketFlags) candles() exchange.CandleProvider {
	switch {
	case m.live:
		return m.bybit()
	case m.dataDir != "":
		return data.NewCSVProvider(m.dataDir, log)
	}
	return nil
}

// volatilityFor refreshes the volatility service for symbol/timeframe when a
// provider is configured. Without one the service reports the default.
// atrPeriod <= 0 keeps the default lookback.
func (m *marketFlags) volatilityFor(ctx context.Context, symbol, timeframe string, atrPeriod int) *volatility.Service {
	provider := m.candles()
	svc := volatility.NewService(provider, cache.NewMemoryCache(), log).WithPeriod(atrPeriod)
	if provider == nil {
		return svc
	}
	if err := svc.Refresh(ctx, symbol, timeframe); err != nil {
		log.Warning("volatility refresh failed, using default: %v", err)
	}
	return svc
}

// regimeFor parses --regime. "auto" classifies the configured market data;
// without any, or when classification fails, the regime is unknown.
func (m *marketFlags) regimeFor(ctx context.Context, flag, symbol, timeframe string) types.MarketRegime {
	if !strings.EqualFold(strings.TrimSpace(flag), "auto") {
		return types.ParseRegime(flag)
	}
	provider := m.candles()
	if provider == nil {
		log.Warning("--regime auto needs --data or --live, regime left unknown")
		return types.RegimeUnknown
	}
	reading, err := regime.NewClassifier(regime.DefaultConfig(), log).Detect(ctx, provider, symbol, timeframe)
	if err != nil {
		log.Warning("regime detection failed, regime left unknown: %v", err)
		return types.RegimeUnknown
	}
	return reading.Regime
}

func openAudit() (*audit.Store, error) {
	if app.AuditDBPath == "" {
		return nil, nil
	}
	return audit.Open(app.AuditDBPath)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}
