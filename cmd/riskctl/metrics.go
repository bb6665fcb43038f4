package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/position-risk-engine/internal/cache"
	"github.com/ducminhle1904/position-risk-engine/internal/config"
	"github.com/ducminhle1904/position-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/position-risk-engine/internal/risk"
	"github.com/ducminhle1904/position-risk-engine/internal/volatility"
	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

var metricsOpts struct {
	addr      string
	symbols   []string
	timeframe string
	interval  time.Duration
	market    marketFlags
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Serve /metrics and /health, optionally refreshing volatility",
	Long: `Starts an HTTP server with the prometheus metrics and a health
endpoint. With --watch and a market data source the volatility and risk
percentage of each watched symbol are refreshed every --interval.`,
	Args: cobra.NoArgs,
	RunE: runMetrics,
}

func init() {
	rootCmd.AddCommand(metricsCmd)
	f := metricsCmd.Flags()
	f.StringVar(&metricsOpts.addr, "addr", "", "listen address (default $METRICS_ADDR)")
	f.StringSliceVar(&metricsOpts.symbols, "watch", nil, "symbols to refresh")
	f.StringVarP(&metricsOpts.timeframe, "timeframe", "t", "1h", "candle timeframe")
	f.DurationVar(&metricsOpts.interval, "interval", time.Minute, "refresh interval")
	metricsOpts.market.register(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	addr := metricsOpts.addr
	if addr == "" {
		addr = app.MetricsAddr
	}

	store, err := loadStore()
	if err != nil {
		return err
	}

	health := monitoring.NewHealthChecker(2 * metricsOpts.interval)
	health.MarkConfigLoaded()

	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.NewMetricsHandler())
	mux.Handle("/health", health)
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(metricsOpts.symbols) > 0 && metricsOpts.market.configured() {
		go watch(ctx, store, health)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving metrics on %s", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// watch refreshes volatility and records a risk percentage per symbol on every tick
func watch(ctx context.Context, store config.Source, health *monitoring.HealthChecker) {
	vol := volatility.NewService(metricsOpts.market.candles(), cache.NewMemoryCache(), log)
	engine := risk.NewEngine(store, vol, log)

	ticker := time.NewTicker(metricsOpts.interval)
	defer ticker.Stop()

	for {
		for _, symbol := range metricsOpts.symbols {
			symbol = strings.ToUpper(symbol)
			refreshCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			err := vol.Refresh(refreshCtx, symbol, metricsOpts.timeframe)
			cancel()
			if err != nil {
				log.Warning("refresh %s failed: %v", symbol, err)
				health.ReportError(err.Error())
				monitoring.RecordError("market_data")
				continue
			}
			health.MarkMarketData(time.Now())
			engine.CalculateRiskPercentage(symbol, metricsOpts.timeframe, types.RegimeUnknown, 0, nil)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
