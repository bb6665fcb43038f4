package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/position-risk-engine/internal/risk"
	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

var sizeOpts struct {
	timeframe   string
	regime      string
	side        string
	entry       float64
	stop        float64
	balance     float64
	riskPct     float64
	maxPosition float64
	drawdown    float64
	equity      equityFlags
	open        []string
	volatility  float64
	depth       int
	market      marketFlags
}

var sizeCmd = &cobra.Command{
	Use:   "size <symbol>",
	Short: "Size a position and check it against order book liquidity",
	Long: `Runs the full pipeline: risk percentage, position size (small-account
rules below the configured threshold), then the liquidity guard.

With --live the order book, 24h turnover and instrument step size come
from Bybit. Without it the liquidity guard sees no order book and halves
the size.`,
	Args: cobra.ExactArgs(1),
	RunE: runSize,
}

func init() {
	rootCmd.AddCommand(sizeCmd)
	f := sizeCmd.Flags()
	f.StringVarP(&sizeOpts.timeframe, "timeframe", "t", "1h", "candle timeframe")
	f.StringVarP(&sizeOpts.regime, "regime", "r", "", "market regime: trending, ranging, volatile, quiet or auto")
	f.StringVarP(&sizeOpts.side, "side", "s", "long", "long or short")
	f.Float64Var(&sizeOpts.entry, "entry", 0, "entry price")
	f.Float64Var(&sizeOpts.stop, "stop", 0, "stop loss price")
	f.Float64VarP(&sizeOpts.balance, "balance", "b", 10000, "account balance in USD")
	f.Float64Var(&sizeOpts.riskPct, "risk", 0, "risk percentage; computed adaptively when zero")
	f.Float64Var(&sizeOpts.maxPosition, "max-position", risk.DefaultMaxPositionPercent, "max position as percent of balance")
	f.Float64Var(&sizeOpts.drawdown, "drawdown", -1, "current drawdown percent (negative means unknown)")
	f.StringSliceVar(&sizeOpts.open, "open", nil, "open positions as SYMBOL:side, checked against position limits")
	sizeOpts.equity.register(sizeCmd)
	f.Float64Var(&sizeOpts.volatility, "volatility", 0, "use this normalized volatility instead of market data")
	f.IntVar(&sizeOpts.depth, "depth", 50, "order book depth with --live")
	sizeOpts.market.register(sizeCmd)
	_ = sizeCmd.MarkFlagRequired("entry")
	_ = sizeCmd.MarkFlagRequired("stop")
}

func runSize(cmd *cobra.Command, args []string) error {
	symbol := strings.ToUpper(args[0])
	ctx, cancel := commandContext(cmd)
	defer cancel()

	side, ok := types.ParseSide(sizeOpts.side)
	if !ok {
		return fmt.Errorf("invalid side %q", sizeOpts.side)
	}

	store, err := loadStore()
	if err != nil {
		return err
	}

	var vol risk.VolatilitySource
	if sizeOpts.volatility > 0 {
		vol = risk.FixedVolatility(sizeOpts.volatility)
	} else {
		vol = sizeOpts.market.volatilityFor(ctx, symbol, sizeOpts.timeframe, 0)
	}

	engine := risk.NewEngine(store, vol, log)
	engine.MaxBookAge = app.OrderBookMaxAge

	openPositions, err := parseOpenPositions(sizeOpts.open)
	if err != nil {
		return err
	}
	if allowed, reason := engine.CheckPositionLimits(openPositions, symbol, side); !allowed {
		return fmt.Errorf("position limits: %s", reason)
	}

	var book *types.OrderBook
	if sizeOpts.market.live {
		client := sizeOpts.market.bybit()
		if spec, err := client.GetSymbolSpec(ctx, symbol); err != nil {
			log.Warning("instrument info unavailable for %s, using built-in table: %v", symbol, err)
		} else {
			engine.Symbols().Set(symbol, spec)
		}
		if book, err = client.GetOrderBook(ctx, symbol, sizeOpts.depth); err != nil {
			log.Warning("order book unavailable for %s: %v", symbol, err)
			book = nil
		}
	}

	result := engine.Size(risk.SizeRequest{
		Symbol:             symbol,
		Timeframe:          sizeOpts.timeframe,
		Regime:             sizeOpts.market.regimeFor(ctx, sizeOpts.regime, symbol, sizeOpts.timeframe),
		Side:               side,
		EntryPrice:         sizeOpts.entry,
		StopLoss:           sizeOpts.stop,
		AccountBalance:     sizeOpts.balance,
		Drawdown:           sizeOpts.equity.drawdown(sizeOpts.drawdown),
		MaxPositionPercent: sizeOpts.maxPosition,
		OrderBook:          book,
		RiskPercentage:     sizeOpts.riskPct,
	})

	printSizing(result)

	auditStore, err := openAudit()
	if err != nil || auditStore == nil {
		return err
	}
	defer auditStore.Close()

	if err := auditStore.SaveAllocationRecords(ctx, engine.History().Records()); err != nil {
		return err
	}
	rowID, err := auditStore.SaveSizingResult(ctx, result)
	if err != nil {
		return err
	}
	log.Info("sizing result %s stored", rowID)
	return nil
}

// parseOpenPositions reads SYMBOL:side pairs
func parseOpenPositions(values []string) ([]risk.OpenPosition, error) {
	out := make([]risk.OpenPosition, 0, len(values))
	for _, v := range values {
		symbol, sideText, found := strings.Cut(v, ":")
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if !found || symbol == "" {
			return nil, fmt.Errorf("invalid open position %q, want SYMBOL:side", v)
		}
		side, ok := types.ParseSide(sideText)
		if !ok {
			return nil, fmt.Errorf("invalid side in open position %q", v)
		}
		out = append(out, risk.OpenPosition{Symbol: symbol, Side: side})
	}
	return out, nil
}
