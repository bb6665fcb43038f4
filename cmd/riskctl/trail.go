package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ducminhle1904/position-risk-engine/internal/trailing"
	"github.com/ducminhle1904/position-risk-engine/pkg/id"
	"github.com/ducminhle1904/position-risk-engine/pkg/types"
)

var trailOpts struct {
	symbol     string
	timeframe  string
	side       string
	entry      float64
	strategy   string
	activation float64
	callback   float64
	multiplier float64
	period     int
	atr        float64
	prices     string
	market     marketFlags
}

var trailCmd = &cobra.Command{
	Use:   "trail",
	Short: "Replay a price path through a trailing stop",
	Example: `  riskctl trail --entry 50000 --activation 1 --callback 0.5 \
    --prices 50400,50500,50700,50600,50400
  riskctl trail --symbol SOLUSDT --entry 150 --strategy atr --atr-multiplier 2 \
    --data ./data --prices 152,155,160,157`,
	Args: cobra.NoArgs,
	RunE: runTrail,
}

func init() {
	rootCmd.AddCommand(trailCmd)
	f := trailCmd.Flags()
	f.StringVar(&trailOpts.symbol, "symbol", "BTCUSDT", "symbol")
	f.StringVarP(&trailOpts.timeframe, "timeframe", "t", "1h", "ATR timeframe")
	f.StringVarP(&trailOpts.side, "side", "s", "long", "long or short")
	f.Float64Var(&trailOpts.entry, "entry", 0, "entry price")
	f.StringVar(&trailOpts.strategy, "strategy", "percentage", "percentage or atr")
	f.Float64Var(&trailOpts.activation, "activation", 1.0, "activation percent")
	f.Float64Var(&trailOpts.callback, "callback", 0.5, "callback percent (percentage strategy)")
	f.Float64Var(&trailOpts.multiplier, "atr-multiplier", 2.0, "ATR multiplier (atr strategy)")
	f.IntVar(&trailOpts.period, "atr-period", 14, "ATR period (atr strategy)")
	f.Float64Var(&trailOpts.atr, "atr", 0, "fixed ATR value instead of market data")
	f.StringVar(&trailOpts.prices, "prices", "", "comma separated price path")
	trailOpts.market.register(trailCmd)
	_ = trailCmd.MarkFlagRequired("entry")
	_ = trailCmd.MarkFlagRequired("prices")
}

// fixedATR serves one ATR value for every symbol
type fixedATR float64

func (f fixedATR) ATR(string, string, int) (float64, bool) { return float64(f), f > 0 }

func runTrail(cmd *cobra.Command, args []string) error {
	side, ok := types.ParseSide(trailOpts.side)
	if !ok {
		return fmt.Errorf("invalid side %q", trailOpts.side)
	}
	prices, err := parsePrices(trailOpts.prices)
	if err != nil {
		return err
	}

	var strategy trailing.Strategy
	var atrSource trailing.ATRSource
	switch strings.ToLower(trailOpts.strategy) {
	case "atr":
		strategy = trailing.ATR{Multiplier: trailOpts.multiplier, Period: trailOpts.period, ActivationPercent: trailOpts.activation}
		if trailOpts.atr > 0 {
			atrSource = fixedATR(trailOpts.atr)
		} else {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			atrSource = trailOpts.market.volatilityFor(ctx, trailOpts.symbol, trailOpts.timeframe, trailOpts.period)
		}
	default:
		strategy, err = trailing.ParseStrategy(trailOpts.strategy, trailOpts.activation, trailOpts.callback)
		if err != nil {
			return err
		}
	}

	tracker := trailing.NewTracker(trailing.NewEngine(atrSource, log))
	positionID := id.New()
	if _, err := tracker.Open(trailing.Position{
		ID:         positionID,
		Symbol:     strings.ToUpper(trailOpts.symbol),
		Timeframe:  trailOpts.timeframe,
		Side:       side,
		EntryPrice: trailOpts.entry,
	}, strategy); err != nil {
		return err
	}

	t := newTable(fmt.Sprintf("TRAILING STOP %s %s (%s)", strings.ToUpper(trailOpts.symbol), side, strategy.Name()))
	t.AppendHeader(table.Row{"#", "Price", "Best", "Phase", "Stop", "Event"})
	for i, price := range prices {
		before, _ := tracker.State(positionID)
		hit, reason := tracker.OnPrice(positionID, price)

		state, open := tracker.State(positionID)
		if !open {
			state = before
		}
		stop := "-"
		if state.StopSet {
			stop = fmt.Sprintf("%.8g", state.StopPrice)
		}
		event := ""
		switch {
		case hit:
			event = reason
		case state.Activated && !before.Activated:
			event = "activated"
		}
		t.AppendRow(table.Row{i + 1, fmt.Sprintf("%.8g", price), fmt.Sprintf("%.8g", state.BestPrice),
			tracker.Phase(positionID), stop, event})
		if hit {
			break
		}
	}
	t.Render()
	return nil
}

func parsePrices(raw string) ([]float64, error) {
	var prices []float64
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q", p)
		}
		prices = append(prices, v)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("no prices given")
	}
	return prices, nil
}
