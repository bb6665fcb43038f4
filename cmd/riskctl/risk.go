package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/position-risk-engine/internal/risk"
)

var riskOpts struct {
	timeframe  string
	regime     string
	balance    float64
	drawdown   float64
	equity     equityFlags
	volatility float64
	market     marketFlags
}

var riskCmd = &cobra.Command{
	Use:   "risk <symbol>",
	Short: "Compute the adaptive risk percentage for a trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runRisk,
}

func init() {
	rootCmd.AddCommand(riskCmd)
	f := riskCmd.Flags()
	f.StringVarP(&riskOpts.timeframe, "timeframe", "t", "1h", "candle timeframe")
	f.StringVarP(&riskOpts.regime, "regime", "r", "", "market regime: trending, ranging, volatile, quiet or auto")
	f.Float64VarP(&riskOpts.balance, "balance", "b", 10000, "account balance in USD")
	f.Float64Var(&riskOpts.drawdown, "drawdown", -1, "current drawdown percent (negative means unknown)")
	riskOpts.equity.register(riskCmd)
	f.Float64Var(&riskOpts.volatility, "volatility", 0, "use this normalized volatility instead of market data")
	riskOpts.market.register(riskCmd)
}

func runRisk(cmd *cobra.Command, args []string) error {
	symbol := strings.ToUpper(args[0])
	ctx, cancel := commandContext(cmd)
	defer cancel()

	store, err := loadStore()
	if err != nil {
		return err
	}

	var vol risk.VolatilitySource
	if riskOpts.volatility > 0 {
		vol = risk.FixedVolatility(riskOpts.volatility)
	} else {
		vol = riskOpts.market.volatilityFor(ctx, symbol, riskOpts.timeframe, 0)
	}

	engine := risk.NewEngine(store, vol, log)
	pct := engine.CalculateRiskPercentage(symbol, riskOpts.timeframe,
		riskOpts.market.regimeFor(ctx, riskOpts.regime, symbol, riskOpts.timeframe), riskOpts.balance, riskOpts.equity.drawdown(riskOpts.drawdown))

	records := engine.History().Records()
	printRecords("RISK "+symbol, records)
	fmt.Printf("risk %.4f%% of $%.2f = $%.2f\n", pct, riskOpts.balance, riskOpts.balance*pct/100)

	return saveRecords(cmd, records)
}

// equityFlags derive the drawdown from an equity curve instead of --drawdown
type equityFlags struct {
	peak   float64
	equity []float64
}

func (e *equityFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&e.peak, "equity-peak", 0, "highest account equity seen")
	cmd.Flags().Float64SliceVar(&e.equity, "equity", nil, "account equity values since the peak, oldest first")
}

// drawdown replays the equity curve through a DrawdownTracker. Without one
// it falls back to the explicit --drawdown value.
func (e *equityFlags) drawdown(explicit float64) *float64 {
	if e.peak <= 0 && len(e.equity) == 0 {
		return optionalDrawdown(explicit)
	}

	tracker := risk.NewDrawdownTracker()
	if e.peak > 0 {
		tracker.Update(e.peak)
	}
	for _, v := range e.equity {
		tracker.Update(v)
	}
	if dd := tracker.Current(); dd != nil {
		log.Debug("drawdown %.2f%% from equity curve (max %.2f%%)", *dd, tracker.Max())
		return dd
	}
	return optionalDrawdown(explicit)
}

func optionalDrawdown(v float64) *float64 {
	if v < 0 {
		return nil
	}
	return &v
}

func saveRecords(cmd *cobra.Command, records []risk.RiskAllocationRecord) error {
	store, err := openAudit()
	if err != nil || store == nil {
		return err
	}
	defer store.Close()
	return store.SaveAllocationRecords(cmd.Context(), records)
}
