package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ducminhle1904/position-risk-engine/internal/config"
	"github.com/ducminhle1904/position-risk-engine/internal/portfolio"
)

var allocateOpts struct {
	balance    float64
	method     string
	volatility []string
	volume     []string
	signal     []string
}

var allocateCmd = &cobra.Command{
	Use:   "allocate <symbol>...",
	Short: "Split capital across symbols",
	Example: `  riskctl allocate BTCUSDT ETHUSDT SOLUSDT --method volatility_based \
    --vol BTCUSDT=0.02 --vol ETHUSDT=0.03 --vol SOLUSDT=0.05`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAllocate,
}

func init() {
	rootCmd.AddCommand(allocateCmd)
	f := allocateCmd.Flags()
	f.Float64VarP(&allocateOpts.balance, "balance", "b", 10000, "account balance in USD")
	f.StringVarP(&allocateOpts.method, "method", "m", "", "equal, volatility_based, signal_strength, volume_based (default from config)")
	f.StringArrayVar(&allocateOpts.volatility, "vol", nil, "SYMBOL=volatility")
	f.StringArrayVar(&allocateOpts.volume, "volume", nil, "SYMBOL=24h quote volume")
	f.StringArrayVar(&allocateOpts.signal, "signal", nil, "SYMBOL=signal strength")
}

func runAllocate(cmd *cobra.Command, args []string) error {
	market := make(map[string]portfolio.MarketSnapshot)
	signals := make(map[string]portfolio.Signal)

	if err := parsePairs(allocateOpts.volatility, func(sym string, v float64) {
		m := market[sym]
		m.Volatility = v
		market[sym] = m
	}); err != nil {
		return err
	}
	if err := parsePairs(allocateOpts.volume, func(sym string, v float64) {
		m := market[sym]
		m.Volume24h = v
		market[sym] = m
	}); err != nil {
		return err
	}
	if err := parsePairs(allocateOpts.signal, func(sym string, v float64) {
		signals[sym] = portfolio.Signal{Strength: v}
	}); err != nil {
		return err
	}

	store, err := loadStore()
	if err != nil {
		return err
	}

	var src config.Source = store
	method := store.Get().CapitalAllocation.Method
	if allocateOpts.method != "" {
		method = config.AllocationMethod(allocateOpts.method)
		if !method.Valid() {
			return fmt.Errorf("unknown allocation method %q", allocateOpts.method)
		}
		cfg := store.Get()
		cfg.CapitalAllocation.Method = method
		src = config.Static{Config: cfg}
	}

	symbols := make([]string, len(args))
	for i, a := range args {
		symbols[i] = strings.ToUpper(a)
	}

	allocation := portfolio.NewCapitalAllocator(src, log).
		AllocateCapital(symbols, allocateOpts.balance, market, signals)
	amounts := allocation.Amounts(allocateOpts.balance)

	t := newTable(fmt.Sprintf("CAPITAL ALLOCATION (%s)", method))
	t.AppendHeader(table.Row{"Symbol", "Percent", "Amount"})
	for _, sym := range allocation.Symbols() {
		t.AppendRow(table.Row{sym, fmt.Sprintf("%.4f%%", allocation[sym]), fmt.Sprintf("$%.2f", amounts[sym])})
	}
	t.AppendFooter(table.Row{"Total", fmt.Sprintf("%.4f%%", allocation.Total()), fmt.Sprintf("$%.2f", allocateOpts.balance)})
	t.Render()
	return nil
}

// parsePairs parses SYMBOL=value flags
func parsePairs(pairs []string, set func(symbol string, value float64)) error {
	for _, p := range pairs {
		sym, raw, ok := strings.Cut(p, "=")
		if !ok || sym == "" {
			return fmt.Errorf("expected SYMBOL=value, got %q", p)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid value in %q: %w", p, err)
		}
		set(strings.ToUpper(sym), v)
	}
	return nil
}
