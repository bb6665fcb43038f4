package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/position-risk-engine/internal/risk"
)

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

func keyValueColumns(t table.Writer) {
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 22, Align: text.AlignLeft},
		{Number: 2, WidthMin: 20, WidthMax: 60, Align: text.AlignLeft},
	})
}

func printSizing(r risk.PositionSizingResult) {
	t := newTable("POSITION SIZE " + r.Symbol)
	t.AppendRows([]table.Row{
		{"Entry", fmt.Sprintf("%.8g", r.EntryPrice)},
		{"Stop loss", fmt.Sprintf("%.8g", r.StopLoss)},
		{"Risk", fmt.Sprintf("%.4f%% ($%.2f)", r.RiskPercentage, r.RiskAmount)},
		{"Account balance", fmt.Sprintf("$%.2f", r.AccountBalance)},
		{"Small account", r.IsSmallAccount},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Position size", fmt.Sprintf("$%.2f", r.PositionSizeUSD)},
		{"Quantity", fmt.Sprintf("%.8g", r.Quantity)},
		{"Leverage", fmt.Sprintf("%.2fx", r.Leverage)},
	})
	if r.LiquidityAdjusted {
		t.AppendRow(table.Row{"Before liquidity cut", fmt.Sprintf("$%.2f", r.OriginalPositionSizeUSD)})
	}
	if r.Slippage > 0 {
		t.AppendRow(table.Row{"Expected slippage", fmt.Sprintf("%.4f%%", r.Slippage)})
	}
	if r.Warning != "" {
		t.AppendSeparator()
		t.AppendRow(table.Row{"Warning", r.Warning})
	}
	keyValueColumns(t)
	t.Render()
}

func printRecords(title string, records []risk.RiskAllocationRecord) {
	t := newTable(title)
	t.AppendHeader(table.Row{"Time", "Symbol", "TF", "Regime", "Volatility", "Base %", "Adjusted %", "Drawdown %"})
	for _, r := range records {
		drawdown := "-"
		if r.Drawdown != nil {
			drawdown = fmt.Sprintf("%.2f", *r.Drawdown)
		}
		regime := string(r.MarketRegime)
		if regime == "" {
			regime = "-"
		}
		t.AppendRow(table.Row{
			r.Timestamp.Format("2006-01-02 15:04:05"), r.Symbol, r.Timeframe, regime,
			fmt.Sprintf("%.5f", r.Volatility), fmt.Sprintf("%.4f", r.BaseRisk),
			fmt.Sprintf("%.4f", r.AdjustedRisk), drawdown,
		})
	}
	t.Render()
}
