package audit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/position-risk-engine/internal/risk"
)

const (
	allocationSheet = "Allocations"
	sizingSheet     = "Sizing"
)

var allocationHeaders = []string{
	"Timestamp", "Symbol", "Timeframe", "Regime", "Volatility", "Base Risk %", "Adjusted Risk %", "Drawdown %",
}

var sizingHeaders = []string{
	"ID", "Timestamp", "Symbol", "Entry", "Stop", "Risk %", "Risk $", "Size $", "Quantity",
	"Leverage", "Small Account", "Liquidity Adjusted", "Slippage %", "Warning",
}

// ExportXLSX writes the allocation history to an Allocations sheet. When
// sizing entries are given a second Sizing sheet is added.
func ExportXLSX(path string, records []risk.RiskAllocationRecord, sizing ...SizingEntry) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	fx.SetSheetName(fx.GetSheetName(0), allocationSheet)

	header, err := headerStyle(fx)
	if err != nil {
		return err
	}

	if err := writeRow(fx, allocationSheet, 1, toCells(allocationHeaders)); err != nil {
		return err
	}
	for i, r := range records {
		drawdown := interface{}("")
		if r.Drawdown != nil {
			drawdown = *r.Drawdown
		}
		row := []interface{}{
			r.Timestamp.Format("2006-01-02 15:04:05"), r.Symbol, r.Timeframe, string(r.MarketRegime),
			r.Volatility, r.BaseRisk, r.AdjustedRisk, drawdown,
		}
		if err := writeRow(fx, allocationSheet, i+2, row); err != nil {
			return err
		}
	}
	if err := styleHeader(fx, allocationSheet, len(allocationHeaders), header); err != nil {
		return err
	}

	if len(sizing) > 0 {
		if _, err := fx.NewSheet(sizingSheet); err != nil {
			return err
		}
		if err := writeRow(fx, sizingSheet, 1, toCells(sizingHeaders)); err != nil {
			return err
		}
		for i, e := range sizing {
			r := e.Result
			row := []interface{}{
				e.ID, e.Timestamp.Format("2006-01-02 15:04:05"), r.Symbol, r.EntryPrice, r.StopLoss,
				r.RiskPercentage, r.RiskAmount, r.PositionSizeUSD, r.Quantity, r.Leverage,
				r.IsSmallAccount, r.LiquidityAdjusted, r.Slippage, r.Warning,
			}
			if err := writeRow(fx, sizingSheet, i+2, row); err != nil {
				return err
			}
		}
		if err := styleHeader(fx, sizingSheet, len(sizingHeaders), header); err != nil {
			return err
		}
	}

	return fx.SaveAs(path)
}

func headerStyle(fx *excelize.File) (int, error) {
	return fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
}

func styleHeader(fx *excelize.File, sheet string, columns, style int) error {
	last, err := excelize.ColumnNumberToName(columns)
	if err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "A1", last+"1", style); err != nil {
		return err
	}
	return fx.SetColWidth(sheet, "A", last, 16)
}

func writeRow(fx *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return fx.SetSheetRow(sheet, cell, &values)
}

func toCells(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
