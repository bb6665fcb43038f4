package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ducminhle1904/position-risk-engine/internal/audit"
)

var historyOpts struct {
	limit  int
	export string
	sizing bool
}

var historyCmd = &cobra.Command{
	Use:   "history [symbol]",
	Short: "Show stored risk calculations from the audit database",
	Long: `Reads the audit database named by RISK_AUDIT_DB. --export writes the
allocation records (and with --sizing the sizing results) to an XLSX file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	f := historyCmd.Flags()
	f.IntVarP(&historyOpts.limit, "limit", "n", 20, "number of most recent rows; 0 for all")
	f.StringVar(&historyOpts.export, "export", "", "write an XLSX report to this path")
	f.BoolVar(&historyOpts.sizing, "sizing", false, "include sizing results")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if app.AuditDBPath == "" {
		return fmt.Errorf("RISK_AUDIT_DB is not set")
	}
	symbol := ""
	if len(args) == 1 {
		symbol = strings.ToUpper(args[0])
	}

	store, err := audit.Open(app.AuditDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	records, err := store.ListAllocationRecords(ctx, symbol, historyOpts.limit)
	if err != nil {
		return err
	}
	printRecords("RISK HISTORY", records)

	var sizing []audit.SizingEntry
	if historyOpts.sizing {
		sizing, err = store.ListSizingResults(ctx, symbol, historyOpts.limit)
		if err != nil {
			return err
		}
		t := newTable("SIZING RESULTS")
		t.AppendHeader(table.Row{"ID", "Time", "Symbol", "Risk %", "Size $", "Quantity", "Adjusted", "Warning"})
		for _, e := range sizing {
			r := e.Result
			t.AppendRow(table.Row{e.ID, e.Timestamp.Format("2006-01-02 15:04:05"), r.Symbol,
				fmt.Sprintf("%.4f", r.RiskPercentage), fmt.Sprintf("%.2f", r.PositionSizeUSD),
				fmt.Sprintf("%.8g", r.Quantity), r.LiquidityAdjusted, r.Warning})
		}
		t.Render()
	}

	if historyOpts.export != "" {
		if err := audit.ExportXLSX(historyOpts.export, records, sizing...); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		fmt.Printf("exported %d records to %s\n", len(records), historyOpts.export)
	}
	return nil
}
