package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/ledgerengine/quant-backend/internal/capital"
)

// runCapital evaluates the capital & profit model and prints the
// capture/yield sensitivity grid.
func runCapital(args []string) error {
	fs := flag.NewFlagSet("capital", flag.ExitOnError)
	volume := fs.Float64("volume", 218_000_000, "Total monthly market volume in dollars")
	capture := fs.Float64("capture", 0.02, "Market capture fraction")
	yieldPct := fs.Float64("yield", 0.08, "Total yield fraction (sourcing alpha + spread)")
	turnover := fs.Int("turnover", capital.DefaultTurnoverDays, "Inventory turnover in days")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := capital.Evaluate(capital.ModelParams{
		MonthlyVolume: decimal.NewFromFloat(*volume),
		CapturePct:    decimal.NewFromFloat(*capture),
		YieldPct:      decimal.NewFromFloat(*yieldPct),
		TurnoverDays:  *turnover,
	})
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Metric", "Value")
	table.Append("Captured volume", "$"+result.CapturedVolume.Round(0).String())
	table.Append("Monthly gross profit", "$"+result.MonthlyGrossProfit.Round(0).String())
	table.Append("Annualized run rate", "$"+result.AnnualRunRate.Round(0).String())
	table.Append("Required working capital", "$"+result.RequiredWorkingCapital.Round(0).String())
	table.Append("Monthly ROI on capital", result.MonthlyROIPct.Round(1).String()+"%")
	table.Render()

	captures := []decimal.Decimal{
		decimal.NewFromFloat(0.01),
		decimal.NewFromFloat(0.05),
		decimal.NewFromFloat(0.10),
		decimal.NewFromFloat(0.15),
	}
	yields := []decimal.Decimal{
		decimal.NewFromFloat(0.05),
		decimal.NewFromFloat(0.10),
		decimal.NewFromFloat(0.15),
	}
	grid := capital.SensitivityGrid(decimal.NewFromFloat(*volume), captures, yields)

	fmt.Println("\nMonthly profit by capture (rows) and yield (columns):")
	sens := tablewriter.NewWriter(os.Stdout)
	sens.Header("Capture", "Yield 5%", "Yield 10%", "Yield 15%")
	for i, row := range grid {
		cells := make([]interface{}, 0, len(row)+1)
		cells = append(cells, captures[i].Mul(decimal.NewFromInt(100)).String()+"%")
		for _, cell := range row {
			cells = append(cells, "$"+cell.Profit.Round(0).String())
		}
		sens.Append(cells...)
	}
	sens.Render()
	return nil
}
