package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"

	"github.com/ledgerengine/quant-backend/internal/backtester"
	"github.com/ledgerengine/quant-backend/internal/gbm"
	"github.com/ledgerengine/quant-backend/pkg/types"
)

// runSweep grid-sweeps the discount-buy strategy's exit parameters on a
// path simulated from estimated comps (or explicit parameters).
func runSweep(args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	sold := fs.String("sold", "", "Path to Sold listings JSON (estimates parameters)")
	price := fs.Float64("price", 100, "Initial price (ignored with --sold)")
	drift := fs.Float64("drift", 0, "Annualized drift (ignored with --sold)")
	vol := fs.Float64("vol", 0.25, "Annualized volatility (ignored with --sold)")
	days := fs.Int("days", 365, "Backtest length in days")
	seed := fs.Int64("seed", 0, "PRNG seed (0 = random)")
	sellDays := fs.String("sell-days", "7,14,30", "Comma-separated sellAfterDays values")
	targets := fs.String("targets", "0.05,0.10,0.20", "Comma-separated sellTargetPct values")
	discount := fs.Float64("discount", backtester.DefaultBuyDiscountPct, "Buy discount fraction")
	initialCash := fs.Float64("initial-cash", backtester.DefaultInitialCash, "Starting cash")
	maxPosition := fs.Int("max-position", backtester.DefaultMaxPosition, "Max open lots")
	workers := fs.Int("workers", 0, "Sweep workers (0 = NumCPU)")
	salesPerYear := fs.Float64("sales-per-year", 0, "Observed sales per year for annualization")
	verbose := fs.Bool("verbose", false, "Debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := newLogger(*verbose)
	defer logger.Sync()

	sellAfterDays, err := parseInts(*sellDays)
	if err != nil {
		return fmt.Errorf("--sell-days: %w", err)
	}
	sellTargets, err := parseFloats(*targets)
	if err != nil {
		return fmt.Errorf("--targets: %w", err)
	}

	initialPrice, pathDrift, pathVol := *price, *drift, *vol
	if *sold != "" {
		estimated, comps, err := loadEstimate(logger, *sold, *salesPerYear)
		if err != nil {
			return err
		}
		initialPrice, pathDrift, pathVol = estimated.InitialPrice, estimated.Drift, estimated.Volatility
		fmt.Printf("Estimated from %d comps: price=%.2f drift=%.4f vol=%.4f\n\n",
			len(comps), initialPrice, pathDrift, pathVol)
	}

	path, err := gbm.GeneratePath(initialPrice, pathDrift, pathVol, *days, seedPtr(*seed))
	if err != nil {
		return err
	}

	results, err := backtester.NewEngine(logger).RunSweep(types.SweepParams{
		Base: types.BuyDiscountParams{
			PricePath:      path,
			InitialCash:    *initialCash,
			MaxPosition:    *maxPosition,
			BuyDiscountPct: *discount,
		},
		SellAfterDays:  sellAfterDays,
		SellTargetPcts: sellTargets,
	}, *workers, nil)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Sell days", "Target %", "Buys", "Sells", "Open", "PnL", "Return %", "Win %", "Max DD %")
	best := 0
	for i, cell := range results {
		if cell.TotalPnL > results[best].TotalPnL {
			best = i
		}
		table.Append(
			fmt.Sprintf("%d", cell.SellAfterDays),
			fmt.Sprintf("%.0f%%", cell.SellTargetPct*100),
			fmt.Sprintf("%d", cell.NumBuys),
			fmt.Sprintf("%d", cell.NumSells),
			fmt.Sprintf("%d", cell.OpenLots),
			fmt.Sprintf("$%.2f", cell.TotalPnL),
			fmt.Sprintf("%.2f%%", cell.ReturnPct*100),
			fmt.Sprintf("%.1f%%", cell.WinRatePct),
			fmt.Sprintf("%.2f%%", cell.MaxDrawdownPct),
		)
	}
	table.Render()

	fmt.Printf("\nBest cell: sellAfterDays=%d target=%.0f%% PnL=$%.2f\n",
		results[best].SellAfterDays, results[best].SellTargetPct*100, results[best].TotalPnL)
	return nil
}
