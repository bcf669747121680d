package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"

	"github.com/ledgerengine/quant-backend/internal/backtester"
	"github.com/ledgerengine/quant-backend/internal/gbm"
	"github.com/ledgerengine/quant-backend/internal/montecarlo"
	"github.com/ledgerengine/quant-backend/internal/strategy"
	"github.com/ledgerengine/quant-backend/pkg/types"
)

// runBacktest chains the whole pipeline: comps -> estimated parameters ->
// Monte Carlo quote -> simulated path -> crossing backtest.
func runBacktest(args []string) error {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	sold := fs.String("sold", "", "Path to Sold listings JSON (required)")
	paths := fs.Int("paths", montecarlo.DefaultNumPaths, "Monte Carlo paths for the quote")
	days := fs.Int("days", 180, "Backtest length in days")
	seed := fs.Int64("seed", 0, "PRNG seed (0 = random)")
	initialCash := fs.Float64("initial-cash", backtester.DefaultInitialCash, "Starting cash")
	maxPosition := fs.Int("max-position", backtester.DefaultMaxPosition, "Max inventory units")
	bidPct := fs.Float64("bid-pct", 25, "Bid percentile")
	askPct := fs.Float64("ask-pct", 75, "Ask percentile")
	salesPerYear := fs.Float64("sales-per-year", 0, "Observed sales per year for annualization")
	verbose := fs.Bool("verbose", false, "Debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *sold == "" {
		return fmt.Errorf("--sold is required")
	}

	logger := newLogger(*verbose)
	defer logger.Sync()

	estimated, comps, err := loadEstimate(logger, *sold, *salesPerYear)
	if err != nil {
		return err
	}
	fmt.Printf("Estimated from %d comps: price=%.2f drift=%.4f vol=%.4f fallback=%v\n",
		len(comps), estimated.InitialPrice, estimated.Drift, estimated.Volatility, estimated.Fallback)

	mcResult, err := montecarlo.NewEngine(logger).Run(types.MonteCarloParams{
		InitialPrice: estimated.InitialPrice,
		Drift:        estimated.Drift,
		Volatility:   estimated.Volatility,
		NumPaths:     *paths,
		HorizonDays:  *days,
		Seed:         seedPtr(*seed),
	})
	if err != nil {
		return err
	}
	quote := strategy.Derive(mcResult, *bidPct, *askPct)
	fmt.Printf("Quote (%s): bid $%.2f / fair $%.2f / ask $%.2f\n\n",
		quote.Method, quote.Bid, quote.FairValue, quote.Ask)

	path, err := gbm.GeneratePath(estimated.InitialPrice, estimated.Drift, estimated.Volatility, *days, seedPtr(*seed))
	if err != nil {
		return err
	}

	result, err := backtester.NewEngine(logger).Run(types.BacktestParams{
		PricePath:   path,
		Bid:         quote.Bid,
		Ask:         quote.Ask,
		InitialCash: *initialCash,
		MaxPosition: *maxPosition,
	})
	if err != nil {
		return err
	}

	printBacktestTable(result, *initialCash)
	return nil
}

func printBacktestTable(result *types.BacktestResult, initialCash float64) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Metric", "Value")
	table.Append("Buys", fmt.Sprintf("%d", result.NumBuys))
	table.Append("Sells", fmt.Sprintf("%d", result.NumSells))
	table.Append("Final cash", fmt.Sprintf("$%.2f", result.FinalCash))
	table.Append("Final position", fmt.Sprintf("%d units ($%.2f MtM)", result.FinalPosition, result.FinalMtM))
	table.Append("Total PnL", fmt.Sprintf("$%.2f", result.TotalPnL))
	table.Append("Return", fmt.Sprintf("%.2f%%", result.ReturnPct*100))
	table.Append("Win rate", fmt.Sprintf("%.1f%%", result.WinRatePct))
	table.Append("Max drawdown", fmt.Sprintf("%.2f%%", result.MaxDrawdownPct))
	table.Append("Sharpe", fmt.Sprintf("%.2f", result.SharpeRatio))
	hold := result.HoldCurve[len(result.HoldCurve)-1] - initialCash
	table.Append("Hold benchmark PnL", fmt.Sprintf("$%.2f", hold))
	table.Render()
}
