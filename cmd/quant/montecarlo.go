package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"

	"github.com/ledgerengine/quant-backend/internal/montecarlo"
	"github.com/ledgerengine/quant-backend/internal/strategy"
	"github.com/ledgerengine/quant-backend/pkg/types"
)

func runMonteCarlo(args []string) error {
	fs := flag.NewFlagSet("monte-carlo", flag.ExitOnError)
	sold := fs.String("sold", "", "Path to Sold listings JSON (estimates parameters)")
	price := fs.Float64("price", 100, "Initial price (ignored with --sold)")
	drift := fs.Float64("drift", 0, "Annualized drift (ignored with --sold)")
	vol := fs.Float64("vol", 0.25, "Annualized volatility (ignored with --sold)")
	paths := fs.Int("paths", montecarlo.DefaultNumPaths, "Number of simulated paths")
	horizon := fs.Int("horizon", montecarlo.DefaultHorizonDays, "Horizon in days")
	seed := fs.Int64("seed", 0, "PRNG seed (0 = random)")
	salesPerYear := fs.Float64("sales-per-year", 0, "Observed sales per year for annualization")
	bidPct := fs.Float64("bid-pct", 25, "Bid percentile")
	askPct := fs.Float64("ask-pct", 75, "Ask percentile")
	verbose := fs.Bool("verbose", false, "Debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := newLogger(*verbose)
	defer logger.Sync()

	params := types.MonteCarloParams{
		InitialPrice: *price,
		Drift:        *drift,
		Volatility:   *vol,
		NumPaths:     *paths,
		HorizonDays:  *horizon,
		Seed:         seedPtr(*seed),
	}
	if *sold != "" {
		estimated, comps, err := loadEstimate(logger, *sold, *salesPerYear)
		if err != nil {
			return err
		}
		params.InitialPrice = estimated.InitialPrice
		params.Drift = estimated.Drift
		params.Volatility = estimated.Volatility
		fmt.Printf("Estimated from %d comps: price=%.2f drift=%.4f vol=%.4f liquidity=%.2f fallback=%v\n\n",
			len(comps), estimated.InitialPrice, estimated.Drift, estimated.Volatility,
			estimated.LiquidityScore, estimated.Fallback)
	}

	result, err := montecarlo.NewEngine(logger).Run(params)
	if err != nil {
		return err
	}
	quote := strategy.Derive(result, *bidPct, *askPct)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Metric", "Value")
	table.Append("Paths", fmt.Sprintf("%d", params.NumPaths))
	table.Append("Horizon (days)", fmt.Sprintf("%d", params.HorizonDays))
	table.Append("Mean", fmt.Sprintf("$%.2f", result.Mean))
	table.Append("Std dev", fmt.Sprintf("$%.2f", result.StdDev))
	table.Append("P5", fmt.Sprintf("$%.2f", result.Percentiles.P5))
	table.Append("P25", fmt.Sprintf("$%.2f", result.Percentiles.P25))
	table.Append("P50", fmt.Sprintf("$%.2f", result.Percentiles.P50))
	table.Append("P75", fmt.Sprintf("$%.2f", result.Percentiles.P75))
	table.Append("P95", fmt.Sprintf("$%.2f", result.Percentiles.P95))
	table.Append("P(half or less)", fmt.Sprintf("%.2f%%", result.RuinProbability*100))
	table.Append("P(double or more)", fmt.Sprintf("%.2f%%", result.TargetProbability*100))
	table.Render()

	fmt.Printf("\nQuote (%s): bid $%.2f / fair $%.2f / ask $%.2f (spread %.1f%%)\n",
		quote.Method, quote.Bid, quote.FairValue, quote.Ask, quote.SpreadPct)
	return nil
}
