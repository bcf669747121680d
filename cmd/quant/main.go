// Package main provides the quant CLI: Monte Carlo simulation, backtests,
// parameter sweeps, and the capital model over sold-listing JSON exports.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ledgerengine/quant-backend/internal/data"
	"github.com/ledgerengine/quant-backend/internal/estimator"
	"github.com/ledgerengine/quant-backend/pkg/types"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "backtest":
		err = runBacktest(os.Args[2:])
	case "monte-carlo":
		err = runMonteCarlo(os.Args[2:])
	case "sweep":
		err = runSweep(os.Args[2:])
	case "capital":
		err = runCapital(os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: quant <command> [flags]

Commands:
  backtest     estimate parameters from a Sold JSON export and backtest the
               derived bid/ask strategy on a simulated path
  monte-carlo  run a terminal-price Monte Carlo simulation
  sweep        grid-sweep the discount-buy strategy over exit parameters
  capital      evaluate the capital & profit model

Run 'quant <command> -h' for command flags.
`)
}

func newLogger(verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := config.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

// loadEstimate reads a sold-listing export, cleans outliers, and estimates
// GBM parameters from what survives.
func loadEstimate(logger *zap.Logger, soldPath string, salesPerYear float64) (types.EstimatedParams, []types.TradeComp, error) {
	comps, err := data.NewLoader(logger).LoadFile(soldPath)
	if err != nil {
		return types.EstimatedParams{}, nil, err
	}
	cleaned := estimator.CleanComps(comps)
	params := estimator.New(logger, salesPerYear).Estimate(cleaned)
	return params, cleaned, nil
}

func parseInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", part, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", part, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func seedPtr(seed int64) *int64 {
	if seed == 0 {
		return nil
	}
	return &seed
}
