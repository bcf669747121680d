// Package strategy derives market-making quotes from simulated terminal
// distributions.
package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ledgerengine/quant-backend/internal/montecarlo"
	"github.com/ledgerengine/quant-backend/pkg/types"
)

// Default quote percentiles.
const (
	DefaultBidPercentile = 25.0
	DefaultAskPercentile = 75.0
)

// Derive turns a terminal-price distribution into a pricing strategy. Fair
// value is always the 50th percentile. Bid and ask use the requested
// percentiles; zero values select the 25/75 defaults, in which case the
// result's precomputed percentile fields are reused for exactness. Any other
// percentile is recomputed from the sorted terminal slice with the same
// nearest-rank indexing the engine uses, so strategies stay internally
// consistent regardless of which cuts are requested.
//
// Quoted prices are rounded to 2 decimal places.
func Derive(result *types.MonteCarloResult, bidPercentile, askPercentile float64) types.PricingStrategy {
	if bidPercentile == 0 {
		bidPercentile = DefaultBidPercentile
	}
	if askPercentile == 0 {
		askPercentile = DefaultAskPercentile
	}

	fairValue := result.Percentiles.P50

	var bid, ask float64
	if bidPercentile == DefaultBidPercentile && askPercentile == DefaultAskPercentile {
		bid = result.Percentiles.P25
		ask = result.Percentiles.P75
	} else {
		bid = montecarlo.NearestRank(result.TerminalPrices, bidPercentile)
		ask = montecarlo.NearestRank(result.TerminalPrices, askPercentile)
	}

	spreadPct := 0.0
	if fairValue > 0 {
		spreadPct = (ask - bid) / fairValue * 100
	}

	return types.PricingStrategy{
		FairValue: round2(fairValue),
		Bid:       round2(bid),
		Ask:       round2(ask),
		SpreadPct: spreadPct,
		Method:    fmt.Sprintf("percentile_%g_%g", bidPercentile, askPercentile),
	}
}

// round2 rounds to currency precision.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
