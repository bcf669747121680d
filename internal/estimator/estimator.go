// Package estimator derives GBM simulation inputs (initial price, drift,
// volatility) from historical sold comps.
package estimator

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/ledgerengine/quant-backend/pkg/types"
)

const (
	// DefaultSalesPerYear is the assumed observation frequency used to
	// annualize per-transition statistics. Sold comps for a single card
	// arrive roughly monthly.
	DefaultSalesPerYear = 12.0

	// FallbackVolatility is the conservative default substituted when the
	// series is too sparse to estimate from.
	FallbackVolatility = 0.25

	// MinVolatility floors the estimate so near-flat comp series do not
	// produce degenerate simulations.
	MinVolatility = 0.1
)

// Estimator computes simulation parameters from comp series.
type Estimator struct {
	logger       *zap.Logger
	salesPerYear float64
}

// New creates an estimator. salesPerYear <= 0 selects the default.
func New(logger *zap.Logger, salesPerYear float64) *Estimator {
	if salesPerYear <= 0 {
		salesPerYear = DefaultSalesPerYear
	}
	return &Estimator{logger: logger, salesPerYear: salesPerYear}
}

// Estimate sorts the comps by date and derives annualized drift and
// volatility from consecutive log returns. Transitions whose prior price is
// non-positive are skipped. With fewer than two observations, no valid
// returns, or any non-finite intermediate, the conservative fallback
// (drift 0, volatility 0.25) is returned with the last known price.
func (e *Estimator) Estimate(comps []types.TradeComp) types.EstimatedParams {
	sorted := make([]types.TradeComp, len(comps))
	copy(sorted, comps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	lastPrice := 0.0
	if len(sorted) > 0 {
		lastPrice = sorted[len(sorted)-1].Price
	}

	if len(sorted) < 2 {
		return e.fallback(lastPrice, len(sorted))
	}

	var returns []float64
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1].Price
		if prev <= 0 || sorted[i].Price <= 0 {
			continue
		}
		returns = append(returns, math.Log(sorted[i].Price/prev))
	}
	if len(returns) == 0 {
		return e.fallback(lastPrice, len(sorted))
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		diff := r - mean
		variance += diff * diff
	}
	variance /= float64(len(returns))

	drift := mean * e.salesPerYear
	volatility := math.Sqrt(variance) * math.Sqrt(e.salesPerYear)
	if volatility < MinVolatility {
		volatility = MinVolatility
	}

	if !isFinite(drift) || !isFinite(volatility) || !isFinite(lastPrice) {
		return e.fallback(lastPrice, len(sorted))
	}

	params := types.EstimatedParams{
		InitialPrice:   lastPrice,
		Drift:          drift,
		Volatility:     volatility,
		LiquidityScore: liquidityOf(sorted),
		Observations:   len(sorted),
	}

	e.logger.Debug("estimated simulation parameters",
		zap.Float64("initial_price", params.InitialPrice),
		zap.Float64("drift", params.Drift),
		zap.Float64("volatility", params.Volatility),
		zap.Int("observations", params.Observations),
	)

	return params
}

func (e *Estimator) fallback(lastPrice float64, observations int) types.EstimatedParams {
	if !isFinite(lastPrice) {
		lastPrice = 0
	}
	e.logger.Debug("estimator falling back to defaults",
		zap.Int("observations", observations),
	)
	return types.EstimatedParams{
		InitialPrice:   lastPrice,
		Drift:          0,
		Volatility:     FallbackVolatility,
		Observations:   observations,
		Fallback:       true,
		LiquidityScore: 0,
	}
}

// liquidityOf scores sales velocity into [0, 1]: about 10 sales per month
// saturates the score.
func liquidityOf(sorted []types.TradeComp) float64 {
	if len(sorted) < 2 {
		return 0
	}
	spanDays := sorted[len(sorted)-1].Date.Sub(sorted[0].Date).Hours() / 24
	return LiquidityScore(len(sorted), spanDays)
}

// LiquidityScore normalizes sales-per-month into [0, 1].
func LiquidityScore(numSales int, spanDays float64) float64 {
	if spanDays < 1 {
		spanDays = 1
	}
	salesPerMonth := float64(numSales) / (spanDays / 30)
	score := salesPerMonth / 10
	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
