// Package montecarlo draws terminal-price distributions for GBM assets.
// The terminal distribution is known in closed form, so paths are never
// simulated day by day here; each draw samples the lognormal terminal price
// directly.
package montecarlo

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/ledgerengine/quant-backend/internal/gbm"
	"github.com/ledgerengine/quant-backend/pkg/types"
)

// Defaults callers may rely on when they leave params zero-valued.
const (
	DefaultNumPaths    = 5000
	DefaultHorizonDays = 30
)

// Ruin and target levels for the tail probabilities, as fractions of the
// initial price.
const (
	ruinFraction   = 0.5
	targetMultiple = 2.0
)

// Engine runs terminal-distribution Monte Carlo simulations. Every run is a
// pure computation over its params; the engine itself holds no state between
// runs, so a single Engine may serve concurrent callers.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a Monte Carlo engine.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// Run draws params.NumPaths independent terminal prices, sorts them
// ascending, and derives the summary statistics. Percentiles use the
// nearest-rank method (index floor(q/100*n), clamped), not interpolation;
// at small NumPaths this differs from interpolated percentiles and is kept
// deliberately for compatibility with existing strategy output.
//
// A fixed seed makes the whole result byte-identical across runs and
// platforms. Zero volatility collapses the distribution to the single point
// initialPrice*exp(drift*T).
func (e *Engine) Run(params types.MonteCarloParams) (*types.MonteCarloResult, error) {
	if err := validate(params); err != nil {
		return nil, err
	}

	rng := gbm.ForSeed(params.Seed)
	T := float64(params.HorizonDays) / gbm.DaysPerYear
	step := (params.Drift - 0.5*params.Volatility*params.Volatility) * T
	scale := params.Volatility * math.Sqrt(T)

	terminal := make([]float64, params.NumPaths)
	for i := range terminal {
		terminal[i] = params.InitialPrice * math.Exp(step+scale*rng.NormFloat64())
	}
	sort.Float64s(terminal)

	mean, stdDev := momentsOf(terminal)
	result := &types.MonteCarloResult{
		TerminalPrices: terminal,
		Percentiles: types.Percentiles{
			P5:  NearestRank(terminal, 5),
			P25: NearestRank(terminal, 25),
			P50: NearestRank(terminal, 50),
			P75: NearestRank(terminal, 75),
			P95: NearestRank(terminal, 95),
		},
		Mean:              mean,
		StdDev:            stdDev,
		RuinProbability:   tailShare(terminal, params.InitialPrice*ruinFraction, true),
		TargetProbability: tailShare(terminal, params.InitialPrice*targetMultiple, false),
		Params:            params,
	}

	e.logger.Debug("monte carlo run complete",
		zap.Int("num_paths", params.NumPaths),
		zap.Int("horizon_days", params.HorizonDays),
		zap.Float64("mean", result.Mean),
		zap.Float64("p50", result.Percentiles.P50),
	)

	return result, nil
}

// NearestRank returns the q-th percentile of a sorted ascending slice using
// nearest-rank indexing.
func NearestRank(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Floor(q / 100 * float64(len(sorted))))
	if idx < 0 {
		idx = 0
	}
	if idx > len(sorted)-1 {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func validate(params types.MonteCarloParams) error {
	if params.NumPaths <= 0 {
		return fmt.Errorf("montecarlo: numPaths must be positive, got %d", params.NumPaths)
	}
	if params.HorizonDays <= 0 {
		return fmt.Errorf("montecarlo: horizonDays must be positive, got %d", params.HorizonDays)
	}
	if params.InitialPrice <= 0 {
		return fmt.Errorf("montecarlo: initialPrice must be positive, got %v", params.InitialPrice)
	}
	if params.Volatility < 0 {
		return fmt.Errorf("montecarlo: volatility must be non-negative, got %v", params.Volatility)
	}
	return nil
}

// momentsOf computes the mean and population standard deviation.
func momentsOf(values []float64) (mean, stdDev float64) {
	n := float64(len(values))
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean = sum / n

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= n
	return mean, math.Sqrt(variance)
}

// tailShare returns the fraction of values below (or at/above) the level.
func tailShare(sorted []float64, level float64, below bool) float64 {
	idx := sort.SearchFloat64s(sorted, level)
	if below {
		return float64(idx) / float64(len(sorted))
	}
	return float64(len(sorted)-idx) / float64(len(sorted))
}
