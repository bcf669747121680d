package gbm

import (
	"fmt"
	"math"

	"github.com/ledgerengine/quant-backend/pkg/types"
)

// Trading calendar used by the path generator and the terminal-distribution
// engine: prices move every calendar day.
const DaysPerYear = 365.0

// Prices are floored here so downstream log/division never sees a
// non-positive value.
const MinPrice = 0.01

// GeneratePath simulates one continuous GBM price path of numDays+1 points,
// starting at day 0 with initialPrice. The same seed always yields the same
// path. Intended for backtesting; terminal distributions come from the
// montecarlo package instead.
func GeneratePath(initialPrice, drift, volatility float64, numDays int, seed *int64) ([]types.PricePoint, error) {
	if initialPrice <= 0 {
		return nil, fmt.Errorf("gbm: initial price must be positive, got %v", initialPrice)
	}
	if numDays <= 0 {
		return nil, fmt.Errorf("gbm: numDays must be positive, got %d", numDays)
	}
	if volatility < 0 {
		return nil, fmt.Errorf("gbm: volatility must be non-negative, got %v", volatility)
	}

	rng := ForSeed(seed)
	dt := 1.0 / DaysPerYear
	step := (drift - 0.5*volatility*volatility) * dt
	scale := volatility * math.Sqrt(dt)

	path := make([]types.PricePoint, numDays+1)
	path[0] = types.PricePoint{Day: 0, Price: initialPrice}
	price := initialPrice
	for day := 1; day <= numDays; day++ {
		price *= math.Exp(step + scale*rng.NormFloat64())
		if price < MinPrice {
			price = MinPrice
		}
		path[day] = types.PricePoint{Day: day, Price: price}
	}
	return path, nil
}
