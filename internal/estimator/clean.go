package estimator

import (
	"math"
	"sort"

	"github.com/ledgerengine/quant-backend/internal/montecarlo"
	"github.com/ledgerengine/quant-backend/pkg/types"
)

// Cleaning defaults tuned for marketplace sold exports, where $1 auctions
// and listing errors are common.
const (
	DefaultMinPrice        = 5.0
	DefaultIQRMultiplier   = 1.5
	DefaultPercentileFloor = 1.0
)

// CleanPrices removes outliers from a raw sold-price sample: non-finite
// values, anything below minPrice or the percentileFloor percentile, and
// anything outside [Q1 - iqrMult*IQR, Q3 + iqrMult*IQR]. Samples of two or
// fewer survivors are returned as-is since quartiles are meaningless there.
func CleanPrices(prices []float64, minPrice, iqrMult, percentileFloor float64) []float64 {
	kept := make([]float64, 0, len(prices))
	for _, p := range prices {
		if isFinite(p) && p >= minPrice {
			kept = append(kept, p)
		}
	}
	if len(kept) <= 2 {
		return kept
	}

	sorted := make([]float64, len(kept))
	copy(sorted, kept)
	sort.Float64s(sorted)

	q1 := montecarlo.NearestRank(sorted, 25)
	q3 := montecarlo.NearestRank(sorted, 75)
	iqr := q3 - q1
	if iqr <= 0 {
		if _, sd := sampleMoments(sorted); sd > 0 {
			iqr = sd
		} else {
			iqr = 1e-6
		}
	}

	low := math.Max(minPrice, montecarlo.NearestRank(sorted, percentileFloor))
	low = math.Max(low, q1-iqrMult*iqr)
	high := q3 + iqrMult*iqr

	out := kept[:0]
	for _, p := range kept {
		if p >= low && p <= high {
			out = append(out, p)
		}
	}
	return out
}

// CleanComps applies CleanPrices to a comp series with the default
// thresholds, preserving date order of the surviving comps.
func CleanComps(comps []types.TradeComp) []types.TradeComp {
	prices := make([]float64, len(comps))
	for i, c := range comps {
		prices[i] = c.Price
	}
	cleaned := CleanPrices(prices, DefaultMinPrice, DefaultIQRMultiplier, DefaultPercentileFloor)

	allowed := make(map[float64]int, len(cleaned))
	for _, p := range cleaned {
		allowed[p]++
	}

	out := make([]types.TradeComp, 0, len(cleaned))
	for _, c := range comps {
		if allowed[c.Price] > 0 {
			allowed[c.Price]--
			out = append(out, c)
		}
	}
	return out
}

func sampleMoments(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}
