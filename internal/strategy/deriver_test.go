package strategy

import (
	"testing"

	"go.uber.org/zap"

	"github.com/ledgerengine/quant-backend/internal/montecarlo"
	"github.com/ledgerengine/quant-backend/pkg/types"
)

func simulate(t *testing.T, vol float64) *types.MonteCarloResult {
	t.Helper()
	seed := int64(21)
	engine := montecarlo.NewEngine(zap.NewNop())
	result, err := engine.Run(types.MonteCarloParams{
		InitialPrice: 100,
		Drift:        0.05,
		Volatility:   vol,
		NumPaths:     4000,
		HorizonDays:  30,
		Seed:         &seed,
	})
	if err != nil {
		t.Fatalf("simulation failed: %v", err)
	}
	return result
}

func TestDeriveDefaults(t *testing.T) {
	result := simulate(t, 0.3)
	strat := Derive(result, 0, 0)

	if strat.Method != "percentile_25_75" {
		t.Errorf("method = %q", strat.Method)
	}
	if !(strat.Bid <= strat.FairValue && strat.FairValue <= strat.Ask) {
		t.Errorf("quote ordering violated: bid=%v fv=%v ask=%v", strat.Bid, strat.FairValue, strat.Ask)
	}
	if strat.SpreadPct <= 0 {
		t.Errorf("expected positive spread at vol 0.3, got %v", strat.SpreadPct)
	}
}

func TestDeriveReusesPrecomputedPercentiles(t *testing.T) {
	result := simulate(t, 0.3)
	strat := Derive(result, 25, 75)

	if want := round2(result.Percentiles.P25); strat.Bid != want {
		t.Errorf("bid = %v, want precomputed p25 %v", strat.Bid, want)
	}
	if want := round2(result.Percentiles.P75); strat.Ask != want {
		t.Errorf("ask = %v, want precomputed p75 %v", strat.Ask, want)
	}
}

func TestDeriveCustomPercentiles(t *testing.T) {
	result := simulate(t, 0.3)
	narrow := Derive(result, 40, 60)
	wide := Derive(result, 5, 95)

	if narrow.Ask-narrow.Bid >= wide.Ask-wide.Bid {
		t.Errorf("40/60 spread (%v) should be tighter than 5/95 (%v)",
			narrow.Ask-narrow.Bid, wide.Ask-wide.Bid)
	}
	if narrow.FairValue != wide.FairValue {
		t.Errorf("fair value should not depend on quote percentiles: %v vs %v",
			narrow.FairValue, wide.FairValue)
	}
}

func TestDeriveZeroVolatility(t *testing.T) {
	result := simulate(t, 0)
	strat := Derive(result, 0, 0)

	if strat.Bid != strat.FairValue || strat.Ask != strat.FairValue {
		t.Errorf("degenerate distribution should quote a zero spread: %+v", strat)
	}
	if strat.SpreadPct != 0 {
		t.Errorf("spreadPct = %v, want 0", strat.SpreadPct)
	}
}

func TestDeriveRounding(t *testing.T) {
	result := &types.MonteCarloResult{
		TerminalPrices: []float64{10.111, 10.222, 10.333, 10.444},
		Percentiles:    types.Percentiles{P25: 10.226, P50: 10.334, P75: 10.445},
	}
	strat := Derive(result, 0, 0)

	if strat.Bid != 10.23 || strat.FairValue != 10.33 || strat.Ask != 10.45 {
		t.Errorf("rounding incorrect: %+v", strat)
	}
}
