package montecarlo

import (
	"math"
	"sort"
	"testing"

	"go.uber.org/zap"

	"github.com/ledgerengine/quant-backend/pkg/types"
)

func seeded(s int64) *int64 { return &s }

func TestRunDeterminism(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	params := types.MonteCarloParams{
		InitialPrice: 100,
		Drift:        0.05,
		Volatility:   0.3,
		NumPaths:     2000,
		HorizonDays:  30,
		Seed:         seeded(1234),
	}

	a, err := engine.Run(params)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	b, err := engine.Run(params)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for i := range a.TerminalPrices {
		if a.TerminalPrices[i] != b.TerminalPrices[i] {
			t.Fatalf("terminal price %d diverged: %v vs %v", i, a.TerminalPrices[i], b.TerminalPrices[i])
		}
	}
	if a.Mean != b.Mean || a.StdDev != b.StdDev {
		t.Error("summary statistics diverged between identical runs")
	}
}

func TestRunPercentileOrdering(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	result, err := engine.Run(types.MonteCarloParams{
		InitialPrice: 50,
		Drift:        0.1,
		Volatility:   0.4,
		NumPaths:     5000,
		HorizonDays:  90,
		Seed:         seeded(7),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	p := result.Percentiles
	if !(p.P5 <= p.P25 && p.P25 <= p.P50 && p.P50 <= p.P75 && p.P75 <= p.P95) {
		t.Errorf("percentiles out of order: %+v", p)
	}
	if !sort.Float64sAreSorted(result.TerminalPrices) {
		t.Error("terminal prices not sorted ascending")
	}
	if len(result.TerminalPrices) != 5000 {
		t.Errorf("expected 5000 terminal prices, got %d", len(result.TerminalPrices))
	}
}

func TestRunZeroVolatility(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	result, err := engine.Run(types.MonteCarloParams{
		InitialPrice: 100,
		Drift:        0.05,
		Volatility:   0,
		NumPaths:     100,
		HorizonDays:  365,
		Seed:         seeded(1),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := 100 * math.Exp(0.05)
	p := result.Percentiles
	for name, got := range map[string]float64{
		"p5": p.P5, "p25": p.P25, "p50": p.P50, "p75": p.P75, "p95": p.P95,
	} {
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
	if result.StdDev > 1e-9 {
		t.Errorf("stdDev = %v, want 0", result.StdDev)
	}
}

func TestRunMeanConvergence(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	result, err := engine.Run(types.MonteCarloParams{
		InitialPrice: 100,
		Drift:        0.05,
		Volatility:   0.3,
		NumPaths:     10000,
		HorizonDays:  365,
		Seed:         seeded(42),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := 100 * math.Exp(0.05)
	if rel := math.Abs(result.Mean-want) / want; rel > 0.03 {
		t.Errorf("mean terminal price %v deviates %.1f%% from %v", result.Mean, rel*100, want)
	}
}

func TestRunInvalidParams(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	cases := []struct {
		name   string
		params types.MonteCarloParams
	}{
		{"zero paths", types.MonteCarloParams{InitialPrice: 100, NumPaths: 0, HorizonDays: 30}},
		{"negative paths", types.MonteCarloParams{InitialPrice: 100, NumPaths: -5, HorizonDays: 30}},
		{"zero horizon", types.MonteCarloParams{InitialPrice: 100, NumPaths: 100, HorizonDays: 0}},
		{"zero initial price", types.MonteCarloParams{InitialPrice: 0, NumPaths: 100, HorizonDays: 30}},
		{"negative volatility", types.MonteCarloParams{InitialPrice: 100, Volatility: -0.1, NumPaths: 100, HorizonDays: 30}},
	}
	for _, tc := range cases {
		if _, err := engine.Run(tc.params); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestNearestRank(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}

	// floor(50/100 * 4) = 2 -> 30; floor(95/100 * 4) = 3 -> 40.
	if got := NearestRank(sorted, 50); got != 30 {
		t.Errorf("p50 = %v, want 30", got)
	}
	if got := NearestRank(sorted, 95); got != 40 {
		t.Errorf("p95 = %v, want 40", got)
	}
	if got := NearestRank(sorted, 100); got != 40 {
		t.Errorf("p100 = %v, want clamp to 40", got)
	}
	if got := NearestRank(sorted, 0); got != 10 {
		t.Errorf("p0 = %v, want 10", got)
	}
	if got := NearestRank(nil, 50); got != 0 {
		t.Errorf("empty slice = %v, want 0", got)
	}
}

func TestRuinAndTargetProbabilities(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	result, err := engine.Run(types.MonteCarloParams{
		InitialPrice: 100,
		Drift:        0,
		Volatility:   0.8,
		NumPaths:     5000,
		HorizonDays:  365,
		Seed:         seeded(5),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.RuinProbability < 0 || result.RuinProbability > 1 {
		t.Errorf("ruin probability out of range: %v", result.RuinProbability)
	}
	if result.TargetProbability < 0 || result.TargetProbability > 1 {
		t.Errorf("target probability out of range: %v", result.TargetProbability)
	}
	// High volatility with no drift must put mass in both tails.
	if result.RuinProbability == 0 {
		t.Error("expected non-zero ruin probability at volatility 0.8")
	}
	if result.TargetProbability == 0 {
		t.Error("expected non-zero target probability at volatility 0.8")
	}
}
