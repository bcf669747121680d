// Package capital models the cash requirements and profitability of running
// the market-making strategy at scale: how much monthly volume is captured,
// what it yields, and how much working capital the inventory turnover ties up.
package capital

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Baseline scenario.
var (
	DefaultMonthlyVolume = decimal.NewFromInt(218_000_000)
	DefaultCapturePct    = decimal.NewFromFloat(0.02)
	DefaultYieldPct      = decimal.NewFromFloat(0.08)
)

const DefaultTurnoverDays = 14

// ModelParams are the levers of the capital model. CapturePct and YieldPct
// are fractions (0.05 means 5%).
type ModelParams struct {
	MonthlyVolume decimal.Decimal `json:"monthlyVolume"`
	CapturePct    decimal.Decimal `json:"capturePct"`
	YieldPct      decimal.Decimal `json:"yieldPct"`
	TurnoverDays  int             `json:"turnoverDays"`
}

// DefaultParams returns the baseline scenario.
func DefaultParams() ModelParams {
	return ModelParams{
		MonthlyVolume: DefaultMonthlyVolume,
		CapturePct:    DefaultCapturePct,
		YieldPct:      DefaultYieldPct,
		TurnoverDays:  DefaultTurnoverDays,
	}
}

// ModelResult is the evaluated scenario. MonthlyROIPct is a percentage
// (10 means the monthly gross profit is 10% of the working capital).
type ModelResult struct {
	CapturedVolume         decimal.Decimal `json:"capturedVolume"`
	MonthlyGrossProfit     decimal.Decimal `json:"monthlyGrossProfit"`
	AnnualRunRate          decimal.Decimal `json:"annualRunRate"`
	RequiredWorkingCapital decimal.Decimal `json:"requiredWorkingCapital"`
	MonthlyROIPct          decimal.Decimal `json:"monthlyRoiPct"`
}

var (
	twelve  = decimal.NewFromInt(12)
	thirty  = decimal.NewFromInt(30)
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Evaluate computes the scenario. Working capital scales the captured volume
// by turnoverDays/30: the faster inventory turns, the less cash a month of
// volume requires.
func Evaluate(params ModelParams) (*ModelResult, error) {
	if params.MonthlyVolume.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("capital: monthlyVolume must be positive, got %s", params.MonthlyVolume)
	}
	if params.CapturePct.LessThanOrEqual(decimal.Zero) || params.CapturePct.GreaterThan(one) {
		return nil, fmt.Errorf("capital: capturePct must be in (0, 1], got %s", params.CapturePct)
	}
	if params.YieldPct.LessThanOrEqual(decimal.Zero) || params.YieldPct.GreaterThan(one) {
		return nil, fmt.Errorf("capital: yieldPct must be in (0, 1], got %s", params.YieldPct)
	}
	if params.TurnoverDays <= 0 {
		return nil, fmt.Errorf("capital: turnoverDays must be positive, got %d", params.TurnoverDays)
	}

	captured := params.MonthlyVolume.Mul(params.CapturePct)
	gross := captured.Mul(params.YieldPct)
	workingCapital := captured.Mul(decimal.NewFromInt(int64(params.TurnoverDays))).Div(thirty)

	result := &ModelResult{
		CapturedVolume:         captured,
		MonthlyGrossProfit:     gross,
		AnnualRunRate:          gross.Mul(twelve),
		RequiredWorkingCapital: workingCapital,
	}
	if workingCapital.IsPositive() {
		result.MonthlyROIPct = gross.Div(workingCapital).Mul(hundred)
	}
	return result, nil
}

// SensitivityCell is one capture/yield combination's monthly gross profit.
type SensitivityCell struct {
	CapturePct decimal.Decimal `json:"capturePct"`
	YieldPct   decimal.Decimal `json:"yieldPct"`
	Profit     decimal.Decimal `json:"profit"`
}

// SensitivityGrid evaluates monthly gross profit for every capture x yield
// combination at the given volume. Rows iterate captures, columns yields.
func SensitivityGrid(volume decimal.Decimal, captures, yields []decimal.Decimal) [][]SensitivityCell {
	grid := make([][]SensitivityCell, len(captures))
	for i, capture := range captures {
		row := make([]SensitivityCell, len(yields))
		for j, y := range yields {
			row[j] = SensitivityCell{
				CapturePct: capture,
				YieldPct:   y,
				Profit:     volume.Mul(capture).Mul(y),
			}
		}
		grid[i] = row
	}
	return grid
}
