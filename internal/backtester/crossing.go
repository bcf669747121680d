// Package backtester replays pricing strategies against day-indexed price
// paths and reports performance. Two engines live here: a fixed bid/ask
// crossing backtester with average-cost accounting, and a discount-buy
// backtester with FIFO lot accounting plus a parameter grid sweep.
package backtester

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/ledgerengine/quant-backend/pkg/types"
)

// Backtester defaults.
const (
	DefaultInitialCash = 10000.0
	DefaultMaxPosition = 10
	DefaultTradeSize   = 1
)

// Engine replays strategies against price paths. Each Run is a pure pass
// over its inputs; one Engine may serve concurrent callers.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a backtest engine.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// Run replays a fixed bid/ask strategy over the price path, one transition
// per day. Buys are evaluated before sells, so a day never both buys and
// sells. An empty path yields a zero-activity result. Bid >= ask is not
// rejected here; such quotes churn buy/sell rapidly and enforcing a sane
// spread is the caller's job.
func (e *Engine) Run(params types.BacktestParams) (*types.BacktestResult, error) {
	if err := applyBacktestDefaults(&params.InitialCash, &params.MaxPosition, &params.TradeSize); err != nil {
		return nil, err
	}
	if params.Bid >= params.Ask {
		e.logger.Warn("bid/ask spread is crossed or zero; expect churn",
			zap.Float64("bid", params.Bid),
			zap.Float64("ask", params.Ask),
		)
	}

	var (
		cash      = params.InitialCash
		position  = 0
		totalCost = 0.0
		size      = params.TradeSize
		steps     = make([]types.BacktestStep, 0, len(params.PricePath))
		sellPnls  []float64
		numBuys   int
		numSells  int
	)

	dd := newDrawdownTracker(params.InitialCash)
	equityCurve := []float64{params.InitialCash}

	for _, point := range params.PricePath {
		step := types.BacktestStep{
			Day:            point.Day,
			Price:          point.Price,
			Action:         types.ActionHold,
			PositionBefore: position,
			CashBefore:     cash,
		}

		cost := point.Price * float64(size)
		switch {
		case point.Price <= params.Bid && position+size <= params.MaxPosition && cash >= cost:
			cash -= cost
			totalCost += cost
			position += size
			step.Action = types.ActionBuy
			numBuys++

		case point.Price >= params.Ask && position >= size:
			avgCost := totalCost / float64(position)
			soldCost := avgCost * float64(size)
			totalCost -= soldCost
			cash += cost
			position -= size
			pnl := cost - soldCost
			step.Action = types.ActionSell
			step.PnLRealized = pnl
			sellPnls = append(sellPnls, pnl)
			numSells++
		}

		step.PositionAfter = position
		step.CashAfter = cash
		steps = append(steps, step)

		equity := cash + float64(position)*point.Price
		equityCurve = append(equityCurve, equity)
		dd.observe(equity)
	}

	result := &types.BacktestResult{
		Steps:          steps,
		FinalCash:      cash,
		FinalPosition:  position,
		NumBuys:        numBuys,
		NumSells:       numSells,
		MaxDrawdownPct: dd.maxPct(),
		WinRatePct:     winRatePct(sellPnls),
		EquityCurve:    equityCurve,
		HoldCurve:      holdCurve(params.PricePath, params.InitialCash),
		SharpeRatio:    sharpeRatio(equityCurve),
	}
	if n := len(params.PricePath); n > 0 {
		result.FinalMtM = float64(position) * params.PricePath[n-1].Price
	}
	result.TotalPnL = result.FinalCash + result.FinalMtM - params.InitialCash
	if params.InitialCash > 0 {
		result.ReturnPct = result.TotalPnL / params.InitialCash
	}

	e.logger.Debug("crossing backtest complete",
		zap.Int("days", len(params.PricePath)),
		zap.Int("buys", numBuys),
		zap.Int("sells", numSells),
		zap.Float64("total_pnl", result.TotalPnL),
	)

	return result, nil
}

func applyBacktestDefaults(initialCash *float64, maxPosition, tradeSize *int) error {
	if *initialCash < 0 {
		return fmt.Errorf("backtester: initialCash must be non-negative, got %v", *initialCash)
	}
	if *initialCash == 0 {
		*initialCash = DefaultInitialCash
	}
	if *maxPosition < 0 {
		return fmt.Errorf("backtester: maxPosition must be positive, got %d", *maxPosition)
	}
	if *maxPosition == 0 {
		*maxPosition = DefaultMaxPosition
	}
	if *tradeSize < 0 {
		return fmt.Errorf("backtester: tradeSize must be positive, got %d", *tradeSize)
	}
	if *tradeSize == 0 {
		*tradeSize = DefaultTradeSize
	}
	return nil
}

// drawdownTracker keeps the running peak equity and the worst percentage
// decline from it.
type drawdownTracker struct {
	peak  float64
	worst float64
}

func newDrawdownTracker(initial float64) *drawdownTracker {
	return &drawdownTracker{peak: initial}
}

func (d *drawdownTracker) observe(equity float64) {
	if equity > d.peak {
		d.peak = equity
		return
	}
	if d.peak > 0 {
		if dd := (d.peak - equity) / d.peak; dd > d.worst {
			d.worst = dd
		}
	}
}

func (d *drawdownTracker) maxPct() float64 {
	return d.worst * 100
}

func winRatePct(sellPnls []float64) float64 {
	if len(sellPnls) == 0 {
		return 0
	}
	wins := 0
	for _, pnl := range sellPnls {
		if pnl > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(sellPnls)) * 100
}

// holdCurve is the buy-one-unit-and-hold benchmark: one unit bought at the
// first price (cash permitting), marked to market each day.
func holdCurve(path []types.PricePoint, initialCash float64) []float64 {
	if len(path) == 0 {
		return nil
	}
	cash := initialCash
	units := 0.0
	if first := path[0].Price; first > 0 && initialCash >= first {
		cash -= first
		units = 1
	}
	curve := make([]float64, len(path)+1)
	curve[0] = initialCash
	for i, point := range path {
		curve[i+1] = cash + units*point.Price
	}
	return curve
}

// sharpeRatio annualizes the mean/stddev of per-day equity returns using the
// engine's 365-day calendar. Zero when the curve is too short or flat.
func sharpeRatio(equityCurve []float64) float64 {
	if len(equityCurve) < 3 {
		return 0
	}
	returns := make([]float64, 0, len(equityCurve)-1)
	for i := 1; i < len(equityCurve); i++ {
		if equityCurve[i-1] <= 0 {
			continue
		}
		returns = append(returns, equityCurve[i]/equityCurve[i-1]-1)
	}
	if len(returns) < 2 {
		return 0
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
	sd := math.Sqrt(variance)
	if sd == 0 {
		return 0
	}
	return mean / sd * math.Sqrt(365)
}
