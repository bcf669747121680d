package backtester

import (
	"go.uber.org/zap"

	"github.com/ledgerengine/quant-backend/pkg/types"
)

// Discount-buy defaults.
const (
	DefaultFairValueWindow = 20
	DefaultBuyDiscountPct  = 0.10
)

// RunBuyDiscount replays a "buy below trailing fair value, sell on
// time-or-target" strategy with FIFO lot accounting.
//
// Each day the oldest open lot is evaluated first: it is sold when the lot
// has been held sellAfterDays or longer (if that exit is enabled), or when
// the price reaches entryPrice*(1+sellTargetPct). At most one lot sells per
// day. Only on days without a sell is a buy considered: the price must sit
// at least buyDiscountPct below the trailing fair value (a simple moving
// average of the prices strictly before today), a lot slot must be free, and
// cash must cover the discounted execution price. Bought lots enter the
// queue at that discounted price.
func (e *Engine) RunBuyDiscount(params types.BuyDiscountParams) (*types.BuyDiscountResult, error) {
	if err := applyBacktestDefaults(&params.InitialCash, &params.MaxPosition, &params.TradeSize); err != nil {
		return nil, err
	}
	if params.FairValueWindow <= 0 {
		params.FairValueWindow = DefaultFairValueWindow
	}
	if params.BuyDiscountPct == 0 {
		params.BuyDiscountPct = DefaultBuyDiscountPct
	}

	var (
		cash     = params.InitialCash
		lots     = NewLotQueue()
		size     = params.TradeSize
		steps    = make([]types.BacktestStep, 0, len(params.PricePath))
		sellPnls []float64
		numBuys  int
		numSells int
	)

	dd := newDrawdownTracker(params.InitialCash)
	equityCurve := []float64{params.InitialCash}

	for i, point := range params.PricePath {
		step := types.BacktestStep{
			Day:            point.Day,
			Price:          point.Price,
			Action:         types.ActionHold,
			PositionBefore: lots.Len() * size,
			CashBefore:     cash,
		}

		sold := false
		if oldest, ok := lots.Oldest(); ok {
			daysHeld := point.Day - oldest.EntryDay
			target := oldest.EntryPrice * (1 + params.SellTargetPct)
			if (params.SellAfterDays > 0 && daysHeld >= params.SellAfterDays) || point.Price >= target {
				lots.PopOldest()
				proceeds := point.Price * float64(size)
				cash += proceeds
				pnl := proceeds - oldest.EntryPrice*float64(size)
				step.Action = types.ActionSell
				step.PnLRealized = pnl
				sellPnls = append(sellPnls, pnl)
				numSells++
				sold = true
			}
		}

		if !sold {
			fairValue := trailingSMA(params.PricePath, i, params.FairValueWindow)
			execPrice := point.Price * (1 - params.BuyDiscountPct)
			execCost := execPrice * float64(size)
			if point.Price <= fairValue*(1-params.BuyDiscountPct) && lots.Len() < params.MaxPosition && cash >= execCost {
				cash -= execCost
				lots.Push(Lot{EntryDay: point.Day, EntryPrice: execPrice})
				step.Action = types.ActionBuy
				numBuys++
			}
		}

		step.PositionAfter = lots.Len() * size
		step.CashAfter = cash
		steps = append(steps, step)

		equity := cash + float64(lots.Len()*size)*point.Price
		equityCurve = append(equityCurve, equity)
		dd.observe(equity)
	}

	result := &types.BuyDiscountResult{
		BacktestResult: types.BacktestResult{
			Steps:          steps,
			FinalCash:      cash,
			FinalPosition:  lots.Len() * size,
			NumBuys:        numBuys,
			NumSells:       numSells,
			MaxDrawdownPct: dd.maxPct(),
			WinRatePct:     winRatePct(sellPnls),
			EquityCurve:    equityCurve,
			SharpeRatio:    sharpeRatio(equityCurve),
		},
		SellAfterDays:  params.SellAfterDays,
		SellTargetPct:  params.SellTargetPct,
		BuyDiscountPct: params.BuyDiscountPct,
		OpenLots:       lots.Len(),
	}
	if n := len(params.PricePath); n > 0 {
		result.FinalMtM = float64(lots.Len()*size) * params.PricePath[n-1].Price
	}
	result.TotalPnL = result.FinalCash + result.FinalMtM - params.InitialCash
	if params.InitialCash > 0 {
		result.ReturnPct = result.TotalPnL / params.InitialCash
	}

	e.logger.Debug("discount-buy backtest complete",
		zap.Int("days", len(params.PricePath)),
		zap.Int("buys", numBuys),
		zap.Int("sells", numSells),
		zap.Int("open_lots", result.OpenLots),
		zap.Float64("total_pnl", result.TotalPnL),
	)

	return result, nil
}

// trailingSMA averages the up-to-window prices strictly before index i.
// With no prior prices the current price itself is returned, which disables
// the discount check on the very first point.
func trailingSMA(path []types.PricePoint, i, window int) float64 {
	start := i - window
	if start < 0 {
		start = 0
	}
	if start == i {
		return path[i].Price
	}
	sum := 0.0
	for j := start; j < i; j++ {
		sum += path[j].Price
	}
	return sum / float64(i-start)
}
