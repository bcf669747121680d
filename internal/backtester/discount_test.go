package backtester

import (
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/ledgerengine/quant-backend/internal/gbm"
	"github.com/ledgerengine/quant-backend/pkg/types"
)

func decayingPath(start, factor float64, days int) []types.PricePoint {
	path := make([]types.PricePoint, days)
	price := start
	for i := range path {
		path[i] = types.PricePoint{Day: i, Price: price}
		price *= factor
	}
	return path
}

func TestDiscountTimeExitSellsAfterExactHold(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	// Steadily falling prices keep the buy condition live and the target
	// exit unreachable, so every lot must leave via the time exit.
	result, err := engine.RunBuyDiscount(types.BuyDiscountParams{
		PricePath:      decayingPath(100, 0.85, 20),
		InitialCash:    10000,
		MaxPosition:    1,
		TradeSize:      1,
		BuyDiscountPct: 0.10,
		SellAfterDays:  5,
		SellTargetPct:  10,
	})
	if err != nil {
		t.Fatalf("RunBuyDiscount: %v", err)
	}

	var buyDays, sellDays []int
	for _, step := range result.Steps {
		switch step.Action {
		case types.ActionBuy:
			buyDays = append(buyDays, step.Day)
		case types.ActionSell:
			sellDays = append(sellDays, step.Day)
			if step.PnLRealized >= 0 {
				t.Errorf("day %d sell pnl = %v, want a loss on a falling path", step.Day, step.PnLRealized)
			}
		}
	}

	if len(sellDays) == 0 {
		t.Fatal("expected time-exit sells")
	}
	// With maxPosition 1 the k-th sell closes the k-th buy, and each lot
	// is held exactly sellAfterDays.
	for i, sellDay := range sellDays {
		if held := sellDay - buyDays[i]; held != 5 {
			t.Errorf("lot %d held %d days, want 5", i, held)
		}
	}
	if result.NumBuys != 4 || result.NumSells != 3 || result.OpenLots != 1 {
		t.Errorf("buys/sells/open = %d/%d/%d, want 4/3/1",
			result.NumBuys, result.NumSells, result.OpenLots)
	}
	if result.WinRatePct != 0 {
		t.Errorf("win rate = %v, want 0", result.WinRatePct)
	}
}

func TestDiscountTargetExit(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	path := []types.PricePoint{
		{Day: 0, Price: 100},
		{Day: 1, Price: 80},
		{Day: 2, Price: 120},
	}
	result, err := engine.RunBuyDiscount(types.BuyDiscountParams{
		PricePath:      path,
		InitialCash:    10000,
		MaxPosition:    3,
		TradeSize:      1,
		BuyDiscountPct: 0.10,
		SellTargetPct:  0.25,
	})
	if err != nil {
		t.Fatalf("RunBuyDiscount: %v", err)
	}

	// Day 1 buys at the discounted price 72; the 25% target is 90, which
	// day 2's price clears.
	if result.NumBuys != 1 || result.NumSells != 1 {
		t.Fatalf("buys/sells = %d/%d, want 1/1", result.NumBuys, result.NumSells)
	}
	if result.Steps[1].Action != types.ActionBuy || result.Steps[2].Action != types.ActionSell {
		t.Errorf("actions = %s/%s/%s, want hold/buy/sell",
			result.Steps[0].Action, result.Steps[1].Action, result.Steps[2].Action)
	}
	if math.Abs(result.FinalCash-10048) > 1e-9 {
		t.Errorf("final cash = %v, want 10048", result.FinalCash)
	}
	if math.Abs(result.Steps[2].PnLRealized-48) > 1e-9 {
		t.Errorf("sell pnl = %v, want 48", result.Steps[2].PnLRealized)
	}
	if result.WinRatePct != 100 {
		t.Errorf("win rate = %v, want 100", result.WinRatePct)
	}
}

func TestDiscountOneSellPerDay(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	path := []types.PricePoint{
		{Day: 0, Price: 100},
		{Day: 1, Price: 80},
		{Day: 2, Price: 80},
		{Day: 3, Price: 200},
		{Day: 4, Price: 200},
	}
	result, err := engine.RunBuyDiscount(types.BuyDiscountParams{
		PricePath:      path,
		InitialCash:    10000,
		MaxPosition:    3,
		TradeSize:      1,
		BuyDiscountPct: 0.10,
		SellTargetPct:  0.5,
	})
	if err != nil {
		t.Fatalf("RunBuyDiscount: %v", err)
	}

	// Both lots are above target on day 3, but only the oldest sells;
	// the second waits for day 4.
	wantPositions := []int{0, 1, 2, 1, 0}
	for i, want := range wantPositions {
		if result.Steps[i].PositionAfter != want {
			t.Errorf("day %d position = %d, want %d", i, result.Steps[i].PositionAfter, want)
		}
	}
	if result.Steps[3].Action != types.ActionSell || result.Steps[4].Action != types.ActionSell {
		t.Errorf("days 3 and 4 should both sell, got %s/%s",
			result.Steps[3].Action, result.Steps[4].Action)
	}
}

func TestDiscountNoBuyOnFirstDay(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	// With no prior prices the trailing fair value equals the current
	// price, so the discount condition can never pass on day 0.
	result, err := engine.RunBuyDiscount(types.BuyDiscountParams{
		PricePath:     decayingPath(100, 0.5, 1),
		InitialCash:   10000,
		MaxPosition:   3,
		TradeSize:     1,
		SellTargetPct: 0.1,
	})
	if err != nil {
		t.Fatalf("RunBuyDiscount: %v", err)
	}
	if result.Steps[0].Action != types.ActionHold {
		t.Errorf("day 0 action = %s, want hold", result.Steps[0].Action)
	}
}

func TestDiscountDefaultsMatchExplicit(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	path := decayingPath(100, 0.9, 30)

	explicit, err := engine.RunBuyDiscount(types.BuyDiscountParams{
		PricePath:       path,
		InitialCash:     DefaultInitialCash,
		MaxPosition:     DefaultMaxPosition,
		TradeSize:       DefaultTradeSize,
		BuyDiscountPct:  DefaultBuyDiscountPct,
		FairValueWindow: DefaultFairValueWindow,
		SellAfterDays:   5,
	})
	if err != nil {
		t.Fatalf("explicit run: %v", err)
	}
	defaulted, err := engine.RunBuyDiscount(types.BuyDiscountParams{
		PricePath:     path,
		SellAfterDays: 5,
	})
	if err != nil {
		t.Fatalf("defaulted run: %v", err)
	}
	if explicit.TotalPnL != defaulted.TotalPnL || explicit.NumBuys != defaulted.NumBuys {
		t.Errorf("defaulted run diverged: pnl %v vs %v, buys %d vs %d",
			defaulted.TotalPnL, explicit.TotalPnL, defaulted.NumBuys, explicit.NumBuys)
	}
}

func TestDiscountAccountingIdentity(t *testing.T) {
	engine := NewEngine(zap.NewNop())
	seed := int64(7)
	path, err := gbm.GeneratePath(100, 0, 0.5, 200, &seed)
	if err != nil {
		t.Fatalf("GeneratePath: %v", err)
	}

	result, err := engine.RunBuyDiscount(types.BuyDiscountParams{
		PricePath:      path,
		InitialCash:    10000,
		MaxPosition:    5,
		TradeSize:      1,
		BuyDiscountPct: 0.05,
		SellAfterDays:  10,
		SellTargetPct:  0.2,
	})
	if err != nil {
		t.Fatalf("RunBuyDiscount: %v", err)
	}

	identity := result.FinalCash + result.FinalMtM - 10000
	if math.Abs(result.TotalPnL-identity) > 1e-9 {
		t.Errorf("total pnl = %v, want %v", result.TotalPnL, identity)
	}
	if result.OpenLots != result.FinalPosition {
		t.Errorf("open lots %d != final position %d with tradeSize 1",
			result.OpenLots, result.FinalPosition)
	}
	for _, step := range result.Steps {
		if step.PositionAfter < 0 || step.PositionAfter > 5 {
			t.Fatalf("day %d position %d outside [0, 5]", step.Day, step.PositionAfter)
		}
	}
}

func TestTrailingSMA(t *testing.T) {
	path := linearPath(10, 10, 5) // 10, 20, 30, 40, 50

	cases := []struct {
		i, window int
		want      float64
	}{
		{0, 3, 10}, // no priors: falls back to the current price
		{1, 3, 10},
		{2, 3, 15},
		{4, 3, 30}, // only 20, 30, 40 inside the window
		{4, 10, 25},
	}
	for _, tc := range cases {
		if got := trailingSMA(path, tc.i, tc.window); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("trailingSMA(i=%d, window=%d) = %v, want %v", tc.i, tc.window, got, tc.want)
		}
	}
}

func TestLotQueueFIFO(t *testing.T) {
	q := NewLotQueue()
	if _, ok := q.PopOldest(); ok {
		t.Error("pop on empty queue should report false")
	}

	q.Push(Lot{EntryDay: 1, EntryPrice: 10})
	q.Push(Lot{EntryDay: 2, EntryPrice: 20})
	q.Push(Lot{EntryDay: 3, EntryPrice: 30})

	if oldest, ok := q.Oldest(); !ok || oldest.EntryDay != 1 {
		t.Errorf("oldest = %+v, want entry day 1", oldest)
	}
	if q.Len() != 3 {
		t.Errorf("len = %d, want 3 after a non-destructive peek", q.Len())
	}

	for want := 1; want <= 3; want++ {
		lot, ok := q.PopOldest()
		if !ok || lot.EntryDay != want {
			t.Fatalf("pop %d = %+v (ok=%v), want entry day %d", want, lot, ok, want)
		}
	}
	if q.Len() != 0 {
		t.Errorf("len = %d, want 0", q.Len())
	}
}
