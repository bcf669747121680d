// Package types provides shared type definitions for the quant backend.
package types

import (
	"fmt"
	"time"
)

// TradeAction represents the decision taken on one backtest day.
type TradeAction string

const (
	ActionBuy  TradeAction = "buy"
	ActionSell TradeAction = "sell"
	ActionHold TradeAction = "hold"
)

// ParseTradeAction validates a raw action string. Only the three defined
// actions are accepted.
func ParseTradeAction(s string) (TradeAction, error) {
	switch TradeAction(s) {
	case ActionBuy, ActionSell, ActionHold:
		return TradeAction(s), nil
	default:
		return "", fmt.Errorf("invalid trade action %q", s)
	}
}

// PricePoint is a single day-indexed price observation on a path.
type PricePoint struct {
	Day   int     `json:"day"`
	Price float64 `json:"price"`
}

// TradeComp is a historical sold comparable (date + realized price), the raw
// input to parameter estimation.
type TradeComp struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// MonteCarloParams configures one terminal-distribution simulation run.
// Seed is optional; nil means a non-reproducible system seed.
type MonteCarloParams struct {
	InitialPrice float64 `json:"initialPrice"`
	Drift        float64 `json:"drift"`
	Volatility   float64 `json:"volatility"`
	NumPaths     int     `json:"numPaths"`
	HorizonDays  int     `json:"horizonDays"`
	Seed         *int64  `json:"seed,omitempty"`
}

// Percentiles holds the standard percentile cuts of a terminal distribution.
type Percentiles struct {
	P5  float64 `json:"p5"`
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P95 float64 `json:"p95"`
}

// MonteCarloResult is the output of one simulation run. TerminalPrices is
// sorted ascending and has length Params.NumPaths.
type MonteCarloResult struct {
	TerminalPrices    []float64        `json:"terminalPrices"`
	Percentiles       Percentiles      `json:"percentiles"`
	Mean              float64          `json:"mean"`
	StdDev            float64          `json:"stdDev"`
	RuinProbability   float64          `json:"ruinProbability"`
	TargetProbability float64          `json:"targetProbability"`
	Params            MonteCarloParams `json:"params"`
}

// PricingStrategy is a bid/ask quote pair derived from a terminal
// distribution. Bid <= FairValue <= Ask whenever the requested percentiles
// are ordered.
type PricingStrategy struct {
	FairValue float64 `json:"fairValue"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	SpreadPct float64 `json:"spreadPct"`
	Method    string  `json:"method"`
}

// BacktestParams configures a fixed bid/ask crossing backtest. The engine
// does not require Ask > Bid; callers wanting a sane market-making spread
// must enforce that at the boundary.
type BacktestParams struct {
	PricePath   []PricePoint `json:"pricePath"`
	Bid         float64      `json:"bid"`
	Ask         float64      `json:"ask"`
	InitialCash float64      `json:"initialCash"`
	MaxPosition int          `json:"maxPosition"`
	TradeSize   int          `json:"tradeSize"`
}

// BacktestStep records one day's state transition.
type BacktestStep struct {
	Day            int         `json:"day"`
	Price          float64     `json:"price"`
	Action         TradeAction `json:"action"`
	PositionBefore int         `json:"positionBefore"`
	PositionAfter  int         `json:"positionAfter"`
	CashBefore     float64     `json:"cashBefore"`
	CashAfter      float64     `json:"cashAfter"`
	PnLRealized    float64     `json:"pnlRealized"`
}

// BacktestResult aggregates a full backtest run.
// TotalPnL == FinalCash + FinalMtM - initial cash.
type BacktestResult struct {
	Steps          []BacktestStep `json:"steps"`
	FinalCash      float64        `json:"finalCash"`
	FinalPosition  int            `json:"finalPosition"`
	FinalMtM       float64        `json:"finalMtM"`
	TotalPnL       float64        `json:"totalPnl"`
	ReturnPct      float64        `json:"returnPct"`
	NumBuys        int            `json:"numBuys"`
	NumSells       int            `json:"numSells"`
	MaxDrawdownPct float64        `json:"maxDrawdownPct"`
	WinRatePct     float64        `json:"winRatePct"`
	SharpeRatio    float64        `json:"sharpeRatio"`
	EquityCurve    []float64      `json:"equityCurve"`
	HoldCurve      []float64      `json:"holdCurve,omitempty"`
}

// BuyDiscountParams configures a discount-buy backtest with FIFO lot
// accounting. SellAfterDays <= 0 disables the time-based exit.
type BuyDiscountParams struct {
	PricePath       []PricePoint `json:"pricePath"`
	InitialCash     float64      `json:"initialCash"`
	MaxPosition     int          `json:"maxPosition"`
	TradeSize       int          `json:"tradeSize"`
	BuyDiscountPct  float64      `json:"buyDiscountPct"`
	FairValueWindow int          `json:"fairValueWindow"`
	SellAfterDays   int          `json:"sellAfterDays"`
	SellTargetPct   float64      `json:"sellTargetPct"`
}

// BuyDiscountResult is a discount-buy backtest result with the swept
// parameters echoed, so grid cells remain identifiable.
type BuyDiscountResult struct {
	BacktestResult
	SellAfterDays  int     `json:"sellAfterDays"`
	SellTargetPct  float64 `json:"sellTargetPct"`
	BuyDiscountPct float64 `json:"buyDiscountPct"`
	OpenLots       int     `json:"openLots"`
}

// SweepParams describes a parameter grid over the discount-buy backtester.
// Every combination of SellAfterDays x SellTargetPcts runs as an independent
// cell against the shared Base parameters.
type SweepParams struct {
	Base           BuyDiscountParams `json:"base"`
	SellAfterDays  []int             `json:"sellAfterDays"`
	SellTargetPcts []float64         `json:"sellTargetPcts"`
}

// EstimatedParams are GBM inputs derived from a historical comp series.
// Fallback is set when the series was too sparse (or degenerate) and the
// conservative defaults were substituted.
type EstimatedParams struct {
	InitialPrice   float64 `json:"initialPrice"`
	Drift          float64 `json:"drift"`
	Volatility     float64 `json:"volatility"`
	LiquidityScore float64 `json:"liquidityScore"`
	Observations   int     `json:"observations"`
	Fallback       bool    `json:"fallback"`
}
