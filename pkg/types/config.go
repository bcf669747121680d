// Package types provides configuration types for the quant backend.
package types

import "time"

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Host          string        `json:"host" mapstructure:"host"`
	Port          int           `json:"port" mapstructure:"port"`
	WebSocketPath string        `json:"websocketPath" mapstructure:"websocket_path"`
	ReadTimeout   time.Duration `json:"readTimeout" mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `json:"writeTimeout" mapstructure:"write_timeout"`
	RateLimit     float64       `json:"rateLimit" mapstructure:"rate_limit"`
	RateBurst     int           `json:"rateBurst" mapstructure:"rate_burst"`
	EnableMetrics bool          `json:"enableMetrics" mapstructure:"enable_metrics"`
}

// SimulationConfig holds Monte Carlo and strategy derivation defaults the
// caller may rely on.
type SimulationConfig struct {
	NumPaths      int     `json:"numPaths" mapstructure:"num_paths"`
	HorizonDays   int     `json:"horizonDays" mapstructure:"horizon_days"`
	BidPercentile float64 `json:"bidPercentile" mapstructure:"bid_percentile"`
	AskPercentile float64 `json:"askPercentile" mapstructure:"ask_percentile"`
	SalesPerYear  float64 `json:"salesPerYear" mapstructure:"sales_per_year"`
}

// BacktestDefaults holds backtester defaults.
type BacktestDefaults struct {
	InitialCash     float64 `json:"initialCash" mapstructure:"initial_cash"`
	MaxPosition     int     `json:"maxPosition" mapstructure:"max_position"`
	TradeSize       int     `json:"tradeSize" mapstructure:"trade_size"`
	FairValueWindow int     `json:"fairValueWindow" mapstructure:"fair_value_window"`
	BuyDiscountPct  float64 `json:"buyDiscountPct" mapstructure:"buy_discount_pct"`
	SweepWorkers    int     `json:"sweepWorkers" mapstructure:"sweep_workers"`
}
