// Package config loads server and engine configuration from an optional
// YAML file plus QUANT_-prefixed environment overrides, with defaults that
// make the binary runnable with no config at all.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ledgerengine/quant-backend/pkg/types"
)

// Config is the full runtime configuration.
type Config struct {
	LogLevel   string                 `mapstructure:"log_level"`
	Server     types.ServerConfig     `mapstructure:"server"`
	Simulation types.SimulationConfig `mapstructure:"simulation"`
	Backtest   types.BacktestDefaults `mapstructure:"backtest"`
}

// Load reads configuration. With an empty path it searches for config.yaml
// in the working directory and ./config, and a missing file is not an
// error; an explicit path must exist. Environment variables override file
// values: server.port becomes QUANT_SERVER_PORT.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("QUANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.websocket_path", "/ws")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.rate_limit", 50.0)
	v.SetDefault("server.rate_burst", 100)
	v.SetDefault("server.enable_metrics", true)

	v.SetDefault("simulation.num_paths", 5000)
	v.SetDefault("simulation.horizon_days", 30)
	v.SetDefault("simulation.bid_percentile", 25.0)
	v.SetDefault("simulation.ask_percentile", 75.0)
	v.SetDefault("simulation.sales_per_year", 12.0)

	v.SetDefault("backtest.initial_cash", 10000.0)
	v.SetDefault("backtest.max_position", 10)
	v.SetDefault("backtest.trade_size", 1)
	v.SetDefault("backtest.fair_value_window", 20)
	v.SetDefault("backtest.buy_discount_pct", 0.10)
	v.SetDefault("backtest.sweep_workers", 0) // 0 = NumCPU
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", cfg.Server.Port)
	}
	if cfg.Simulation.NumPaths <= 0 {
		return fmt.Errorf("config: simulation.num_paths must be positive, got %d", cfg.Simulation.NumPaths)
	}
	if cfg.Simulation.HorizonDays <= 0 {
		return fmt.Errorf("config: simulation.horizon_days must be positive, got %d", cfg.Simulation.HorizonDays)
	}
	if cfg.Simulation.BidPercentile < 0 || cfg.Simulation.BidPercentile > 100 ||
		cfg.Simulation.AskPercentile < 0 || cfg.Simulation.AskPercentile > 100 {
		return fmt.Errorf("config: percentiles must lie in [0, 100]")
	}
	if cfg.Simulation.BidPercentile >= cfg.Simulation.AskPercentile {
		return fmt.Errorf("config: bid_percentile %.1f must be below ask_percentile %.1f",
			cfg.Simulation.BidPercentile, cfg.Simulation.AskPercentile)
	}
	if cfg.Backtest.InitialCash < 0 {
		return fmt.Errorf("config: backtest.initial_cash must be non-negative, got %v", cfg.Backtest.InitialCash)
	}
	if cfg.Server.RateLimit <= 0 {
		return fmt.Errorf("config: server.rate_limit must be positive, got %v", cfg.Server.RateLimit)
	}
	return nil
}
