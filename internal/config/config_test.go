package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// No config file anywhere near the test's working directory.
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("read timeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
	if cfg.Simulation.NumPaths != 5000 || cfg.Simulation.HorizonDays != 30 {
		t.Errorf("simulation defaults = %+v", cfg.Simulation)
	}
	if cfg.Backtest.BuyDiscountPct != 0.10 {
		t.Errorf("buy discount = %v, want 0.10", cfg.Backtest.BuyDiscountPct)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q, want info", cfg.LogLevel)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := `
log_level: debug
server:
  port: 9999
  rate_limit: 5
simulation:
  num_paths: 2000
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Server.RateLimit != 5 {
		t.Errorf("rate limit = %v, want 5", cfg.Server.RateLimit)
	}
	if cfg.Simulation.NumPaths != 2000 {
		t.Errorf("num paths = %d, want 2000", cfg.Simulation.NumPaths)
	}
	// File values merge over defaults, not replace them.
	if cfg.Simulation.HorizonDays != 30 {
		t.Errorf("horizon = %d, want default 30", cfg.Simulation.HorizonDays)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("QUANT_SERVER_PORT", "7777")
	t.Setenv("QUANT_SIMULATION_NUM_PATHS", "123")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("port = %d, want env override 7777", cfg.Server.Port)
	}
	if cfg.Simulation.NumPaths != 123 {
		t.Errorf("num paths = %d, want env override 123", cfg.Simulation.NumPaths)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"QUANT_SERVER_PORT":               "0",
		"QUANT_SIMULATION_NUM_PATHS":      "-1",
		"QUANT_SIMULATION_BID_PERCENTILE": "80", // above ask default 75
		"QUANT_SERVER_RATE_LIMIT":         "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(""); err == nil {
				t.Errorf("%s=%s: expected validation error", key, value)
			}
		})
	}
}
