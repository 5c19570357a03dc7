package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const baseYAML = `
environment: test
server:
  port: 8080
backend:
  type: clickhouse
fmp:
  api_key: test-key
  stock_symbols: [AAPL, MSFT]
pipeline:
  extract_interval: 15m
  session_open: "09:30"
  session_close: "16:00"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadParsesAndValidates(t *testing.T) {
	cfg, err := Load(writeConfig(t, baseYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.Type != "clickhouse" {
		t.Fatalf("backend = %q", cfg.Backend.Type)
	}
	if cfg.Pipeline.ExtractInterval != 15*time.Minute {
		t.Fatalf("extract_interval = %v", cfg.Pipeline.ExtractInterval)
	}
	if len(cfg.FMP.StockSymbols) != 2 {
		t.Fatalf("stock symbols = %v", cfg.FMP.StockSymbols)
	}
}

func TestLoadRejectsBadBackend(t *testing.T) {
	bad := `
environment: test
backend:
  type: postgres
fmp:
  api_key: k
  stock_symbols: [AAPL]
`
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatal("expected backend type error")
	}
}

func TestLoadRejectsBadSessionBoundary(t *testing.T) {
	bad := `
environment: test
backend:
  type: clickhouse
fmp:
  api_key: k
  stock_symbols: [AAPL]
pipeline:
  session_open: "930"
`
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatal("expected session boundary error")
	}
}

func TestLoadWithEnvOverridesBeforeValidation(t *testing.T) {
	// api_key comes only from the environment
	body := `
environment: test
backend:
  type: clickhouse
fmp:
  stock_symbols: [AAPL]
`
	t.Setenv("FMP_API_KEY", "env-key")
	t.Setenv("CLICKHOUSE_HOST", "ch.internal")
	t.Setenv("STOCK_SYMBOLS", "NVDA,AMD")

	cfg, err := LoadWithEnv(writeConfig(t, body))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if cfg.FMP.APIKey != "env-key" {
		t.Fatalf("api key = %q", cfg.FMP.APIKey)
	}
	if cfg.ClickHouse.Host != "ch.internal" {
		t.Fatalf("clickhouse host = %q", cfg.ClickHouse.Host)
	}
	if len(cfg.FMP.StockSymbols) != 2 || cfg.FMP.StockSymbols[0] != "NVDA" {
		t.Fatalf("stock symbols = %v", cfg.FMP.StockSymbols)
	}
}

func TestSessionMinutes(t *testing.T) {
	cases := []struct {
		in   string
		def  int
		want int
	}{
		{"09:30", 0, 9*60 + 30},
		{"16:00", 0, 16 * 60},
		{"15:45", 0, 15*60 + 45},
		{"", 570, 570},
		{"junk", 570, 570},
	}
	for _, tc := range cases {
		if got := SessionMinutes(tc.in, tc.def); got != tc.want {
			t.Fatalf("SessionMinutes(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
