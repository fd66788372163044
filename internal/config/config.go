package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// API server settings
	APIAddr string
	APIKey  string
	DevMode bool

	// Solana RPC settings (token catalog)
	RPCUrl       string
	RPCTimeout   time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Jupiter quote API settings
	JupiterBaseURL string
	JupiterAPIKey  string
	QuoteTimeout   time.Duration
	QuoteRetries   int
	QuoteBackoff   time.Duration
	PacingInterval time.Duration

	// Depth probing settings
	USDLadder  []float64
	TimeBudget time.Duration

	// Monitor settings
	MonitorInterval time.Duration

	// Redis settings
	RedisAddr   string
	SnapshotTTL time.Duration

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// AI settings
	OpenRouterAPIKey string
	AIModel          string
}

func Load() *Config {
	return &Config{
		// API
		APIAddr: getEnv("API_ADDR", ":8090"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		// RPC
		RPCUrl:       getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		RPCTimeout:   getDurationEnv("RPC_TIMEOUT", 15*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 3),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 1*time.Second),

		// Jupiter
		JupiterBaseURL: getEnv("JUPITER_BASE_URL", "https://api.jup.ag/swap/v1"),
		JupiterAPIKey:  getEnv("JUPITER_API_KEY", ""),
		QuoteTimeout:   getDurationEnv("QUOTE_TIMEOUT", 12*time.Second),
		QuoteRetries:   getIntEnv("QUOTE_RETRIES", 3),
		QuoteBackoff:   getDurationEnv("QUOTE_BACKOFF", 500*time.Millisecond),
		PacingInterval: getDurationEnv("QUOTE_PACING_INTERVAL", 1100*time.Millisecond),

		// Depth probing
		USDLadder:  getLadderEnv("DEPTH_USD_LADDER", defaultLadder()),
		TimeBudget: getDurationEnv("DEPTH_TIME_BUDGET", 45*time.Second),

		// Monitor
		MonitorInterval: getDurationEnv("MONITOR_INTERVAL", 10*time.Minute),

		// Redis
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		SnapshotTTL: getDurationEnv("SNAPSHOT_TTL", 30*time.Minute),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "liquidity"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// AI
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		AIModel:          getEnv("AI_MODEL", "openai/gpt-4.1-mini"),
	}
}

// Validate checks the parts of the configuration that have no safe fallback.
func (c *Config) Validate() error {
	if c.APIAddr == "" {
		return fmt.Errorf("API_ADDR must not be empty")
	}
	if c.JupiterBaseURL == "" {
		return fmt.Errorf("JUPITER_BASE_URL must not be empty")
	}
	if c.PacingInterval <= 0 {
		return fmt.Errorf("QUOTE_PACING_INTERVAL must be positive")
	}
	if c.TimeBudget <= 0 {
		return fmt.Errorf("DEPTH_TIME_BUDGET must be positive")
	}
	if len(c.USDLadder) == 0 {
		return fmt.Errorf("DEPTH_USD_LADDER must not be empty")
	}
	prev := 0.0
	for _, v := range c.USDLadder {
		if v <= prev {
			return fmt.Errorf("DEPTH_USD_LADDER must be strictly ascending and positive")
		}
		prev = v
	}
	return nil
}

func defaultLadder() []float64 {
	return []float64{500, 1_000, 10_000, 100_000, 1_000_000, 10_000_000, 50_000_000, 100_000_000}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getLadderEnv parses a comma-separated list of USD notionals, e.g.
// "500,1000,10000". Falls back to the default on any parse error.
func getLadderEnv(key string, defaultVal []float64) []float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return defaultVal
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
