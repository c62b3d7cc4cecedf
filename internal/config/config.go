// Package config provides configuration loading and management for the application.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Clish254/sol-dex-pools/internal/types"
)

// Config holds all application configuration. It is loaded once at process
// start and treated as read-only for the lifetime of the pipeline.
type Config struct {
	// HTTP server port
	Port string

	// Base URLs for the HTTP data providers
	RaydiumURL     string
	OrcaURL        string
	MeteoraURL     string
	MeteoraDLMMURL string

	// Solana RPC endpoint used by the on-chain Whirlpool source
	RPCURL string

	// Comma-separated list of sources to query; empty means all
	EnabledSources string

	// OpenTelemetry endpoint for observability
	OtelEndpoint string

	// API keys keyed by provider name
	APIKeys map[string]string

	// RequestTimeout is the independent budget applied to each source
	RequestTimeout time.Duration

	// SolPriceUSD is the fixed reference price of the native asset,
	// applied whenever a source reports a SOL-denominated price
	SolPriceUSD float64

	// Scoring weights; they must sum to 1.0
	LiquidityWeight float64
	VolumeWeight    float64
	FeeWeight       float64

	// LiquidityCeiling is the USD value at which the log-scaled
	// liquidity and volume components saturate
	LiquidityCeiling float64

	// FeeCeiling is the fee percentage at or above which the fee
	// component bottoms out at zero
	FeeCeiling float64

	// DeterministicSelection sorts the aggregate by (source, pool id)
	// before selection so ties are reproducible across runs
	DeterministicSelection bool

	// Pagination hints passed through to providers that page results
	PageSize int
	Page     int

	// Per-source circuit breaker settings
	BreakerEnabled     bool
	BreakerMaxFailures int
	BreakerCooldown    time.Duration

	// Token-bucket rate limit on the analyze endpoint
	RateLimitRPS   float64
	RateLimitBurst int

	// Response signing
	DataIntegrityEnabled bool
	SignatureValidity    time.Duration
	StrictMode           bool

	// Webhook export of analysis results
	WebhookEnabled   bool
	WebhookBatchSize int
	WebhookInterval  time.Duration
	WebhookURL       string
	WebhookAPIKey    string
}

// Load creates a new Config from environment variables. A .env file in the
// working directory is honored when present.
func Load() Config {
	_ = godotenv.Load()

	apiKeys := map[string]string{}
	if raw := os.Getenv("API_KEYS"); raw != "" {
		_ = json.Unmarshal([]byte(raw), &apiKeys)
	}

	return Config{
		Port:           GetEnvOrDefault("PORT", "8080"),
		RaydiumURL:     GetEnvOrDefault("RAYDIUM_URL", "https://api-v3.raydium.io"),
		OrcaURL:        GetEnvOrDefault("ORCA_URL", "https://api.orca.so"),
		MeteoraURL:     GetEnvOrDefault("METEORA_URL", "https://amm-v2.meteora.ag"),
		MeteoraDLMMURL: GetEnvOrDefault("METEORA_DLMM_URL", "https://dlmm-api.meteora.ag"),
		RPCURL:         GetEnvOrDefault("RPC_URL", ""),
		EnabledSources: strings.ToLower(GetEnvOrDefault("ENABLED_SOURCES", "")),
		OtelEndpoint:   GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		APIKeys:        apiKeys,

		RequestTimeout: GetEnvAsDuration("REQUEST_TIMEOUT", 20*time.Second),
		SolPriceUSD:    GetEnvAsFloat("SOL_PRICE_USD", 161.0),

		LiquidityWeight:  GetEnvAsFloat("LIQUIDITY_WEIGHT", 0.45),
		VolumeWeight:     GetEnvAsFloat("VOLUME_WEIGHT", 0.45),
		FeeWeight:        GetEnvAsFloat("FEE_WEIGHT", 0.10),
		LiquidityCeiling: GetEnvAsFloat("LIQUIDITY_CEILING_USD", 10_000_000),
		FeeCeiling:       GetEnvAsFloat("FEE_CEILING_PCT", 5.0),

		DeterministicSelection: GetEnvAsBool("DETERMINISTIC_SELECTION", false),

		PageSize: GetEnvAsInt("PAGE_SIZE", 10),
		Page:     GetEnvAsInt("PAGE", 0),

		BreakerEnabled:     GetEnvAsBool("ENABLE_CIRCUIT_BREAKER", true),
		BreakerMaxFailures: GetEnvAsInt("BREAKER_MAX_FAILURES", 3),
		BreakerCooldown:    GetEnvAsDuration("BREAKER_COOLDOWN", 5*time.Minute),

		RateLimitRPS:   GetEnvAsFloat("RATE_LIMIT_RPS", 10.0),
		RateLimitBurst: GetEnvAsInt("RATE_LIMIT_BURST", 20),

		DataIntegrityEnabled: GetEnvAsBool("DATA_INTEGRITY_ENABLED", false),
		SignatureValidity:    GetEnvAsDuration("SIGNATURE_VALIDITY", 24*time.Hour),
		StrictMode:           GetEnvAsBool("STRICT_MODE", false),

		WebhookEnabled:   GetEnvAsBool("WEBHOOK_ENABLED", false),
		WebhookBatchSize: GetEnvAsInt("WEBHOOK_BATCH_SIZE", 50),
		WebhookInterval:  GetEnvAsDuration("WEBHOOK_INTERVAL", time.Minute),
		WebhookURL:       GetEnvOrDefault("WEBHOOK_URL", ""),
		WebhookAPIKey:    GetEnvOrDefault("WEBHOOK_API_KEY", ""),
	}
}

// SourceEnabled reports whether a source should be queried under the
// ENABLED_SOURCES setting. An empty setting enables everything; the
// Whirlpool source additionally requires an RPC endpoint.
func (c Config) SourceEnabled(s types.Source) bool {
	if s == types.SourceWhirlpool && c.RPCURL == "" {
		return false
	}
	if c.EnabledSources == "" {
		return true
	}
	for _, name := range strings.Split(c.EnabledSources, ",") {
		if types.Source(strings.TrimSpace(name)) == s {
			return true
		}
	}
	return false
}

// Source assembles the per-source view of the configuration: endpoint,
// credentials, enablement, and whether the provider publishes 24h volume.
func (c Config) Source(s types.Source) types.SourceConfig {
	sc := types.SourceConfig{
		Enabled: c.SourceEnabled(s),
		APIKey:  c.APIKeys[string(s)],
		// Chain state carries no trade history, so the on-chain Whirlpool
		// source is the one provider that never reports volume.
		ReportsVolume: s != types.SourceWhirlpool,
	}
	switch s {
	case types.SourceRaydium:
		sc.BaseURL = c.RaydiumURL
	case types.SourceOrca:
		sc.BaseURL = c.OrcaURL
	case types.SourceMeteora:
		sc.BaseURL = c.MeteoraURL
	case types.SourceMeteoraDLMM:
		sc.BaseURL = c.MeteoraDLMMURL
	case types.SourceWhirlpool:
		sc.RPCEndpoint = c.RPCURL
	}
	return sc
}

// GetEnv retrieves an environment variable and whether it exists
func GetEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	return value, exists
}

// GetEnvOrDefault retrieves an environment variable or returns the default value if not set
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a default value
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvAsBool retrieves an environment variable as a boolean with a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := GetEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// GetEnvAsDuration retrieves an environment variable as a duration with a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := GetEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
