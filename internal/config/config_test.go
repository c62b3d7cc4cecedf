package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clish254/sol-dex-pools/internal/types"
)

func TestSourceEnabled(t *testing.T) {
	cfg := Config{RPCURL: "http://localhost:8899"}
	for _, src := range types.AllSources() {
		assert.True(t, cfg.SourceEnabled(src), "empty setting should enable %s", src)
	}

	cfg.EnabledSources = "raydium, orca"
	assert.True(t, cfg.SourceEnabled(types.SourceRaydium))
	assert.True(t, cfg.SourceEnabled(types.SourceOrca))
	assert.False(t, cfg.SourceEnabled(types.SourceMeteora))
	assert.False(t, cfg.SourceEnabled(types.SourceWhirlpool))

	// the on-chain source needs an RPC endpoint even when listed
	cfg = Config{EnabledSources: "whirlpool"}
	assert.False(t, cfg.SourceEnabled(types.SourceWhirlpool))
	cfg.RPCURL = "http://localhost:8899"
	assert.True(t, cfg.SourceEnabled(types.SourceWhirlpool))
}

func TestSourceAssemblesPerSourceView(t *testing.T) {
	cfg := Config{
		RaydiumURL:     "http://raydium.test",
		OrcaURL:        "http://orca.test",
		MeteoraURL:     "http://meteora.test",
		MeteoraDLMMURL: "http://dlmm.test",
		RPCURL:         "http://rpc.test",
		APIKeys:        map[string]string{"raydium": "rk", "meteora-dlmm": "dk"},
	}

	ray := cfg.Source(types.SourceRaydium)
	assert.True(t, ray.Enabled)
	assert.Equal(t, "http://raydium.test", ray.BaseURL)
	assert.Equal(t, "rk", ray.APIKey)
	assert.True(t, ray.ReportsVolume)

	dlmm := cfg.Source(types.SourceMeteoraDLMM)
	assert.Equal(t, "http://dlmm.test", dlmm.BaseURL)
	assert.Equal(t, "dk", dlmm.APIKey)

	orca := cfg.Source(types.SourceOrca)
	assert.Equal(t, "http://orca.test", orca.BaseURL)
	assert.Empty(t, orca.APIKey)

	whirl := cfg.Source(types.SourceWhirlpool)
	assert.Equal(t, "http://rpc.test", whirl.RPCEndpoint)
	assert.Empty(t, whirl.BaseURL)
	// chain state has no trade history
	assert.False(t, whirl.ReportsVolume)
}

func TestLoadReadsIntegrationSettings(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "7")
	t.Setenv("DATA_INTEGRITY_ENABLED", "true")
	t.Setenv("SIGNATURE_VALIDITY", "1h")
	t.Setenv("WEBHOOK_ENABLED", "true")
	t.Setenv("WEBHOOK_URL", "http://hooks.test/ingest")
	t.Setenv("WEBHOOK_INTERVAL", "30s")

	cfg := Load()

	require.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, 7, cfg.RateLimitBurst)
	assert.True(t, cfg.DataIntegrityEnabled)
	assert.Equal(t, time.Hour, cfg.SignatureValidity)
	assert.True(t, cfg.WebhookEnabled)
	assert.Equal(t, "http://hooks.test/ingest", cfg.WebhookURL)
	assert.Equal(t, 30*time.Second, cfg.WebhookInterval)
	// untouched knobs keep their defaults
	assert.Equal(t, 50, cfg.WebhookBatchSize)
}
