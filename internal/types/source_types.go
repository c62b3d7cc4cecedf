// Package types contains shared type definitions used across multiple packages
package types

// Source identifies a liquidity-pool data provider queried by the service
type Source string

// Supported providers
const (
	SourceRaydium     Source = "raydium"
	SourceOrca        Source = "orca"
	SourceMeteora     Source = "meteora"
	SourceMeteoraDLMM Source = "meteora-dlmm"
	SourceWhirlpool   Source = "whirlpool"
)

// AllSources returns every provider the service knows about, in a fixed order
func AllSources() []Source {
	return []Source{
		SourceRaydium,
		SourceOrca,
		SourceMeteora,
		SourceMeteoraDLMM,
		SourceWhirlpool,
	}
}

// SourceConfig holds endpoint configuration for a single provider
type SourceConfig struct {
	Enabled     bool   `json:"enabled"`
	BaseURL     string `json:"base_url,omitempty"`
	RPCEndpoint string `json:"rpc_endpoint,omitempty"`
	APIKey      string `json:"api_key,omitempty"`
	// ReportsVolume marks whether the provider publishes 24h trading
	// volume; sources without it are scored with renormalized weights.
	ReportsVolume bool `json:"reports_volume"`
}
