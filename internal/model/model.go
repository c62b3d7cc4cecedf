// Package model defines the core data structures for sol-dex-pools.
package model

import (
	"github.com/Clish254/sol-dex-pools/internal/types"
)

// PoolRecord is the canonical, provider-agnostic description of a single
// liquidity pool. This is the data structure that flows through the entire
// pipeline once a provider's raw schema has been normalized.
// Records are immutable once constructed.
type PoolRecord struct {
	// Source is the provider this pool was reported by
	Source types.Source `json:"source"`

	// Name is the human-readable pair label, e.g. "JUP-SOL"
	Name string `json:"name"`

	// PoolID is the provider-scoped unique identifier, usually the
	// pool's on-chain address
	PoolID string `json:"pool_id"`

	// PriceUSD is the price of the non-reference token in USD
	PriceUSD float64 `json:"price_usd"`

	// LiquidityUSD is the total value locked in USD. A record only
	// survives normalization when this is strictly positive.
	LiquidityUSD float64 `json:"liquidity_usd"`

	// FeePct is the trading fee on the percent scale: 0.30 means 0.30%
	FeePct float64 `json:"fee_percentage"`

	// Volume24hUSD is the 24h trading volume in USD; nil when the
	// source does not report volume at all
	Volume24hUSD *float64 `json:"volume_24h_usd,omitempty"`

	// TokenAddresses holds the two token mints in provider order
	TokenAddresses [2]string `json:"token_addresses"`
}

// HasVolume reports whether the record carries a positive 24h volume.
func (r PoolRecord) HasVolume() bool {
	return r.Volume24hUSD != nil && *r.Volume24hUSD > 0
}

// ScoredRecord pairs a canonical record with its health score.
// Constructed per request and discarded when the request completes.
type ScoredRecord struct {
	Record PoolRecord `json:"record"`
	Score  float64    `json:"score"`
}

// Volume is a convenience constructor for the optional volume field.
func Volume(v float64) *float64 {
	return &v
}
