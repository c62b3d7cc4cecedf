package pipeline

import (
	"context"

	"github.com/Clish254/sol-dex-pools/internal/config"
	"github.com/Clish254/sol-dex-pools/internal/fetch"
	"github.com/Clish254/sol-dex-pools/internal/model"
	"github.com/Clish254/sol-dex-pools/internal/normalize"
	"github.com/Clish254/sol-dex-pools/internal/types"
)

// Provider is one pool data source: it fetches raw pools for a pair and
// returns them already normalized to canonical records.
type Provider interface {
	// Source identifies the provider
	Source() types.Source

	// ReportsVolume declares whether this source reports 24h volume.
	// Scoring reweights for sources that never have it.
	ReportsVolume() bool

	// Fetch retrieves and normalizes all pools for the pair
	Fetch(ctx context.Context, tokenA, tokenB string, hints fetch.Hints) ([]model.PoolRecord, error)
}

// DefaultProviders builds the provider set enabled by the configuration.
// Each binding takes its volume-reporting capability from the per-source
// settings so it has a single home in config.
func DefaultProviders(cfg config.Config) []Provider {
	pricing := normalize.Pricing{NativePriceUSD: cfg.SolPriceUSD}

	all := []Provider{
		&raydiumProvider{client: fetch.NewRaydiumClient(cfg), pricing: pricing,
			reports: cfg.Source(types.SourceRaydium).ReportsVolume},
		&orcaProvider{client: fetch.NewOrcaClient(cfg), pricing: pricing,
			reports: cfg.Source(types.SourceOrca).ReportsVolume},
		&meteoraProvider{client: fetch.NewMeteoraClient(cfg), pricing: pricing,
			reports: cfg.Source(types.SourceMeteora).ReportsVolume},
		&meteoraDLMMProvider{client: fetch.NewMeteoraDLMMClient(cfg), pricing: pricing,
			reports: cfg.Source(types.SourceMeteoraDLMM).ReportsVolume},
		&whirlpoolProvider{client: fetch.NewWhirlpoolClient(cfg), pricing: pricing,
			reports: cfg.Source(types.SourceWhirlpool).ReportsVolume},
	}

	var enabled []Provider
	for _, p := range all {
		if cfg.SourceEnabled(p.Source()) {
			enabled = append(enabled, p)
		}
	}
	return enabled
}

type raydiumProvider struct {
	client  *fetch.RaydiumClient
	pricing normalize.Pricing
	reports bool
}

func (p *raydiumProvider) Source() types.Source { return types.SourceRaydium }
func (p *raydiumProvider) ReportsVolume() bool  { return p.reports }

func (p *raydiumProvider) Fetch(ctx context.Context, tokenA, tokenB string, hints fetch.Hints) ([]model.PoolRecord, error) {
	pools, err := p.client.Fetch(ctx, tokenA, tokenB, hints)
	if err != nil {
		return nil, err
	}

	var records []model.PoolRecord
	for _, pool := range pools {
		if rec, ok := normalize.Raydium(pool, p.pricing); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

type orcaProvider struct {
	client  *fetch.OrcaClient
	pricing normalize.Pricing
	reports bool
}

func (p *orcaProvider) Source() types.Source { return types.SourceOrca }
func (p *orcaProvider) ReportsVolume() bool  { return p.reports }

func (p *orcaProvider) Fetch(ctx context.Context, tokenA, tokenB string, hints fetch.Hints) ([]model.PoolRecord, error) {
	pools, err := p.client.Fetch(ctx, tokenA, tokenB, hints)
	if err != nil {
		return nil, err
	}

	var records []model.PoolRecord
	for _, pool := range pools {
		if rec, ok := normalize.Orca(pool, p.pricing); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

type meteoraProvider struct {
	client  *fetch.MeteoraClient
	pricing normalize.Pricing
	reports bool
}

func (p *meteoraProvider) Source() types.Source { return types.SourceMeteora }
func (p *meteoraProvider) ReportsVolume() bool  { return p.reports }

func (p *meteoraProvider) Fetch(ctx context.Context, tokenA, tokenB string, hints fetch.Hints) ([]model.PoolRecord, error) {
	pools, err := p.client.Fetch(ctx, tokenA, tokenB, hints)
	if err != nil {
		return nil, err
	}

	var records []model.PoolRecord
	for _, pool := range pools {
		if rec, ok := normalize.Meteora(pool, p.pricing); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

type meteoraDLMMProvider struct {
	client  *fetch.MeteoraDLMMClient
	pricing normalize.Pricing
	reports bool
}

func (p *meteoraDLMMProvider) Source() types.Source { return types.SourceMeteoraDLMM }
func (p *meteoraDLMMProvider) ReportsVolume() bool  { return p.reports }

func (p *meteoraDLMMProvider) Fetch(ctx context.Context, tokenA, tokenB string, hints fetch.Hints) ([]model.PoolRecord, error) {
	pairs, err := p.client.Fetch(ctx, tokenA, tokenB, hints)
	if err != nil {
		return nil, err
	}

	var records []model.PoolRecord
	for _, pair := range pairs {
		if rec, ok := normalize.MeteoraDLMM(pair, p.pricing); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

type whirlpoolProvider struct {
	client  *fetch.WhirlpoolClient
	pricing normalize.Pricing
	reports bool
}

func (p *whirlpoolProvider) Source() types.Source { return types.SourceWhirlpool }
func (p *whirlpoolProvider) ReportsVolume() bool  { return p.reports }

func (p *whirlpoolProvider) Fetch(ctx context.Context, tokenA, tokenB string, hints fetch.Hints) ([]model.PoolRecord, error) {
	accounts, err := p.client.Fetch(ctx, tokenA, tokenB, hints)
	if err != nil {
		return nil, err
	}

	var records []model.PoolRecord
	for _, acc := range accounts {
		if rec, ok := normalize.Whirlpool(acc, p.pricing); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}
