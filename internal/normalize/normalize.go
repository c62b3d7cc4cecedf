// Package normalize converts raw provider schemas into canonical pool
// records. Each converter is total: a malformed entry is dropped, never
// propagated as an error, so one bad pool cannot take down a whole source.
package normalize

import (
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/Clish254/sol-dex-pools/internal/fetch"
	"github.com/Clish254/sol-dex-pools/internal/model"
	"github.com/Clish254/sol-dex-pools/internal/types"
)

// Raydium converts a raw Raydium pool. Raydium reports its fee rate as a
// fraction (0.003 for 0.30%), so it is rescaled to the percent scale here.
func Raydium(p fetch.RaydiumPool, pr Pricing) (model.PoolRecord, bool) {
	if p.ID == "" || p.TVL <= 0 {
		return model.PoolRecord{}, false
	}

	rec := model.PoolRecord{
		Source:         types.SourceRaydium,
		Name:           p.MintA.Symbol + "-" + p.MintB.Symbol,
		PoolID:         p.ID,
		PriceUSD:       pr.ToUSD(p.Price, p.MintA.Address, p.MintB.Address),
		LiquidityUSD:   p.TVL,
		FeePct:         p.FeeRate * 100,
		TokenAddresses: [2]string{p.MintA.Address, p.MintB.Address},
	}
	if p.Day.Volume > 0 {
		rec.Volume24hUSD = model.Volume(p.Day.Volume)
	}
	return rec, true
}

// Orca converts a raw Orca pool. Orca serializes price and TVL as decimal
// strings and reports the fee rate in hundredths of a basis point
// (3000 for 0.30%).
func Orca(p fetch.OrcaPool, pr Pricing) (model.PoolRecord, bool) {
	if p.Address == "" {
		return model.PoolRecord{}, false
	}

	price, err := strconv.ParseFloat(p.Price, 64)
	if err != nil {
		logrus.Debugf("Dropping orca pool %s: bad price %q", p.Address, p.Price)
		return model.PoolRecord{}, false
	}
	tvl, err := strconv.ParseFloat(p.TVLUsdc, 64)
	if err != nil || tvl <= 0 {
		logrus.Debugf("Dropping orca pool %s: bad tvl %q", p.Address, p.TVLUsdc)
		return model.PoolRecord{}, false
	}

	rec := model.PoolRecord{
		Source:         types.SourceOrca,
		Name:           p.TokenA.Symbol + "-" + p.TokenB.Symbol,
		PoolID:         p.Address,
		PriceUSD:       pr.ToUSD(price, p.TokenMintA, p.TokenMintB),
		LiquidityUSD:   tvl,
		FeePct:         float64(p.FeeRate) / 10000,
		TokenAddresses: [2]string{p.TokenMintA, p.TokenMintB},
	}
	// volume is optional; a malformed value costs the field, not the record
	if p.Stats.Day.Volume != nil {
		if v, err := strconv.ParseFloat(*p.Stats.Day.Volume, 64); err == nil && v > 0 {
			rec.Volume24hUSD = model.Volume(v)
		}
	}
	return rec, true
}

// Meteora converts a raw Meteora AMM pool. The API reports no pair price,
// so one is derived from the reserve ratio.
func Meteora(p fetch.MeteoraPool, pr Pricing) (model.PoolRecord, bool) {
	if p.PoolAddress == "" || len(p.PoolTokenMints) != 2 || len(p.PoolTokenAmounts) != 2 {
		return model.PoolRecord{}, false
	}

	tvl, err := strconv.ParseFloat(p.PoolTVL, 64)
	if err != nil || tvl <= 0 {
		logrus.Debugf("Dropping meteora pool %s: bad tvl %q", p.PoolAddress, p.PoolTVL)
		return model.PoolRecord{}, false
	}
	feePct, err := strconv.ParseFloat(p.TotalFeePct, 64)
	if err != nil {
		logrus.Debugf("Dropping meteora pool %s: bad fee %q", p.PoolAddress, p.TotalFeePct)
		return model.PoolRecord{}, false
	}

	var amounts [2]float64
	for i, raw := range p.PoolTokenAmounts {
		amounts[i], err = strconv.ParseFloat(raw, 64)
		if err != nil {
			logrus.Debugf("Dropping meteora pool %s: bad reserve %q", p.PoolAddress, raw)
			return model.PoolRecord{}, false
		}
	}

	mints := [2]string{p.PoolTokenMints[0], p.PoolTokenMints[1]}
	price, ok := pr.RatioPrice(mints, amounts)
	if !ok {
		return model.PoolRecord{}, false
	}

	rec := model.PoolRecord{
		Source:         types.SourceMeteora,
		Name:           p.PoolName,
		PoolID:         p.PoolAddress,
		PriceUSD:       price,
		LiquidityUSD:   tvl,
		FeePct:         feePct,
		TokenAddresses: mints,
	}
	if p.TradingVolume > 0 {
		rec.Volume24hUSD = model.Volume(p.TradingVolume)
	}
	return rec, true
}

// MeteoraDLMM converts a raw Meteora DLMM pair. Hidden and blacklisted
// pairs are dropped outright. The base fee is already on the percent
// scale.
func MeteoraDLMM(p fetch.DLMMPair, pr Pricing) (model.PoolRecord, bool) {
	if p.Address == "" || p.Hide || p.IsBlacklisted {
		return model.PoolRecord{}, false
	}

	liquidity, err := strconv.ParseFloat(p.Liquidity, 64)
	if err != nil || liquidity <= 0 {
		logrus.Debugf("Dropping dlmm pair %s: bad liquidity %q", p.Address, p.Liquidity)
		return model.PoolRecord{}, false
	}
	feePct, err := strconv.ParseFloat(p.BaseFeePercentage, 64)
	if err != nil {
		logrus.Debugf("Dropping dlmm pair %s: bad fee %q", p.Address, p.BaseFeePercentage)
		return model.PoolRecord{}, false
	}

	rec := model.PoolRecord{
		Source:         types.SourceMeteoraDLMM,
		Name:           p.Name,
		PoolID:         p.Address,
		PriceUSD:       pr.ToUSD(p.CurrentPrice, p.MintX, p.MintY),
		LiquidityUSD:   liquidity,
		FeePct:         feePct,
		TokenAddresses: [2]string{p.MintX, p.MintY},
	}
	if p.TradeVolume24h > 0 {
		rec.Volume24hUSD = model.Volume(p.TradeVolume24h)
	}
	return rec, true
}

// Whirlpool converts a decoded on-chain Whirlpool account. Chain state
// carries no volume, and liquidity is the raw u128 from the account,
// approximated in USD from the pool's own derived price. The on-chain
// fee rate is in hundredths of a basis point.
func Whirlpool(p fetch.WhirlpoolAccount, pr Pricing) (model.PoolRecord, bool) {
	if p.Liquidity <= 0 {
		return model.PoolRecord{}, false
	}

	priceUSD := pr.ToUSD(p.Price, p.TokenMintA, p.TokenMintB)
	return model.PoolRecord{
		Source:         types.SourceWhirlpool,
		Name:           shortMint(p.TokenMintA) + "-" + shortMint(p.TokenMintB),
		PoolID:         p.Address,
		PriceUSD:       priceUSD,
		LiquidityUSD:   p.Liquidity * 1e-9 * priceUSD,
		FeePct:         float64(p.FeeRate) / 10000,
		TokenAddresses: [2]string{p.TokenMintA, p.TokenMintB},
	}, true
}

// shortMint abbreviates a mint address for display labels.
func shortMint(mint string) string {
	if len(mint) <= 4 {
		return mint
	}
	return mint[:4]
}
