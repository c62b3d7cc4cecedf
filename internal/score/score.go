// Package score implements the pool health heuristic: a weighted blend of
// log-scaled liquidity, log-scaled volume, and an inverted fee component,
// each clamped to [0, 1].
package score

import (
	"math"

	"github.com/Clish254/sol-dex-pools/internal/model"
)

// Weights blends the three score components. They are expected to sum
// to 1.0 so that scores land in [0, 1].
type Weights struct {
	Liquidity float64
	Volume    float64
	Fee       float64
}

// Config carries the scoring parameters.
type Config struct {
	Weights Weights

	// LiquidityCeiling is the USD value at which the log-scaled
	// liquidity and volume components saturate at 1.0
	LiquidityCeiling float64

	// FeeCeiling is the fee percentage at or above which the fee
	// component is 0
	FeeCeiling float64
}

// DefaultConfig returns the standard scoring parameters: liquidity and
// volume weighted equally and heavily, fees as a light tiebreaker,
// saturating at $10M.
func DefaultConfig() Config {
	return Config{
		Weights:          Weights{Liquidity: 0.45, Volume: 0.45, Fee: 0.10},
		LiquidityCeiling: 10_000_000,
		FeeCeiling:       5.0,
	}
}

// Score computes the health score for one record. reportsVolume declares
// whether the record's source reports volume at all: when it does not,
// the volume weight is dropped and the remaining weights renormalized, so
// the source is not punished for data it can never have. A record from a
// volume-reporting source that is missing volume simply earns a zero
// volume component.
func (c Config) Score(rec model.PoolRecord, reportsVolume bool) float64 {
	w := c.Weights
	if !reportsVolume {
		rest := w.Liquidity + w.Fee
		if rest <= 0 {
			return 0
		}
		scale := (w.Liquidity + w.Volume + w.Fee) / rest
		w = Weights{Liquidity: w.Liquidity * scale, Fee: w.Fee * scale}
	}

	s := w.Liquidity * c.logComponent(rec.LiquidityUSD)
	if rec.HasVolume() {
		s += w.Volume * c.logComponent(*rec.Volume24hUSD)
	}
	s += w.Fee * c.feeComponent(rec.FeePct)
	return s
}

// logComponent maps a USD value onto [0, 1] on a log10 scale that
// saturates at the ceiling. Values at or below $1 contribute nothing.
func (c Config) logComponent(usd float64) float64 {
	if usd <= 1 || c.LiquidityCeiling <= 1 {
		return 0
	}
	return clamp(math.Log10(usd) / math.Log10(c.LiquidityCeiling))
}

// feeComponent rewards low fees linearly: 0% maps to 1.0 and anything at
// or above the ceiling maps to 0.
func (c Config) feeComponent(feePct float64) float64 {
	if c.FeeCeiling <= 0 {
		return 0
	}
	return clamp(1 - feePct/c.FeeCeiling)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
