// Package rank selects the healthiest pool from a scored aggregate.
package rank

import (
	"errors"
	"math"
	"sort"

	"github.com/Clish254/sol-dex-pools/internal/model"
)

// ErrNoPools is returned when selection runs over an empty aggregate.
var ErrNoPools = errors.New("no pools matched the requested pair")

// Best returns the record with the highest score. The first record
// encountered wins ties, so the outcome depends on aggregate order unless
// the caller sorts first. A NaN score never beats a real one; an
// all-NaN aggregate yields its first record.
func Best(scored []model.ScoredRecord) (model.ScoredRecord, error) {
	if len(scored) == 0 {
		return model.ScoredRecord{}, ErrNoPools
	}

	best := scored[0]
	for _, s := range scored[1:] {
		if greater(s.Score, best.Score) {
			best = s
		}
	}
	return best, nil
}

// greater reports whether a beats b, treating NaN as smaller than any
// real number. Equal scores do not beat each other, which is what keeps
// the first-encountered record on ties.
func greater(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a > b
}

// SortStable orders the aggregate by source then pool id, giving
// selection a reproducible order regardless of which source answered
// first.
func SortStable(scored []model.ScoredRecord) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i].Record, scored[j].Record
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.PoolID < b.PoolID
	})
}
