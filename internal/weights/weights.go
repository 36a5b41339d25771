// Package weights converts questionnaire answers into normalized criterion
// weights and applies interactive single-weight edits. Every vector exposed
// by this package sums to one within SumTolerance; operations that cannot
// guarantee that fail closed and leave their input untouched.
package weights

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/coursecompass/decision-engine/internal/criteria"
)

// SumTolerance is the allowed drift of a normalized vector's sum from 1.0.
const SumTolerance = 1e-9

// #region errors

var (
	// ErrInsufficientData means derivation saw a zero total raw score;
	// at least one answered question must carry weight.
	ErrInsufficientData = errors.New("insufficient data: answer at least one question")

	// ErrZeroSum means a weight edit produced an all-zero vector; the
	// adjustment is rejected and the prior vector stands.
	ErrZeroSum = errors.New("adjustment rejected: weights would sum to zero")

	// ErrUnknownCriterion means the edit targeted a criterion key outside
	// the known set.
	ErrUnknownCriterion = errors.New("unknown criterion")

	// ErrValueOutOfRange means the edited value fell outside [0, 1].
	ErrValueOutOfRange = errors.New("weight value out of range [0,1]")
)

// #endregion errors

// #region types

// RawScores accumulates answer values per criterion before normalization.
type RawScores map[criteria.Criterion]float64

// Vector is a normalized importance distribution over criteria.
type Vector map[criteria.Criterion]float64

// Clone returns an independent copy of the vector.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for c, w := range v {
		out[c] = w
	}
	return out
}

// Sum returns the total of all entries.
func (v Vector) Sum() float64 {
	var total float64
	for _, w := range v {
		total += w
	}
	return total
}

// Validate checks the sum-to-one invariant. A zero-length vector is valid
// (nothing has been derived yet).
func (v Vector) Validate() error {
	if len(v) == 0 {
		return nil
	}
	if d := math.Abs(v.Sum() - 1.0); d > SumTolerance {
		return fmt.Errorf("weight sum off by %g", d)
	}
	return nil
}

// #endregion types

// #region derive

// Derive accumulates each answered question's value into the raw bucket of
// the criterion that question targets, then normalizes by the total.
// Criteria with no contributing answers stay at exactly zero and therefore
// receive zero weight. Answers for unknown question IDs are ignored, matching
// the questionnaire contract (only listed questions count).
func Derive(answers map[string]float64, criterionByQuestion map[string]criteria.Criterion) (RawScores, Vector, error) {
	raw := make(RawScores, len(criteria.All()))
	for _, c := range criteria.All() {
		raw[c] = criteria.ZeroRaw
	}

	for questionID, target := range criterionByQuestion {
		value, answered := answers[questionID]
		if !answered {
			continue
		}
		raw[target] += value
	}

	var total float64
	for _, score := range raw {
		total += score
	}
	if total <= 0 {
		return raw, nil, ErrInsufficientData
	}

	v := make(Vector, len(raw))
	for c, score := range raw {
		v[c] = score / total
	}
	return raw, v, nil
}

// SortedCriteria returns criteria ordered by descending weight. Equal
// weights fall back to name order so the result is deterministic.
func SortedCriteria(v Vector) []criteria.Criterion {
	out := make([]criteria.Criterion, 0, len(v))
	for c := range v {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if v[out[i]] != v[out[j]] {
			return v[out[i]] > v[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// #endregion derive

// #region adjust

// Adjust sets one criterion's weight to newValue (0-1), keeps every other
// entry at its prior absolute value, then renormalizes the whole vector
// including the edited entry. The caller's supplied value is a relative
// pull, not an absolute pin: it only survives normalization verbatim when
// the remaining entries already summed to 1-newValue.
//
// Fail-closed: an edit whose resulting total is <= 0 returns the input
// vector unchanged alongside ErrZeroSum.
func Adjust(current Vector, criterion criteria.Criterion, newValue float64) (Vector, error) {
	if !criteria.Known(criterion) {
		return current, fmt.Errorf("%w: %s", ErrUnknownCriterion, criterion)
	}
	if newValue < 0 || newValue > 1 {
		return current, fmt.Errorf("%w: %g", ErrValueOutOfRange, newValue)
	}

	updated := current.Clone()
	updated[criterion] = newValue

	total := updated.Sum()
	if total <= 0 {
		return current, ErrZeroSum
	}

	for c, w := range updated {
		updated[c] = w / total
	}
	return updated, nil
}

// AdjustPercent is Adjust with the value given in slider percentage points
// (0-100), the unit the interactive weight editor works in.
func AdjustPercent(current Vector, criterion criteria.Criterion, percent float64) (Vector, error) {
	return Adjust(current, criterion, percent/100)
}

// #endregion adjust
