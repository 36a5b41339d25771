// Package criteria defines the decision dimensions used to score courses.
package criteria

// #region score-scale

// Score bounds for the course attribute scale. Every matrix cell holds an
// integer in [ScoreMin, ScoreMax]; courses matching no category keep
// NeutralScore on every criterion.
const (
	ScoreMin     = 1
	ScoreMax     = 4
	NeutralScore = 2
)

// ZeroRaw is the contribution of a criterion with no answered questions.
const ZeroRaw = 0.0

// #endregion score-scale

// #region criterion

// Criterion is a named decision dimension (e.g. income_priority).
type Criterion string

const (
	Stability             Criterion = "stability"
	Analytical            Criterion = "analytical"
	IncomePriority        Criterion = "income_priority"
	YearsWilling          Criterion = "years_willing"
	FinancialSupport      Criterion = "financial_support"
	CompetitiveConfidence Criterion = "competitive_confidence"
	SectorPreference      Criterion = "sector_preference"
	MathComfort           Criterion = "math_comfort"
	ResearchInterest      Criterion = "research_interest"
	StressTolerance       Criterion = "stress_tolerance"
)

// #endregion criterion

// #region criterion-sets

// All returns every known criterion. Order is stable but not meaningful.
func All() []Criterion {
	return []Criterion{
		Stability,
		Analytical,
		IncomePriority,
		YearsWilling,
		FinancialSupport,
		CompetitiveConfidence,
		SectorPreference,
		MathComfort,
		ResearchInterest,
		StressTolerance,
	}
}

// Primary returns the subset shown by default in weight displays.
func Primary() []Criterion {
	return []Criterion{Stability, Analytical, IncomePriority, YearsWilling}
}

// Known reports whether c is a recognized criterion key.
func Known(c Criterion) bool {
	for _, k := range All() {
		if k == c {
			return true
		}
	}
	return false
}

// #endregion criterion-sets

// #region score-vector

// ScoreVector holds one integer score per criterion for a single course.
type ScoreVector map[Criterion]int

// NeutralVector returns a vector with every criterion at NeutralScore.
func NeutralVector() ScoreVector {
	v := make(ScoreVector, len(All()))
	for _, c := range All() {
		v[c] = NeutralScore
	}
	return v
}

// Clone returns an independent copy of the vector.
func (v ScoreVector) Clone() ScoreVector {
	out := make(ScoreVector, len(v))
	for c, s := range v {
		out[c] = s
	}
	return out
}

// #endregion score-vector
