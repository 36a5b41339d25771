// Package ranking applies normalized criterion weights to the attribute
// matrix and produces an ordered recommendation list. Rankers are pure:
// the result holds copies, never references into the matrix or weights.
package ranking

import (
	"sort"

	"github.com/coursecompass/decision-engine/internal/criteria"
	"github.com/coursecompass/decision-engine/internal/matrix"
	"github.com/coursecompass/decision-engine/internal/weights"
)

// DefaultTopK is the detailed-comparison prefix length.
const DefaultTopK = 3

// #region types

// RankedCourse carries the scalar score plus the full criterion snapshot and
// per-criterion contributions for downstream display (radar comparisons).
type RankedCourse struct {
	Course          string                         `json:"course"`
	FinalScore      float64                        `json:"final_score"`
	CriterionScores map[criteria.Criterion]int     `json:"criterion_scores"`
	Contributions   map[criteria.Criterion]float64 `json:"contributions"`
}

// Result is the ordered recommendation list with its top-k prefix.
type Result struct {
	Ranked []RankedCourse `json:"ranked_courses"`
	TopK   []RankedCourse `json:"top_k"`
}

// #endregion types

// #region rank

// Rank scores every course in the matrix. finalScore is the weighted sum
// over criteria present in both the weight vector and the matrix row;
// unweighted criteria contribute nothing. Sorting is descending by score
// with ties keeping catalog insertion order. topK <= 0 uses DefaultTopK.
func Rank(m *matrix.AttributeMatrix, w weights.Vector, topK int) Result {
	return RankSubset(m, m.Courses(), w, topK)
}

// RankSubset ranks only the named courses, preserving their given order for
// tie-breaks. Courses absent from the matrix are skipped, so a combination
// referencing an unclassified course degrades to the classifiable remainder.
func RankSubset(m *matrix.AttributeMatrix, courses []string, w weights.Vector, topK int) Result {
	if topK <= 0 {
		topK = DefaultTopK
	}

	ranked := make([]RankedCourse, 0, len(courses))
	for _, course := range courses {
		row, ok := m.Get(course)
		if !ok {
			continue
		}
		ranked = append(ranked, score(course, row, w))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})

	k := topK
	if k > len(ranked) {
		k = len(ranked)
	}
	return Result{Ranked: ranked, TopK: ranked[:k]}
}

func score(course string, row criteria.ScoreVector, w weights.Vector) RankedCourse {
	snapshot := make(map[criteria.Criterion]int, len(row))
	for c, s := range row {
		snapshot[c] = s
	}

	contributions := make(map[criteria.Criterion]float64, len(w))
	var final float64
	for c, weight := range w {
		s, ok := row[c]
		if !ok {
			continue
		}
		contribution := weight * float64(s)
		contributions[c] = contribution
		final += contribution
	}

	return RankedCourse{
		Course:          course,
		FinalScore:      final,
		CriterionScores: snapshot,
		Contributions:   contributions,
	}
}

// #endregion rank
