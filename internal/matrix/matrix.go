// Package matrix builds and caches the course attribute matrix: one
// criterion score vector per unique course in the catalog.
package matrix

import (
	"github.com/coursecompass/decision-engine/internal/classify"
	"github.com/coursecompass/decision-engine/internal/criteria"
)

// #region attribute-matrix

// AttributeMatrix maps course name -> criterion -> score. It also remembers
// catalog insertion order, which the ranking engine uses for tie-breaks.
type AttributeMatrix struct {
	scores map[string]criteria.ScoreVector
	order  []string
}

// NewAttributeMatrix returns an empty matrix.
func NewAttributeMatrix() *AttributeMatrix {
	return &AttributeMatrix{scores: make(map[string]criteria.ScoreVector)}
}

// Set stores the vector for a course, appending to the order on first insert.
func (m *AttributeMatrix) Set(course string, v criteria.ScoreVector) {
	if _, ok := m.scores[course]; !ok {
		m.order = append(m.order, course)
	}
	m.scores[course] = v
}

// Get returns the vector for a course.
func (m *AttributeMatrix) Get(course string) (criteria.ScoreVector, bool) {
	v, ok := m.scores[course]
	return v, ok
}

// Courses returns course names in catalog insertion order.
func (m *AttributeMatrix) Courses() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Len returns the number of courses in the matrix.
func (m *AttributeMatrix) Len() int {
	return len(m.scores)
}

// Snapshot returns the plain course -> criterion -> score mapping, the shape
// the cache serializes and the API exposes.
func (m *AttributeMatrix) Snapshot() map[string]map[criteria.Criterion]int {
	out := make(map[string]map[criteria.Criterion]int, len(m.scores))
	for course, v := range m.scores {
		row := make(map[criteria.Criterion]int, len(v))
		for c, s := range v {
			row[c] = s
		}
		out[course] = row
	}
	return out
}

// #endregion attribute-matrix

// #region builder

// Build classifies every unique course once and assembles the matrix.
// Deterministic: the same catalog always yields the same matrix. An empty
// course list yields an empty matrix, not an error.
func Build(courses []string) *AttributeMatrix {
	m := NewAttributeMatrix()
	seen := make(map[string]bool, len(courses))
	for _, course := range courses {
		if seen[course] {
			continue
		}
		seen[course] = true
		m.Set(course, classify.Classify(course))
	}
	return m
}

// #endregion builder
