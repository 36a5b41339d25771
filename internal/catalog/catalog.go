// Package catalog loads and serves the static course catalog and
// questionnaire data that feed the scoring engine.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-json"

	"github.com/coursecompass/decision-engine/internal/criteria"
)

// #region types

// Combination is one subject combination inside a domain, with its course list.
type Combination struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Subjects   []string `json:"subjects,omitempty"`
	Courses    []string `json:"courses"`
	NewCourses []string `json:"new_courses,omitempty"`
}

// Domain groups the combinations offered under one academic stream.
type Domain struct {
	Description  string        `json:"description"`
	Combinations []Combination `json:"combinations"`
}

// QuestionOption is one selectable answer with its numeric scale value.
type QuestionOption struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}

// Question targets a single criterion with an ordered option set.
type Question struct {
	ID        string             `json:"id"`
	Text      string             `json:"text"`
	Criterion criteria.Criterion `json:"criterion"`
	Options   []QuestionOption   `json:"options"`
}

// Questionnaire holds the core questions plus per-domain extensions.
type Questionnaire struct {
	CoreQuestions           []Question            `json:"core_questions"`
	StreamSpecificQuestions map[string][]Question `json:"stream_specific_questions"`
}

// Catalog is the full loaded dataset: streams plus questionnaire.
type Catalog struct {
	Streams       map[string]Domain
	Questionnaire Questionnaire
}

// DomainSummary is the listing shape served to clients.
type DomainSummary struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	CombinationCount int    `json:"combination_count"`
}

// #endregion types

// #region load

// Load reads the streams and questions JSON files into a Catalog.
func Load(streamsPath, questionsPath string) (*Catalog, error) {
	streamsRaw, err := os.ReadFile(streamsPath)
	if err != nil {
		return nil, fmt.Errorf("read streams: %w", err)
	}
	questionsRaw, err := os.ReadFile(questionsPath)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}

	var streams map[string]Domain
	if err := json.Unmarshal(streamsRaw, &streams); err != nil {
		return nil, fmt.Errorf("parse streams: %w", err)
	}
	var q Questionnaire
	if err := json.Unmarshal(questionsRaw, &q); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}

	return &Catalog{Streams: streams, Questionnaire: q}, nil
}

// #endregion load

// #region accessors

// Domains returns the stream listing sorted by name.
func (c *Catalog) Domains() []DomainSummary {
	out := make([]DomainSummary, 0, len(c.Streams))
	for name, d := range c.Streams {
		out = append(out, DomainSummary{
			Name:             name,
			Description:      d.Description,
			CombinationCount: len(d.Combinations),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Combinations returns the combinations for one domain.
func (c *Catalog) Combinations(domain string) ([]Combination, bool) {
	d, ok := c.Streams[domain]
	if !ok {
		return nil, false
	}
	return d.Combinations, true
}

// CoursesForCombination returns base plus new courses for a combination ID,
// searching every domain. The second return is false when the ID is unknown.
func (c *Catalog) CoursesForCombination(combinationID string) ([]string, bool) {
	for _, d := range c.Streams {
		for _, combo := range d.Combinations {
			if combo.ID == combinationID {
				courses := make([]string, 0, len(combo.Courses)+len(combo.NewCourses))
				courses = append(courses, combo.Courses...)
				courses = append(courses, combo.NewCourses...)
				return courses, true
			}
		}
	}
	return nil, false
}

// UniqueCourses flattens every course name across all domains and
// combinations, deduplicated, in first-seen order (domains visited in
// sorted name order so the result is deterministic).
func (c *Catalog) UniqueCourses() []string {
	names := make([]string, 0, len(c.Streams))
	for name := range c.Streams {
		names = append(names, name)
	}
	sort.Strings(names)

	seen := make(map[string]bool)
	var courses []string
	add := func(course string) {
		if !seen[course] {
			seen[course] = true
			courses = append(courses, course)
		}
	}
	for _, name := range names {
		for _, combo := range c.Streams[name].Combinations {
			for _, course := range combo.Courses {
				add(course)
			}
			for _, course := range combo.NewCourses {
				add(course)
			}
		}
	}
	return courses
}

// QuestionsForDomain returns core questions followed by the domain-specific
// set. Unknown domains get core questions only.
func (c *Catalog) QuestionsForDomain(domain string) []Question {
	qs := make([]Question, 0, len(c.Questionnaire.CoreQuestions))
	qs = append(qs, c.Questionnaire.CoreQuestions...)
	qs = append(qs, c.Questionnaire.StreamSpecificQuestions[domain]...)
	return qs
}

// CriterionByQuestion builds the question-id -> criterion map for a domain.
func (c *Catalog) CriterionByQuestion(domain string) map[string]criteria.Criterion {
	m := make(map[string]criteria.Criterion)
	for _, q := range c.QuestionsForDomain(domain) {
		m[q.ID] = q.Criterion
	}
	return m
}

// HasDomain reports whether the domain exists in the catalog.
func (c *Catalog) HasDomain(domain string) bool {
	_, ok := c.Streams[domain]
	return ok
}

// #endregion accessors

// #region hash

// Hash returns a stable digest of the unique course list. Matrix cache
// versions are keyed by this, so a rebuild only happens when the course
// population actually changed.
func (c *Catalog) Hash() string {
	h := sha256.New()
	for _, course := range c.UniqueCourses() {
		h.Write([]byte(course))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// #endregion hash
