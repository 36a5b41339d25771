// Package classify maps raw course names to criterion score vectors using
// ordered keyword heuristics. Classification is total: any input, including
// an empty or unrecognized name, yields a complete vector.
package classify

import (
	"strings"

	"github.com/coursecompass/decision-engine/internal/criteria"
)

// #region keywords

var engineeringKeywords = []string{"b.tech", "be ", "engineering", "computer"}

var medicineKeywords = []string{"mbbs", "bds", "medicine", "nursing", "b.pharm"}

var scienceKeywords = []string{"b.sc", "science", "physics", "chemistry", "biology"}

var humanitiesKeywords = []string{"ba ", "bsw", "humanities", "history", "political", "sociology"}

var commerceKeywords = []string{"b.com", "bba", "finance", "accounting", "economics"}

var lawKeywords = []string{"llb", "law"}

var artsKeywords = []string{"design", "fine arts", "music", "architecture", "media", "journalism"}

// #endregion keywords

// #region category

// Category identifies one heuristic course category.
type Category string

const (
	CategoryEngineering Category = "engineering_technology"
	CategoryMedicine    Category = "medicine_healthcare"
	CategoryScience     Category = "basic_sciences"
	CategoryHumanities  Category = "humanities_social_sciences"
	CategoryCommerce    Category = "commerce_finance_management"
	CategoryLaw         Category = "law"
	CategoryArts        Category = "fine_arts_media_design"
	CategoryNone        Category = "uncategorized"
)

// #endregion category

// #region rules

// rule pairs a keyword predicate with its score overrides. Rules are checked
// strictly in order and the first match wins; the ordering is a behavioral
// contract, not a style choice ("B.Tech Computer Science" must classify as
// engineering even though it also contains "science").
type rule struct {
	category Category
	keywords []string
	apply    func(name string, v criteria.ScoreVector)
}

var rules = []rule{
	{
		category: CategoryEngineering,
		keywords: engineeringKeywords,
		apply: func(_ string, v criteria.ScoreVector) {
			v[criteria.Stability] = 3
			v[criteria.Analytical] = 4
			v[criteria.IncomePriority] = 4
			v[criteria.YearsWilling] = 2 // 4-year programs
			v[criteria.FinancialSupport] = 3
			v[criteria.CompetitiveConfidence] = 4 // JEE and similar entrance exams
			v[criteria.SectorPreference] = 1     // largely private sector
			v[criteria.MathComfort] = 4
			v[criteria.StressTolerance] = 3
		},
	},
	{
		category: CategoryMedicine,
		keywords: medicineKeywords,
		apply: func(_ string, v criteria.ScoreVector) {
			v[criteria.Stability] = 4
			v[criteria.Analytical] = 4
			v[criteria.IncomePriority] = 4
			v[criteria.YearsWilling] = 4 // 5.5+ years
			v[criteria.FinancialSupport] = 4
			v[criteria.CompetitiveConfidence] = 4 // NEET
			v[criteria.SectorPreference] = 2
			v[criteria.MathComfort] = 2
			v[criteria.ResearchInterest] = 3
			v[criteria.StressTolerance] = 4
		},
	},
	{
		category: CategoryScience,
		keywords: scienceKeywords,
		apply: func(name string, v criteria.ScoreVector) {
			v[criteria.Stability] = 2
			v[criteria.Analytical] = 3
			v[criteria.IncomePriority] = 2
			v[criteria.YearsWilling] = 3 // BSc + MSc typically
			v[criteria.FinancialSupport] = 2
			v[criteria.CompetitiveConfidence] = 3
			v[criteria.SectorPreference] = 3 // govt jobs, research
			// Nested rule: math comfort only for math/physics programs.
			if strings.Contains(name, "math") || strings.Contains(name, "physics") {
				v[criteria.MathComfort] = 4
			} else {
				v[criteria.MathComfort] = 2
			}
			v[criteria.ResearchInterest] = 4
			v[criteria.StressTolerance] = 3
		},
	},
	{
		category: CategoryHumanities,
		keywords: humanitiesKeywords,
		apply: func(_ string, v criteria.ScoreVector) {
			v[criteria.Stability] = 2
			v[criteria.Analytical] = 1
			v[criteria.IncomePriority] = 1
			v[criteria.YearsWilling] = 3 // BA + MA
			v[criteria.FinancialSupport] = 1
			v[criteria.CompetitiveConfidence] = 2
			v[criteria.SectorPreference] = 4 // civil services, academia
			v[criteria.MathComfort] = 1
			v[criteria.ResearchInterest] = 3
			v[criteria.StressTolerance] = 2
		},
	},
	{
		category: CategoryCommerce,
		keywords: commerceKeywords,
		apply: func(_ string, v criteria.ScoreVector) {
			v[criteria.Stability] = 3
			v[criteria.Analytical] = 3
			v[criteria.IncomePriority] = 4
			v[criteria.YearsWilling] = 2
			v[criteria.FinancialSupport] = 2
			v[criteria.CompetitiveConfidence] = 3 // CA/CS/CMA
			v[criteria.SectorPreference] = 1
			v[criteria.MathComfort] = 3
			v[criteria.StressTolerance] = 3
		},
	},
	{
		category: CategoryLaw,
		keywords: lawKeywords,
		apply: func(_ string, v criteria.ScoreVector) {
			v[criteria.Stability] = 3
			v[criteria.Analytical] = 3
			v[criteria.IncomePriority] = 3
			v[criteria.YearsWilling] = 3 // 5-year integrated
			v[criteria.FinancialSupport] = 3
			v[criteria.CompetitiveConfidence] = 4 // CLAT
			v[criteria.SectorPreference] = 2
			v[criteria.MathComfort] = 1
			v[criteria.StressTolerance] = 4
		},
	},
	{
		category: CategoryArts,
		keywords: artsKeywords,
		apply: func(_ string, v criteria.ScoreVector) {
			v[criteria.Stability] = 1
			v[criteria.Analytical] = 1
			v[criteria.IncomePriority] = 2
			v[criteria.YearsWilling] = 2
			v[criteria.FinancialSupport] = 3
			v[criteria.CompetitiveConfidence] = 3 // NIFT, NID
			v[criteria.SectorPreference] = 1 // private / freelance
			v[criteria.MathComfort] = 1
			v[criteria.StressTolerance] = 2
		},
	},
}

// #endregion rules

// #region classify

// Classify maps a course name to its criterion score vector. Matching is
// case-insensitive substring containment; every criterion starts at the
// neutral default and only the first matching category overrides it.
func Classify(courseName string) criteria.ScoreVector {
	v, _ := ClassifyWithCategory(courseName)
	return v
}

// ClassifyWithCategory also reports which category matched, or CategoryNone.
func ClassifyWithCategory(courseName string) (criteria.ScoreVector, Category) {
	v := criteria.NeutralVector()
	name := strings.ToLower(courseName)

	for _, r := range rules {
		if containsAny(name, r.keywords) {
			r.apply(name, v)
			return v, r.category
		}
	}
	return v, CategoryNone
}

// #endregion classify

// #region helpers

func containsAny(name string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// #endregion helpers
