package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/coursecompass/decision-engine/internal/criteria"
)

const streamsFixture = `{
  "science": {
    "description": "Science stream",
    "combinations": [
      {
        "id": "pcm",
        "name": "Physics, Chemistry, Mathematics",
        "subjects": ["Physics", "Chemistry", "Mathematics"],
        "courses": ["B.Tech Computer Science", "B.Sc Physics"],
        "new_courses": ["B.Tech Artificial Intelligence"]
      },
      {
        "id": "pcb",
        "name": "Physics, Chemistry, Biology",
        "courses": ["MBBS", "B.Sc Physics"]
      }
    ]
  },
  "humanities": {
    "description": "Humanities stream",
    "combinations": [
      {
        "id": "hist-pol",
        "name": "History and Political Science",
        "courses": ["B.A. History", "LLB"]
      }
    ]
  }
}`

const questionsFixture = `{
  "core_questions": [
    {
      "id": "q_stability",
      "text": "How important is job stability to you?",
      "criterion": "stability",
      "options": [
        {"text": "Not important", "value": 1},
        {"text": "Very important", "value": 4}
      ]
    }
  ],
  "stream_specific_questions": {
    "science": [
      {
        "id": "q_math",
        "text": "How comfortable are you with mathematics?",
        "criterion": "math_comfort",
        "options": [
          {"text": "Uncomfortable", "value": 1},
          {"text": "Very comfortable", "value": 4}
        ]
      }
    ]
  }
}`

func writeFixtures(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	streamsPath := filepath.Join(dir, "streams.json")
	questionsPath := filepath.Join(dir, "questions.json")
	if err := os.WriteFile(streamsPath, []byte(streamsFixture), 0o644); err != nil {
		t.Fatalf("write streams: %v", err)
	}
	if err := os.WriteFile(questionsPath, []byte(questionsFixture), 0o644); err != nil {
		t.Fatalf("write questions: %v", err)
	}
	return streamsPath, questionsPath
}

func loadFixture(t *testing.T) *Catalog {
	t.Helper()
	streamsPath, questionsPath := writeFixtures(t)
	cat, err := Load(streamsPath, questionsPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return cat
}

func TestLoadAndDomains(t *testing.T) {
	cat := loadFixture(t)
	domains := cat.Domains()
	if len(domains) != 2 {
		t.Fatalf("expected 2 domains, got %d", len(domains))
	}
	// Sorted by name.
	if domains[0].Name != "humanities" || domains[1].Name != "science" {
		t.Fatalf("domain order: %v", domains)
	}
	if domains[1].CombinationCount != 2 {
		t.Fatalf("science combination count = %d, want 2", domains[1].CombinationCount)
	}
}

func TestCombinationsLookup(t *testing.T) {
	cat := loadFixture(t)
	combos, ok := cat.Combinations("science")
	if !ok || len(combos) != 2 {
		t.Fatalf("science combinations: ok=%v len=%d", ok, len(combos))
	}
	if _, ok := cat.Combinations("unknown"); ok {
		t.Fatal("unknown domain should not resolve")
	}
}

func TestCoursesForCombinationIncludesNewCourses(t *testing.T) {
	cat := loadFixture(t)
	courses, ok := cat.CoursesForCombination("pcm")
	if !ok {
		t.Fatal("pcm should resolve")
	}
	want := []string{"B.Tech Computer Science", "B.Sc Physics", "B.Tech Artificial Intelligence"}
	if len(courses) != len(want) {
		t.Fatalf("courses = %v", courses)
	}
	for i := range want {
		if courses[i] != want[i] {
			t.Fatalf("courses[%d] = %s, want %s", i, courses[i], want[i])
		}
	}
	if _, ok := cat.CoursesForCombination("nope"); ok {
		t.Fatal("unknown combination should not resolve")
	}
}

func TestUniqueCoursesDeduplicates(t *testing.T) {
	cat := loadFixture(t)
	courses := cat.UniqueCourses()
	seen := make(map[string]int)
	for _, c := range courses {
		seen[c]++
	}
	// B.Sc Physics appears in two combinations but once in the flat set.
	if seen["B.Sc Physics"] != 1 {
		t.Fatalf("B.Sc Physics seen %d times", seen["B.Sc Physics"])
	}
	if len(courses) != 6 {
		t.Fatalf("expected 6 unique courses, got %d: %v", len(courses), courses)
	}
}

func TestQuestionsForDomain(t *testing.T) {
	cat := loadFixture(t)
	science := cat.QuestionsForDomain("science")
	if len(science) != 2 {
		t.Fatalf("science questions = %d, want 2 (core + specific)", len(science))
	}
	humanities := cat.QuestionsForDomain("humanities")
	if len(humanities) != 1 {
		t.Fatalf("humanities questions = %d, want 1 (core only)", len(humanities))
	}

	qmap := cat.CriterionByQuestion("science")
	if qmap["q_math"] != criteria.MathComfort {
		t.Fatalf("q_math criterion = %s", qmap["q_math"])
	}
	if qmap["q_stability"] != criteria.Stability {
		t.Fatalf("q_stability criterion = %s", qmap["q_stability"])
	}
}

func TestHashStableAndSensitive(t *testing.T) {
	cat := loadFixture(t)
	h1 := cat.Hash()
	h2 := cat.Hash()
	if h1 != h2 {
		t.Fatal("hash not stable on unchanged catalog")
	}

	other := loadFixture(t)
	d := other.Streams["science"]
	d.Combinations[0].Courses = append(d.Combinations[0].Courses, "B.Design")
	other.Streams["science"] = d
	if other.Hash() == h1 {
		t.Fatal("hash should change when the course population changes")
	}
}
