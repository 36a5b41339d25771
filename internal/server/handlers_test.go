package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coursecompass/decision-engine/internal/catalog"
	"github.com/coursecompass/decision-engine/internal/criteria"
	"github.com/coursecompass/decision-engine/internal/explain"
	"github.com/coursecompass/decision-engine/internal/matrix"
)

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Streams: map[string]catalog.Domain{
			"Science": {
				Description: "Science stream",
				Combinations: []catalog.Combination{
					{
						ID:         "pcm",
						Name:       "PCM",
						Subjects:   []string{"Physics", "Chemistry", "Mathematics"},
						Courses:    []string{"B.Tech Computer Science", "B.Sc Physics"},
						NewCourses: []string{"B.Sc Data Science"},
					},
					{
						ID:      "pcb",
						Name:    "PCB",
						Courses: []string{"MBBS", "B.Sc Biology"},
					},
				},
			},
			"Arts": {
				Description: "Arts stream",
				Combinations: []catalog.Combination{
					{ID: "hum", Name: "Humanities", Courses: []string{"B.A. History"}},
				},
			},
		},
		Questionnaire: catalog.Questionnaire{
			CoreQuestions: []catalog.Question{
				{
					ID:        "q1",
					Text:      "How much do you value job stability?",
					Criterion: criteria.Stability,
					Options: []catalog.QuestionOption{
						{Text: "Not at all", Value: 1},
						{Text: "Very much", Value: 4},
					},
				},
				{
					ID:        "q2",
					Text:      "How comfortable are you with advanced mathematics?",
					Criterion: criteria.MathComfort,
					Options: []catalog.QuestionOption{
						{Text: "Uncomfortable", Value: 1},
						{Text: "Very comfortable", Value: 4},
					},
				},
			},
			StreamSpecificQuestions: map[string][]catalog.Question{
				"Science": {
					{
						ID:        "sci1",
						Text:      "How interested are you in research?",
						Criterion: criteria.ResearchInterest,
						Options: []catalog.QuestionOption{
							{Text: "Not interested", Value: 1},
							{Text: "Very interested", Value: 4},
						},
					},
				},
			},
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cat := testCatalog()
	m := matrix.Build(cat.UniqueCourses())
	client := explain.NewClient("", time.Second, zap.NewNop())
	return New(cat, m, client, nil, zap.NewNop())
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestHealth(t *testing.T) {
	h := newTestServer(t).Router()
	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	decodeBody(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(6), body["courses"])
}

func TestStreams(t *testing.T) {
	h := newTestServer(t).Router()
	rec := doJSON(t, h, http.MethodGet, "/api/streams", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Domains []catalog.DomainSummary `json:"domains"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Domains, 2)
	assert.Equal(t, "Arts", body.Domains[0].Name)
	assert.Equal(t, "Science", body.Domains[1].Name)
	assert.Equal(t, 2, body.Domains[1].CombinationCount)
}

func TestCombinations(t *testing.T) {
	h := newTestServer(t).Router()

	rec := doJSON(t, h, http.MethodGet, "/api/combinations/Science", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Combinations []catalog.Combination `json:"combinations"`
	}
	decodeBody(t, rec, &body)
	assert.Len(t, body.Combinations, 2)

	rec = doJSON(t, h, http.MethodGet, "/api/combinations/Commerce", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQuestionsMergesStreamSpecific(t *testing.T) {
	h := newTestServer(t).Router()
	rec := doJSON(t, h, http.MethodGet, "/api/questions/Science", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Questions []catalog.Question `json:"questions"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Questions, 3)
	assert.Equal(t, "sci1", body.Questions[2].ID)
}

func TestCalculateWeights(t *testing.T) {
	h := newTestServer(t).Router()
	rec := doJSON(t, h, http.MethodPost, "/api/calculate-weights", map[string]interface{}{
		"domain":  "Science",
		"answers": map[string]float64{"q1": 4, "q2": 2},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body weightsResponse
	decodeBody(t, rec, &body)
	assert.InDelta(t, 4.0/6.0, body.NormalizedWeights[criteria.Stability], 1e-9)
	assert.InDelta(t, 2.0/6.0, body.NormalizedWeights[criteria.MathComfort], 1e-9)
	assert.Equal(t, criteria.Stability, body.SortedCriteria[0])
	assert.Equal(t, criteria.Primary(), body.PrimaryCriteria)
}

func TestCalculateWeightsNoAnswers(t *testing.T) {
	h := newTestServer(t).Router()
	rec := doJSON(t, h, http.MethodPost, "/api/calculate-weights", map[string]interface{}{
		"domain":  "Science",
		"answers": map[string]float64{},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Contains(t, body["error"], "answer at least one question")
}

func TestCalculateWeightsUnknownDomain(t *testing.T) {
	h := newTestServer(t).Router()
	rec := doJSON(t, h, http.MethodPost, "/api/calculate-weights", map[string]interface{}{
		"domain":  "Commerce",
		"answers": map[string]float64{"q1": 4},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdjustWeight(t *testing.T) {
	h := newTestServer(t).Router()
	rec := doJSON(t, h, http.MethodPost, "/api/adjust-weight", map[string]interface{}{
		"weights": map[string]float64{
			"stability":  0.8,
			"analytical": 0.2,
		},
		"criterion": "analytical",
		"value":     50,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Weights map[criteria.Criterion]float64 `json:"normalized_weights"`
	}
	decodeBody(t, rec, &body)
	assert.InDelta(t, 0.8/1.3, body.Weights[criteria.Stability], 1e-9)
	assert.InDelta(t, 0.5/1.3, body.Weights[criteria.Analytical], 1e-9)
}

func TestAdjustWeightZeroSum(t *testing.T) {
	h := newTestServer(t).Router()
	rec := doJSON(t, h, http.MethodPost, "/api/adjust-weight", map[string]interface{}{
		"weights":   map[string]float64{"stability": 1.0},
		"criterion": "stability",
		"value":     0,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRankCourses(t *testing.T) {
	h := newTestServer(t).Router()
	rec := doJSON(t, h, http.MethodPost, "/api/rank-courses", map[string]interface{}{
		"combination_id": "pcm",
		"user_weights":   map[string]float64{"math_comfort": 1.0},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Ranked []struct {
			Course     string  `json:"course"`
			FinalScore float64 `json:"final_score"`
		} `json:"ranked_courses"`
		Top3 []struct {
			Course string `json:"course"`
		} `json:"top_3"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Ranked, 3)
	assert.LessOrEqual(t, len(body.Top3), 3)
	// B.Tech classifies as engineering, which scores math_comfort 4.
	assert.Equal(t, "B.Tech Computer Science", body.Ranked[0].Course)
	assert.InDelta(t, 4.0, body.Ranked[0].FinalScore, 1e-9)
}

func TestRankCoursesUnknownCombination(t *testing.T) {
	h := newTestServer(t).Router()
	rec := doJSON(t, h, http.MethodPost, "/api/rank-courses", map[string]interface{}{
		"combination_id": "nope",
		"user_weights":   map[string]float64{"stability": 1.0},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateExplanationFallback(t *testing.T) {
	h := newTestServer(t).Router()
	rec := doJSON(t, h, http.MethodPost, "/api/generate-explanation", map[string]interface{}{
		"top_course":          "B.Tech Computer Science",
		"top_criteria":        []string{"stability", "math_comfort"},
		"user_weights":        map[string]float64{"stability": 0.6, "math_comfort": 0.4},
		"subject_combination": "PCM",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body explain.Response
	decodeBody(t, rec, &body)
	assert.True(t, body.Fallback)
	assert.Equal(t, explain.FallbackText, body.Explanation)
	assert.Contains(t, body.Prompt, "B.Tech Computer Science")
}

func TestSessionLifecycle(t *testing.T) {
	h := newTestServer(t).Router()

	rec := doJSON(t, h, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created sessionView
	decodeBody(t, rec, &created)
	require.NotEmpty(t, created.SessionID)
	base := "/api/sessions/" + created.SessionID

	rec = doJSON(t, h, http.MethodPut, base+"/domain", map[string]string{"domain": "Science"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPut, base+"/combination", map[string]string{"combination_id": "pcm"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, base+"/answers", map[string]interface{}{
		"answers": map[string]float64{"q1": 3, "q2": 4, "sci1": 2},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var afterAnswers sessionView
	decodeBody(t, rec, &afterAnswers)
	assert.InDelta(t, 4.0/9.0, afterAnswers.UserWeights[criteria.MathComfort], 1e-9)

	rec = doJSON(t, h, http.MethodPost, base+"/rank", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var afterRank sessionView
	decodeBody(t, rec, &afterRank)
	require.NotNil(t, afterRank.Ranking)
	assert.Len(t, afterRank.Ranking.Ranked, 3)
	assert.Greater(t, afterRank.Revision, afterAnswers.Revision)

	rec = doJSON(t, h, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionAnswersBeforeDomain(t *testing.T) {
	h := newTestServer(t).Router()

	rec := doJSON(t, h, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created sessionView
	decodeBody(t, rec, &created)

	rec = doJSON(t, h, http.MethodPost, "/api/sessions/"+created.SessionID+"/answers", map[string]interface{}{
		"answers": map[string]float64{"q1": 3},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSessionRankBeforeAnswers(t *testing.T) {
	h := newTestServer(t).Router()

	rec := doJSON(t, h, http.MethodPost, "/api/sessions", nil)
	var created sessionView
	decodeBody(t, rec, &created)
	base := "/api/sessions/" + created.SessionID

	rec = doJSON(t, h, http.MethodPut, base+"/domain", map[string]string{"domain": "Science"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, h, http.MethodPut, base+"/combination", map[string]string{"combination_id": "pcm"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, base+"/rank", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSessionAdjustWeight(t *testing.T) {
	h := newTestServer(t).Router()

	rec := doJSON(t, h, http.MethodPost, "/api/sessions", nil)
	var created sessionView
	decodeBody(t, rec, &created)
	base := "/api/sessions/" + created.SessionID

	doJSON(t, h, http.MethodPut, base+"/domain", map[string]string{"domain": "Science"})
	doJSON(t, h, http.MethodPost, base+"/answers", map[string]interface{}{
		"answers": map[string]float64{"q1": 2, "q2": 2},
	})

	rec = doJSON(t, h, http.MethodPost, base+"/weights", map[string]interface{}{
		"criterion": "stability",
		"value":     80,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var view sessionView
	decodeBody(t, rec, &view)
	assert.InDelta(t, 0.8/1.3, view.UserWeights[criteria.Stability], 1e-9)
	assert.InDelta(t, 0.5/1.3, view.UserWeights[criteria.MathComfort], 1e-9)
}

func TestUnknownSession(t *testing.T) {
	h := newTestServer(t).Router()
	rec := doJSON(t, h, http.MethodGet, "/api/sessions/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHotReloadSwapsData(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Router()

	cat := testCatalog()
	sci := cat.Streams["Science"]
	sci.Combinations = append(sci.Combinations, catalog.Combination{
		ID: "pcmb", Name: "PCMB", Courses: []string{"B.Pharm"},
	})
	cat.Streams["Science"] = sci
	srv.UpdateData(cat, matrix.Build(cat.UniqueCourses()))

	rec := doJSON(t, h, http.MethodGet, "/api/combinations/Science", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Combinations []catalog.Combination `json:"combinations"`
	}
	decodeBody(t, rec, &body)
	assert.Len(t, body.Combinations, 3)
}
