package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/coursecompass/decision-engine/internal/criteria"
	"github.com/coursecompass/decision-engine/internal/explain"
	"github.com/coursecompass/decision-engine/internal/ranking"
	"github.com/coursecompass/decision-engine/internal/session"
	"github.com/coursecompass/decision-engine/internal/weights"
)

// #region dto

type calculateWeightsRequest struct {
	Domain  string             `json:"domain" validate:"required"`
	Answers map[string]float64 `json:"answers" validate:"required"`
}

type adjustWeightRequest struct {
	Weights   weights.Vector `json:"weights" validate:"required"`
	Criterion string         `json:"criterion" validate:"required"`
	Value     float64        `json:"value"`
}

type rankCoursesRequest struct {
	CombinationID string         `json:"combination_id" validate:"required"`
	UserWeights   weights.Vector `json:"user_weights" validate:"required"`
	TopK          int            `json:"top_k,omitempty" validate:"omitempty,min=1"`
}

type explanationRequest struct {
	TopCourse          string         `json:"top_course" validate:"required"`
	TopCriteria        []string       `json:"top_criteria" validate:"required,min=1"`
	UserWeights        weights.Vector `json:"user_weights" validate:"required"`
	SubjectCombination string         `json:"subject_combination" validate:"required"`
}

type weightsResponse struct {
	RawScores         weights.RawScores    `json:"raw_scores"`
	NormalizedWeights weights.Vector       `json:"normalized_weights"`
	SortedCriteria    []criteria.Criterion `json:"sorted_criteria"`
	PrimaryCriteria   []criteria.Criterion `json:"primary_criteria"`
}

type sessionDomainRequest struct {
	Domain string `json:"domain" validate:"required"`
}

type sessionCombinationRequest struct {
	CombinationID string `json:"combination_id" validate:"required"`
}

type sessionAnswersRequest struct {
	Answers map[string]float64 `json:"answers" validate:"required"`
}

type sessionAdjustRequest struct {
	Criterion string  `json:"criterion" validate:"required"`
	Value     float64 `json:"value"`
}

type sessionRankRequest struct {
	TopK int `json:"top_k,omitempty" validate:"omitempty,min=1"`
}

type sessionView struct {
	SessionID      string               `json:"session_id"`
	Domain         string               `json:"domain,omitempty"`
	CombinationID  string               `json:"combination_id,omitempty"`
	RawScores      weights.RawScores    `json:"raw_scores,omitempty"`
	Weights        weights.Vector       `json:"normalized_weights,omitempty"`
	UserWeights    weights.Vector       `json:"user_weights,omitempty"`
	SortedCriteria []criteria.Criterion `json:"sorted_criteria,omitempty"`
	Ranking        *ranking.Result      `json:"ranking,omitempty"`
	Revision       int                  `json:"revision"`
}

func viewOf(id string, snap session.Snapshot) sessionView {
	return sessionView{
		SessionID:      id,
		Domain:         snap.Domain,
		CombinationID:  snap.CombinationID,
		RawScores:      snap.RawScores,
		Weights:        snap.Weights,
		UserWeights:    snap.UserWeights,
		SortedCriteria: snap.SortedCriteria,
		Ranking:        snap.Ranking,
		Revision:       snap.Revision,
	}
}

// #endregion dto

// #region respond

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// decode parses and validates a request body.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "validation error: "+err.Error())
		return false
	}
	return true
}

// engineError maps the engine error taxonomy onto HTTP statuses with
// actionable messages.
func (s *Server) engineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, weights.ErrInsufficientData):
		s.respondError(w, http.StatusUnprocessableEntity, "answer at least one question before calculating weights")
	case errors.Is(err, weights.ErrZeroSum):
		s.respondError(w, http.StatusUnprocessableEntity, "adjustment rejected: at least one weight must stay above zero")
	case errors.Is(err, weights.ErrUnknownCriterion), errors.Is(err, weights.ErrValueOutOfRange):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "session not found")
	default:
		s.logger.Error("internal error", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// #endregion respond

// #region health

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_, m := s.data()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "course decision engine",
		"courses":   m.Len(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// #endregion health

// #region catalog-handlers

func (s *Server) handleStreams(w http.ResponseWriter, _ *http.Request) {
	cat, _ := s.data()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"domains": cat.Domains()})
}

func (s *Server) handleCombinations(w http.ResponseWriter, r *http.Request) {
	cat, _ := s.data()
	domain := chi.URLParam(r, "domain")
	combos, ok := cat.Combinations(domain)
	if !ok {
		s.respondError(w, http.StatusNotFound, "unknown domain")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"domain":       domain,
		"combinations": combos,
	})
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	cat, _ := s.data()
	domain := chi.URLParam(r, "domain")
	if !cat.HasDomain(domain) {
		s.respondError(w, http.StatusNotFound, "unknown domain")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"domain":    domain,
		"questions": cat.QuestionsForDomain(domain),
	})
}

// #endregion catalog-handlers

// #region weight-handlers

func (s *Server) handleCalculateWeights(w http.ResponseWriter, r *http.Request) {
	var req calculateWeightsRequest
	if !s.decode(w, r, &req) {
		return
	}
	cat, _ := s.data()
	if !cat.HasDomain(req.Domain) {
		s.respondError(w, http.StatusNotFound, "unknown domain")
		return
	}

	raw, derived, err := weights.Derive(req.Answers, cat.CriterionByQuestion(req.Domain))
	if err != nil {
		s.engineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, weightsResponse{
		RawScores:         raw,
		NormalizedWeights: derived,
		SortedCriteria:    weights.SortedCriteria(derived),
		PrimaryCriteria:   criteria.Primary(),
	})
}

func (s *Server) handleAdjustWeight(w http.ResponseWriter, r *http.Request) {
	var req adjustWeightRequest
	if !s.decode(w, r, &req) {
		return
	}
	adjusted, err := weights.AdjustPercent(req.Weights, criteria.Criterion(req.Criterion), req.Value)
	if err != nil {
		s.engineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"normalized_weights": adjusted,
		"sorted_criteria":    weights.SortedCriteria(adjusted),
	})
}

// #endregion weight-handlers

// #region rank-handlers

func (s *Server) handleRankCourses(w http.ResponseWriter, r *http.Request) {
	var req rankCoursesRequest
	if !s.decode(w, r, &req) {
		return
	}
	cat, m := s.data()
	courses, ok := cat.CoursesForCombination(req.CombinationID)
	if !ok {
		s.respondError(w, http.StatusNotFound, "unknown combination")
		return
	}

	res := ranking.RankSubset(m, courses, req.UserWeights, req.TopK)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"ranked_courses": res.Ranked,
		"top_3":          res.TopK,
	})
}

func (s *Server) handleGenerateExplanation(w http.ResponseWriter, r *http.Request) {
	var req explanationRequest
	if !s.decode(w, r, &req) {
		return
	}
	topCriteria := make([]criteria.Criterion, len(req.TopCriteria))
	for i, c := range req.TopCriteria {
		topCriteria[i] = criteria.Criterion(c)
	}

	resp := s.explain.Explain(r.Context(), explain.Request{
		TopCourse:          req.TopCourse,
		TopCriteria:        topCriteria,
		UserWeights:        req.UserWeights,
		SubjectCombination: req.SubjectCombination,
	})
	s.respondJSON(w, http.StatusOK, resp)
}

// #endregion rank-handlers

// #region session-handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create()
	s.respondJSON(w, http.StatusCreated, viewOf(sess.ID, sess.Current()))
}

func (s *Server) sessionFromPath(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.engineError(w, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromPath(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, viewOf(sess.ID, sess.Current()))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromPath(w, r)
	if !ok {
		return
	}
	s.sessions.Delete(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessionDomain(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromPath(w, r)
	if !ok {
		return
	}
	var req sessionDomainRequest
	if !s.decode(w, r, &req) {
		return
	}
	cat, _ := s.data()
	if !cat.HasDomain(req.Domain) {
		s.respondError(w, http.StatusNotFound, "unknown domain")
		return
	}
	snap := sess.SetDomain(req.Domain)
	s.respondJSON(w, http.StatusOK, viewOf(sess.ID, snap))
}

func (s *Server) handleSessionCombination(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromPath(w, r)
	if !ok {
		return
	}
	var req sessionCombinationRequest
	if !s.decode(w, r, &req) {
		return
	}
	cat, _ := s.data()
	if _, found := cat.CoursesForCombination(req.CombinationID); !found {
		s.respondError(w, http.StatusNotFound, "unknown combination")
		return
	}
	snap := sess.SetCombination(req.CombinationID)
	s.respondJSON(w, http.StatusOK, viewOf(sess.ID, snap))
}

func (s *Server) handleSessionAnswers(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromPath(w, r)
	if !ok {
		return
	}
	var req sessionAnswersRequest
	if !s.decode(w, r, &req) {
		return
	}
	cat, _ := s.data()
	snap := sess.Current()
	if snap.Domain == "" {
		s.respondError(w, http.StatusConflict, "select a domain before submitting answers")
		return
	}

	next, err := sess.SubmitAnswers(req.Answers, cat.CriterionByQuestion(snap.Domain))
	if err != nil {
		s.engineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, viewOf(sess.ID, next))
}

func (s *Server) handleSessionAdjustWeight(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromPath(w, r)
	if !ok {
		return
	}
	var req sessionAdjustRequest
	if !s.decode(w, r, &req) {
		return
	}
	next, err := sess.AdjustWeight(criteria.Criterion(req.Criterion), req.Value)
	if err != nil {
		s.engineError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, viewOf(sess.ID, next))
}

func (s *Server) handleSessionRank(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromPath(w, r)
	if !ok {
		return
	}
	var req sessionRankRequest
	if r.ContentLength > 0 && !s.decode(w, r, &req) {
		return
	}

	snap := sess.Current()
	if snap.CombinationID == "" {
		s.respondError(w, http.StatusConflict, "select a combination before ranking")
		return
	}
	if len(snap.UserWeights) == 0 {
		s.respondError(w, http.StatusConflict, "submit answers before ranking")
		return
	}

	cat, m := s.data()
	courses, found := cat.CoursesForCombination(snap.CombinationID)
	if !found {
		s.respondError(w, http.StatusNotFound, "unknown combination")
		return
	}

	res := ranking.RankSubset(m, courses, snap.UserWeights, req.TopK)
	next := sess.RecordRanking(res)
	s.respondJSON(w, http.StatusOK, viewOf(sess.ID, next))
}

// #endregion session-handlers
