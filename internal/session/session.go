// Package session holds per-user questionnaire state as explicit session
// objects. Each mutation is a pure transition producing a new immutable
// snapshot; selecting a domain resets everything downstream, mirroring the
// reset-by-reselect behavior of the consuming UI.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coursecompass/decision-engine/internal/criteria"
	"github.com/coursecompass/decision-engine/internal/ranking"
	"github.com/coursecompass/decision-engine/internal/weights"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// #region snapshot

// Snapshot is one immutable point-in-time view of a session. Transitions
// never mutate a snapshot in place; they copy and return a successor with
// Revision incremented.
type Snapshot struct {
	Domain         string
	CombinationID  string
	Answers        map[string]float64
	RawScores      weights.RawScores
	Weights        weights.Vector
	UserWeights    weights.Vector
	SortedCriteria []criteria.Criterion
	Ranking        *ranking.Result
	Revision       int
}

func (s Snapshot) clone() Snapshot {
	next := s
	next.Answers = cloneAnswers(s.Answers)
	next.RawScores = cloneRaw(s.RawScores)
	next.Weights = s.Weights.Clone()
	next.UserWeights = s.UserWeights.Clone()
	next.SortedCriteria = append([]criteria.Criterion(nil), s.SortedCriteria...)
	next.Revision = s.Revision + 1
	return next
}

// #endregion snapshot

// #region transitions

// withDomain resets combination, answers, weights and ranking: the domain
// choice invalidates everything derived downstream of it.
func (s Snapshot) withDomain(domain string) Snapshot {
	next := s.clone()
	next.Domain = domain
	next.CombinationID = ""
	next.Answers = nil
	next.RawScores = nil
	next.Weights = nil
	next.UserWeights = nil
	next.SortedCriteria = nil
	next.Ranking = nil
	return next
}

// withCombination keeps answers and weights but drops any stale ranking.
func (s Snapshot) withCombination(combinationID string) Snapshot {
	next := s.clone()
	next.CombinationID = combinationID
	next.Ranking = nil
	return next
}

// withAnswers derives weights from the answers. The user-editable vector
// starts as a copy of the derived one.
func (s Snapshot) withAnswers(answers map[string]float64, criterionByQuestion map[string]criteria.Criterion) (Snapshot, error) {
	raw, derived, err := weights.Derive(answers, criterionByQuestion)
	if err != nil {
		return s, err
	}
	next := s.clone()
	next.Answers = cloneAnswers(answers)
	next.RawScores = raw
	next.Weights = derived
	next.UserWeights = derived.Clone()
	next.SortedCriteria = weights.SortedCriteria(derived)
	next.Ranking = nil
	return next, nil
}

// withAdjustedWeight applies one slider edit to the user vector. A rejected
// edit leaves the snapshot untouched.
func (s Snapshot) withAdjustedWeight(criterion criteria.Criterion, percent float64) (Snapshot, error) {
	adjusted, err := weights.AdjustPercent(s.UserWeights, criterion, percent)
	if err != nil {
		return s, err
	}
	next := s.clone()
	next.UserWeights = adjusted
	next.SortedCriteria = weights.SortedCriteria(adjusted)
	next.Ranking = nil
	return next, nil
}

func (s Snapshot) withRanking(res ranking.Result) Snapshot {
	next := s.clone()
	next.Ranking = &res
	return next
}

// #endregion transitions

// #region session

// Session serializes transitions for a single owner. Reads return the
// current snapshot by value; concurrent readers never observe a partially
// applied mutation.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu      sync.Mutex
	current Snapshot
}

// Current returns the latest snapshot.
func (s *Session) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetDomain applies the domain-reset transition.
func (s *Session) SetDomain(domain string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.current.withDomain(domain)
	return s.current
}

// SetCombination records the chosen combination.
func (s *Session) SetCombination(combinationID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.current.withCombination(combinationID)
	return s.current
}

// SubmitAnswers derives weights from the answers, failing closed when no
// answered question carries weight.
func (s *Session) SubmitAnswers(answers map[string]float64, criterionByQuestion map[string]criteria.Criterion) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.current.withAnswers(answers, criterionByQuestion)
	if err != nil {
		return s.current, err
	}
	s.current = next
	return s.current, nil
}

// AdjustWeight applies one interactive weight edit.
func (s *Session) AdjustWeight(criterion criteria.Criterion, percent float64) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.current.withAdjustedWeight(criterion, percent)
	if err != nil {
		return s.current, err
	}
	s.current = next
	return s.current, nil
}

// RecordRanking stores the latest ranking result on the session.
func (s *Session) RecordRanking(res ranking.Result) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.current.withRanking(res)
	return s.current
}

// #endregion session

// #region manager

// Manager is the in-memory session registry.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty registry.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create registers a fresh session and returns it.
func (m *Manager) Create() *Session {
	s := &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get looks up a session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete removes a session.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// #endregion manager

// #region helpers

func cloneAnswers(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneRaw(in weights.RawScores) weights.RawScores {
	if in == nil {
		return nil
	}
	out := make(weights.RawScores, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// #endregion helpers
