// Package server exposes the scoring engine over HTTP. Handlers are thin:
// they validate, call the pure engine packages, and translate the error
// taxonomy into status codes.
package server

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/coursecompass/decision-engine/internal/catalog"
	"github.com/coursecompass/decision-engine/internal/explain"
	"github.com/coursecompass/decision-engine/internal/matrix"
	"github.com/coursecompass/decision-engine/internal/session"
)

// #region server

// Server holds the shared, read-mostly state behind the HTTP handlers.
// Catalog and matrix are replaced wholesale on hot reload; handlers always
// read a consistent pair.
type Server struct {
	logger   *zap.Logger
	sessions *session.Manager
	explain  *explain.Client
	validate *validator.Validate
	origins  []string

	mu  sync.RWMutex
	cat *catalog.Catalog
	m   *matrix.AttributeMatrix
}

// New assembles a server around the loaded catalog and built matrix.
func New(cat *catalog.Catalog, m *matrix.AttributeMatrix, explainClient *explain.Client, origins []string, logger *zap.Logger) *Server {
	return &Server{
		logger:   logger,
		sessions: session.NewManager(),
		explain:  explainClient,
		validate: validator.New(),
		origins:  origins,
		cat:      cat,
		m:        m,
	}
}

// UpdateData swaps in a freshly loaded catalog and rebuilt matrix. Called
// from the hot-reload path.
func (s *Server) UpdateData(cat *catalog.Catalog, m *matrix.AttributeMatrix) {
	s.mu.Lock()
	s.cat = cat
	s.m = m
	s.mu.Unlock()
	s.logger.Info("server data updated",
		zap.Int("domains", len(cat.Streams)),
		zap.Int("courses", m.Len()),
	)
}

func (s *Server) data() (*catalog.Catalog, *matrix.AttributeMatrix) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cat, s.m
}

// #endregion server

// #region router

// Router configures all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/streams", s.handleStreams)
		r.Get("/combinations/{domain}", s.handleCombinations)
		r.Get("/questions/{domain}", s.handleQuestions)
		r.Post("/calculate-weights", s.handleCalculateWeights)
		r.Post("/adjust-weight", s.handleAdjustWeight)
		r.Post("/rank-courses", s.handleRankCourses)
		r.Post("/generate-explanation", s.handleGenerateExplanation)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Put("/domain", s.handleSessionDomain)
				r.Put("/combination", s.handleSessionCombination)
				r.Post("/answers", s.handleSessionAnswers)
				r.Post("/weights", s.handleSessionAdjustWeight)
				r.Post("/rank", s.handleSessionRank)
			})
		})
	})

	return r
}

// #endregion router
