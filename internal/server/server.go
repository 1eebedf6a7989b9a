// Package server exposes the correction pipeline over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aysualkaya/assistant/internal/catalog"
	"github.com/aysualkaya/assistant/internal/correction"
	"github.com/aysualkaya/assistant/internal/database"
	"github.com/aysualkaya/assistant/internal/dialect"
	"github.com/aysualkaya/assistant/internal/logger"
	"github.com/aysualkaya/assistant/internal/normalize"
	"github.com/aysualkaya/assistant/internal/rules"
	"github.com/aysualkaya/assistant/internal/validate"
)

// Deps collects the server's collaborators. Store and Dialect are required;
// the rest degrade gracefully when absent.
type Deps struct {
	Store   *catalog.Store
	Dialect dialect.Dialect

	// Regen produces fresh candidates for the correction loop. Nil means
	// the loop cannot regenerate and fails after the first invalid attempt
	// burns its budget.
	Regen correction.Regenerator

	// Exec runs accepted queries. Nil disables execution; /v1/query then
	// returns the validated text without rows.
	Exec *database.Executor

	// Source refreshes the catalog on demand. Nil disables
	// /v1/catalog/refresh.
	Source catalog.Source

	// Engine holds the dialect-compliance rules. Nil skips them.
	Engine *rules.Engine

	// Placeholder is the parameter style of the configured warehouse,
	// used for the assistant's own lookups (table samples).
	Placeholder database.Placeholder

	// FuzzyDistance overrides the suggestion threshold when positive.
	FuzzyDistance int

	Correction correction.Config
	Log        *logger.Logger
}

// Server is the HTTP front end. One instance serves all sessions; per-request
// state lives in the handlers.
type Server struct {
	deps   Deps
	norm   *normalize.Normalizer
	router chi.Router
}

// New builds the router and its middleware stack.
func New(deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = logger.New(logger.DefaultConfig())
	}
	if deps.Regen == nil {
		deps.Regen = unavailableRegenerator{}
	}

	s := &Server{
		deps: deps,
		norm: normalize.New(deps.Dialect),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/validate", s.handleValidate)
		r.Post("/query", s.handleQuery)
		r.Get("/tables", s.handleTables)
		r.Get("/tables/{table}/sample", s.handleTableSample)
		r.Post("/catalog/refresh", s.handleCatalogRefresh)
	})
	s.router = r

	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// validators builds the validator set against the current catalog, so a
// refreshed snapshot is picked up by the next request while in-flight
// sessions keep theirs.
func (s *Server) validators() (*validate.StructuralValidator, *validate.TableUsageValidator) {
	usage := validate.NewTableUsage(s.deps.Store.Current())
	if s.deps.FuzzyDistance > 0 {
		usage = usage.WithFuzzyDistance(s.deps.FuzzyDistance)
	}
	return validate.NewStructural(), usage
}

func (s *Server) orchestrator() *correction.Orchestrator {
	structural, usage := s.validators()
	return correction.New(s.norm, structural, usage, s.deps.Engine, s.deps.Regen, s.deps.Correction).
		WithLogger(s.deps.Log)
}

// unavailableRegenerator fails every call; the loop still terminates within
// its attempt budget.
type unavailableRegenerator struct{}

func (unavailableRegenerator) Regenerate(context.Context, string, string, []string) (string, error) {
	return "", errNoRegenerator
}
