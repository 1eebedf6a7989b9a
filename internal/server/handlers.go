package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aysualkaya/assistant/internal/correction"
	"github.com/aysualkaya/assistant/internal/database"
	"github.com/aysualkaya/assistant/internal/errs"
	"github.com/aysualkaya/assistant/internal/validate"
)

var errNoRegenerator = errs.New(errs.ErrKindRegeneration, "no regenerator configured")

type validateRequest struct {
	SQL string `json:"sql"`
}

type validateResponse struct {
	Valid      bool             `json:"valid"`
	Normalized string           `json:"normalized"`
	Notes      []string         `json:"notes,omitempty"`
	Errors     []validate.Error `json:"errors,omitempty"`
}

// handleValidate runs a single normalize-and-validate pass without the
// correction loop. It never touches the warehouse.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SQL == "" {
		writeError(w, http.StatusBadRequest, "body must be JSON with a non-empty sql field")
		return
	}

	nres := s.norm.Normalize(req.SQL)
	structural, usage := s.validators()
	findings := validate.Merge(structural.Validate(nres.Text), usage.Validate(nres.Text))
	if s.deps.Engine != nil {
		findings = validate.Merge(findings, s.deps.Engine.Validate(nres.Text))
	}

	writeJSON(w, http.StatusOK, validateResponse{
		Valid:      findings.Valid(),
		Normalized: nres.Text,
		Notes:      nres.Notes,
		Errors:     findings.Errors,
	})
}

type queryRequest struct {
	Question string `json:"question"`
	SQL      string `json:"sql"`
}

type queryResponse struct {
	Final   *correction.FinalQuery `json:"final,omitempty"`
	Rows    []map[string]any       `json:"rows,omitempty"`
	Session *correction.Session    `json:"session"`
	Error   string                 `json:"error,omitempty"`
}

// handleQuery runs the full correction pipeline and, when an executor is
// configured, executes the accepted query. Failed sessions return their
// attempt history and are never executed.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SQL == "" {
		writeError(w, http.StatusBadRequest, "body must be JSON with a non-empty sql field")
		return
	}

	final, sess, err := s.orchestrator().Run(r.Context(), req.Question, req.SQL)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errs.IsCancelled(err) {
			status = 499 // client closed request
		}
		writeJSON(w, status, queryResponse{Session: sess, Error: err.Error()})
		return
	}

	resp := queryResponse{Final: &final, Session: sess}
	if s.deps.Exec != nil {
		rows, execErr := s.deps.Exec.Execute(r.Context(), final.Text)
		if execErr != nil {
			writeJSON(w, http.StatusBadGateway, queryResponse{
				Final:   &final,
				Session: sess,
				Error:   execErr.Error(),
			})
			return
		}
		resp.Rows = rows
	}
	writeJSON(w, http.StatusOK, resp)
}

type tableSummary struct {
	Name        string `json:"name"`
	Columns     int    `json:"columns"`
	ForeignKeys int    `json:"foreign_keys"`
}

func (s *Server) handleTables(w http.ResponseWriter, _ *http.Request) {
	tables := s.deps.Store.Current().Tables()
	out := make([]tableSummary, len(tables))
	for i, t := range tables {
		out[i] = tableSummary{Name: t.Name, Columns: len(t.Columns), ForeignKeys: len(t.ForeignKeys)}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleTableSample returns up to limit rows from one catalog table. The
// table name is resolved against the catalog before any SQL is built, so
// only known identifiers ever reach the warehouse.
func (s *Server) handleTableSample(w http.ResponseWriter, r *http.Request) {
	if s.deps.Exec == nil {
		writeError(w, http.StatusServiceUnavailable, "no warehouse configured")
		return
	}

	table, ok := s.deps.Store.Current().Lookup(chi.URLParam(r, "table"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown table")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	sql, _, err := database.Select(table.Name, s.deps.Placeholder).Limit(limit).Build()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rows, err := s.deps.Exec.Execute(r.Context(), sql)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleCatalogRefresh re-introspects the source and swaps the catalog
// atomically. In-flight requests keep the snapshot they started with.
func (s *Server) handleCatalogRefresh(w http.ResponseWriter, r *http.Request) {
	if s.deps.Source == nil {
		writeError(w, http.StatusServiceUnavailable, "no catalog source configured")
		return
	}
	if err := s.deps.Store.Refresh(r.Context(), s.deps.Source); err != nil {
		s.deps.Log.ErrorWith("catalog refresh failed", err, nil)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	snap := s.deps.Store.Current().Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"tables":   len(snap.Tables),
		"taken_at": snap.TakenAt,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"tables": len(s.deps.Store.Current().Tables()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
