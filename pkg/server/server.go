package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/BrunoVisnadi/taca-sociedades/internal/store"
	"github.com/BrunoVisnadi/taca-sociedades/pkg/standings"
)

// Server provides the JSON HTTP API.
type Server struct {
	store       store.Store
	engine      *standings.Engine
	tokens      map[string]string // bearer token -> role
	defaultYear int               // 0 = latest edition
	port        int
}

// New creates a new HTTP server. tokens maps bearer tokens to roles
// ("director" or "admin") for the result-entry endpoints; the caller's
// identity is always supplied per request, never held as server state.
func New(s store.Store, engine *standings.Engine, tokens map[string]string, defaultYear, port int) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{
		store:       s,
		engine:      engine,
		tokens:      tokens,
		defaultYear: defaultYear,
		port:        port,
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/standings", s.handleStandings)
		r.Get("/results", s.handleResults)
		r.Get("/pairings", s.handlePairings)
		r.Get("/next_pairings", s.handleNextPairings)

		r.Group(func(r chi.Router) {
			r.Use(s.requireRole("director", "admin"))
			r.Get("/rounds", s.handleRounds)
			r.Get("/rounds/{id}/debates", s.handleRoundDebates)
			r.Get("/debates/{id}", s.handleDebateDetail)
			r.Post("/debates/{id}/results", s.handleSaveResults)
		})
	})

	return r
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.port)
	fmt.Printf("taca server listening on %s\n", addr)
	return http.ListenAndServe(addr, s.Router())
}

// requireRole gates a route on the caller's role, derived from the bearer
// token. No session state: every request carries its own identity.
func (s *Server) requireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			role, ok := s.tokens[token]
			if token == "" || !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
				return
			}
			if !allowed[role] {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient role"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	year, ok := s.editionYear(w, r)
	if !ok {
		return
	}

	rows, err := s.engine.EditionStandings(r.Context(), year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rows, "count": len(rows)})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	year, ok := s.editionYear(w, r)
	if !ok {
		return
	}

	rounds, err := s.engine.EditionResults(r.Context(), year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rounds, "count": len(rounds)})
}

func (s *Server) handlePairings(w http.ResponseWriter, r *http.Request) {
	year, ok := s.editionYear(w, r)
	if !ok {
		return
	}

	rounds, err := s.engine.Pairings(r.Context(), year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rounds, "count": len(rounds)})
}

func (s *Server) handleNextPairings(w http.ResponseWriter, r *http.Request) {
	year, ok := s.editionYear(w, r)
	if !ok {
		return
	}

	round, err := s.engine.NextPairings(r.Context(), year)
	if err != nil {
		writeError(w, err)
		return
	}
	if round == nil {
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{}, "count": 0})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": round.Debates, "round": round.Number, "count": len(round.Debates)})
}

func (s *Server) handleRounds(w http.ResponseWriter, r *http.Request) {
	ed, err := s.resolveEdition(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rounds, err := s.store.RoundStatuses(r.Context(), ed.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rounds, "count": len(rounds)})
}

func (s *Server) handleRoundDebates(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid round id"})
		return
	}

	debates, err := s.store.DebateStatuses(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": debates, "count": len(debates)})
}

func (s *Server) handleDebateDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid debate id"})
		return
	}

	detail, err := s.store.DebateDetail(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": detail})
}

func (s *Server) handleSaveResults(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid debate id"})
		return
	}

	var entry store.ResultEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload: " + err.Error()})
		return
	}

	if err := s.store.SaveDebateResult(r.Context(), id, entry); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// editionYear resolves the ?edition= query parameter to a year for the
// aggregation engine (0 = current). Writes a 400 and returns ok=false on a
// malformed value.
func (s *Server) editionYear(w http.ResponseWriter, r *http.Request) (int, bool) {
	param := r.URL.Query().Get("edition")
	if param == "" || param == "current" {
		return s.defaultYear, true
	}
	year, err := strconv.Atoi(param)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid edition: " + param})
		return 0, false
	}
	return year, true
}

// resolveEdition resolves the ?edition= query parameter to a stored edition
// for the administrative endpoints.
func (s *Server) resolveEdition(r *http.Request) (*store.Edition, error) {
	param := r.URL.Query().Get("edition")
	if param == "" || param == "current" {
		if s.defaultYear > 0 {
			return s.store.EditionByYear(r.Context(), s.defaultYear)
		}
		return s.store.CurrentEdition(r.Context())
	}
	year, err := strconv.Atoi(param)
	if err != nil {
		return nil, fmt.Errorf("%w: edition %q", store.ErrInvalidInput, param)
	}
	return s.store.EditionByYear(r.Context(), year)
}

// writeError maps the typed error taxonomy to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, standings.ErrEditionNotFound), errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrInvalidInput), errors.Is(err, standings.ErrInvalidDebateShape):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
