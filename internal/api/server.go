// Package api exposes the thin HTTP surface: health, skill retrieval for
// the live conversation tool layer, and direct outcome ingestion.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/riverline-ai/refinery/internal/gemini"
	"github.com/riverline-ai/refinery/internal/optimizer"
	"github.com/riverline-ai/refinery/internal/skills"
)

type Server struct {
	router *chi.Mux
	port   int
	skills *skills.Store
	proc   *optimizer.Processor
	logger *slog.Logger
}

func NewServer(port int, sk *skills.Store, proc *optimizer.Processor, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		port:   port,
		skills: sk,
		proc:   proc,
		logger: logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/refinery/status", s.status)
	router.Post("/api/v1/skills/search", s.searchSkills)
	router.Post("/api/v1/outcomes", s.ingestOutcome)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"agent":  "refinery",
		"status": "learning",
	})
}

type searchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

// searchSkills is the retrieval path the conversation tool layer calls
// mid-call to fetch proven rebuttals for an objection.
func (s *Server) searchSkills(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	matches, err := s.skills.Search(r.Context(), req.Query, req.K)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, gemini.ErrEmbeddingUnavailable) {
			status = http.StatusBadGateway
		}
		s.logger.Error("skill search failed", "error", err)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": matches})
}

type outcomeRequest struct {
	CallID     string           `json:"call_id"`
	Transcript []optimizer.Turn `json:"transcript"`
	Origin     string           `json:"origin"`
	Result     string           `json:"result"`
	Country    string           `json:"country"`
	Industry   string           `json:"industry"`
}

// ingestOutcome accepts a completed call over HTTP and runs the learning
// pass in the background, keeping the caller off the oracle latency path.
func (s *Server) ingestOutcome(w http.ResponseWriter, r *http.Request) {
	var req outcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if len(req.Transcript) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "transcript is required"})
		return
	}

	callID := uuid.New()
	if req.CallID != "" {
		parsed, err := uuid.Parse(req.CallID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid call_id"})
			return
		}
		callID = parsed
	}

	outcome := optimizer.Outcome{
		CallID:     callID,
		Transcript: req.Transcript,
		Origin:     optimizer.Origin(req.Origin),
		Result:     optimizer.Result(req.Result),
		Country:    req.Country,
		Industry:   req.Industry,
	}

	go func() {
		if _, err := s.proc.Process(context.Background(), outcome); err != nil {
			s.logger.Error("learning pass failed", "call_id", callID, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"call_id": callID.String()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
