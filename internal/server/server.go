/*
PURPOSE:
  HTTP surface of mlboard: the HTML dashboard and a read-only JSON API
  over the current run records.

REQUIREMENTS:
  User-specified:
  - /api/metrics returns a JSON array of run records.
  - Internal failures return an error payload with status 500.
  - The dashboard shows cards, charts and a comparison table, with a retry
    affordance on failure.

  Implementation-discovered:
  - The per-model endpoint matches case-insensitively and 404s on no match.
  - The client-side snapshot contract is GET /metrics.json.
  - Browser clients on another origin need CORS headers.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (serve)
  - Uses: internal/ingest.Source, internal/aggregate, internal/output

ERROR HANDLING:
  - Every handler logs the cause and returns a generic payload.

IMPLEMENTATION RULES:
  - Handlers are read-only; each request reads the source afresh.
  - Go 1.22 method patterns on http.ServeMux.

USAGE:
  srv := server.New(src, server.Options{SnapshotPath: "metrics.json"})
  http.ListenAndServe(":8000", srv)

SELF-HEALING INSTRUCTIONS:
  - If a route 404s unexpectedly, check the pattern in routes().

RELATED FILES:
  - internal/server/view.go
  - internal/server/templates/dashboard.html

MAINTENANCE:
  - Keep the endpoint list in handleIndex in sync with routes().
*/

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/daryltucker/mlboard/internal/aggregate"
	"github.com/daryltucker/mlboard/internal/ingest"
	"github.com/daryltucker/mlboard/internal/model"
	"github.com/daryltucker/mlboard/internal/output"
)

// Version is reported by GET /api.
const Version = "1.0.0"

// Options configures a Server.
type Options struct {
	// SnapshotPath is served at /metrics.json when non-empty.
	SnapshotPath string
	// CORSOrigins lists allowed origins; "*" allows any.
	CORSOrigins []string
}

// Server serves the dashboard and API.
type Server struct {
	source ingest.Source
	opts   Options
	mux    *http.ServeMux
}

// New creates a Server reading from src.
func New(src ingest.Source, opts Options) *Server {
	s := &Server{source: src, opts: opts, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleDashboard)
	s.mux.HandleFunc("GET /api", s.handleIndex)
	s.mux.HandleFunc("GET /api/metrics", s.handleMetrics)
	s.mux.HandleFunc("GET /api/metrics/{model}", s.handleModelMetrics)
	s.mux.HandleFunc("GET /api/models", s.handleModels)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /metrics.json", s.handleSnapshot)
}

// ServeHTTP applies CORS and request logging around the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	s.cors(rec, r)
	if r.Method == http.MethodOptions {
		rec.WriteHeader(http.StatusNoContent)
	} else {
		s.mux.ServeHTTP(rec, r)
	}

	output.Logger.Debug("HTTP request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"duration", time.Since(start),
	)
}

func (s *Server) cors(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	switch {
	case slices.Contains(s.opts.CORSOrigins, "*"):
		w.Header().Set("Access-Control-Allow-Origin", "*")
	case origin != "" && slices.Contains(s.opts.CORSOrigins, origin):
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	default:
		return
	}
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "*")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// ── API ──────────────────────────────────────────────────────────────────────

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "MLOps Metrics API",
		"version": Version,
		"endpoints": map[string]string{
			"/api/metrics":              "Get all model metrics",
			"/api/metrics/{model_name}": "Get metrics for specific model",
			"/api/models":               "Get list of available models",
			"/health":                   "Health check endpoint",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	records, err := s.source.Runs(r.Context())
	if err != nil {
		output.Logger.Error("Error fetching metrics", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch metrics")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(records))
}

func (s *Server) handleModelMetrics(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("model")
	records, err := s.source.Runs(r.Context())
	if err != nil {
		output.Logger.Error("Error fetching metrics", "model", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch metrics")
		return
	}

	matched := []model.RunRecord{}
	for _, rec := range records {
		if strings.EqualFold(rec.Model, name) {
			matched = append(matched, rec)
		}
	}
	if len(matched) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("No metrics found for model: %s", name))
		return
	}
	writeJSON(w, http.StatusOK, matched)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	records, err := s.source.Runs(r.Context())
	if err != nil {
		output.Logger.Error("Error fetching models", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch models")
		return
	}
	models := aggregate.Models(records)
	writeJSON(w, http.StatusOK, map[string]any{"models": models, "count": len(models)})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.opts.SnapshotPath == "" {
		http.NotFound(w, r)
		return
	}
	if _, err := os.Stat(s.opts.SnapshotPath); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			output.Logger.Error("Error reading snapshot", "path", s.opts.SnapshotPath, "error", err)
		}
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, s.opts.SnapshotPath)
}

func nonNil(records []model.RunRecord) []model.RunRecord {
	if records == nil {
		return []model.RunRecord{}
	}
	return records
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		output.Logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
