// Package api exposes the HTTP surface: syllabus processing, flowchart
// generation, a generic prompt passthrough, and the session-scoped
// annotation endpoints.
package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/lexical-app/lexical/internal/annotate"
	"github.com/lexical-app/lexical/internal/flowchart"
	"github.com/lexical-app/lexical/internal/llm"
	"github.com/lexical-app/lexical/internal/syllabus"
)

// Server handles HTTP requests for the LexiCal API.
type Server struct {
	gen      llm.Generator
	retry    *llm.Retryer
	syllabus *syllabus.Service
	flow     *flowchart.Service
	sessions *annotate.Manager
	logger   *zap.Logger
	addr     string
}

// New creates a new API server around a single model generator.
func New(gen llm.Generator, logger *zap.Logger, addr string) *Server {
	return &Server{
		gen:      gen,
		retry:    llm.NewRetryer(logger),
		syllabus: syllabus.New(gen, logger),
		flow:     flowchart.New(gen, logger),
		sessions: annotate.NewManager(),
		logger:   logger,
		addr:     addr,
	}
}

// Handler builds the full route table with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.health)

	// Model-backed endpoints
	mux.HandleFunc("POST /api/deepseek/syllabus/process", s.processSyllabus)
	mux.HandleFunc("POST /api/deepseek/generate", s.generate)
	mux.HandleFunc("POST /api/flowchart/generate", s.generateFlowchart)
	mux.HandleFunc("POST /api/flowchart/refine", s.refineFlowchart)

	// Sessions
	mux.HandleFunc("POST /api/sessions", s.createSession)
	mux.HandleFunc("POST /api/sessions/{id}/highlights", s.addHighlight)
	mux.HandleFunc("GET /api/sessions/{id}/highlights", s.listHighlights)
	mux.HandleFunc("PATCH /api/sessions/{id}/highlights/{hid}", s.updateHighlight)
	mux.HandleFunc("DELETE /api/sessions/{id}/highlights/{hid}", s.deleteHighlight)

	// Tags
	mux.HandleFunc("POST /api/sessions/{id}/tags", s.createTag)
	mux.HandleFunc("GET /api/sessions/{id}/tags", s.listTags)
	mux.HandleFunc("PATCH /api/sessions/{id}/tags/{tid}", s.updateTag)
	mux.HandleFunc("DELETE /api/sessions/{id}/tags/{tid}", s.deleteTag)
	mux.HandleFunc("PUT /api/sessions/{id}/highlights/{hid}/tags/{tid}", s.assignTag)
	mux.HandleFunc("DELETE /api/sessions/{id}/highlights/{hid}/tags/{tid}", s.unassignTag)

	// Notes
	mux.HandleFunc("POST /api/sessions/{id}/highlights/{hid}/notes", s.addNote)
	mux.HandleFunc("GET /api/sessions/{id}/highlights/{hid}/notes", s.listNotes)

	// Calendar
	mux.HandleFunc("PUT /api/sessions/{id}/assignments", s.setAssignments)
	mux.HandleFunc("GET /api/sessions/{id}/calendar/{date}", s.calendarDay)

	return s.withRecovery(withCORS(s.withLogging(mux)))
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	s.logger.Info("starting server", zap.String("addr", s.addr))
	return http.ListenAndServe(s.addr, s.Handler())
}

// withCORS adds CORS headers for frontend development.
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

// withLogging records one line per request.
func (s *Server) withLogging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status))
	})
}

// withRecovery converts panics into a generic 500 without leaking internals.
func (s *Server) withRecovery(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path))
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		h.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "Server is running",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
