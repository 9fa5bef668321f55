/*

This file contains the HTTP server exposing the protection audit trail:
cycle snapshots, verification verdicts, active parameters, and a summary
for the bundled dashboard. The server is read-only; it never mutates
protection state.

*/

package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/shieldvault/ilguard/internal/logger"
	"github.com/shieldvault/ilguard/internal/state"
)

//go:embed static
var staticFiles embed.FS

var webLogger = logger.GetForComponent("web_server")

// Server serves the dashboard and the read-only audit API.
type Server struct {
	port       int
	configName string
	router     *mux.Router
	httpServer *http.Server
}

// NewServer creates the web server on the given port. configName selects
// which protection parameter set the API reports as active.
func NewServer(port int, configName string) (*Server, error) {
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid web server port: %d", port)
	}
	if configName == "" {
		return nil, fmt.Errorf("config name cannot be empty")
	}

	s := &Server{
		port:       port,
		configName: configName,
		router:     mux.NewRouter(),
	}
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.Use(loggingMiddleware, corsMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/cycles", s.handleCycles).Methods("GET")
	api.HandleFunc("/cycles/{id:[0-9]+}", s.handleCycleByID).Methods("GET")
	api.HandleFunc("/verifications", s.handleVerifications).Methods("GET")
	api.HandleFunc("/parameters", s.handleParameters).Methods("GET")
	api.HandleFunc("/summary", s.handleSummary).Methods("GET")

	staticContent, err := fs.Sub(staticFiles, "static")
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to mount embedded static files")
		return
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticContent)))
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	webLogger.Info().Int("port", s.port).Msg("Starting web server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// Close shuts the server down immediately.
func (s *Server) Close() error {
	return s.httpServer.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	}
	if err := state.TestDBConnection(); err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	status["database"] = "ok"
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 20)
	cycles, err := state.GetRecentCycles(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, cycles)
}

func (s *Server) handleCycleByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid cycle id: %w", err))
		return
	}
	cycle, err := state.GetCycleByID(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, cycle)
}

func (s *Server) handleVerifications(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 20)
	results, err := state.GetRecentVerifications(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleParameters(w http.ResponseWriter, r *http.Request) {
	params, paramsID, err := state.LoadActiveProtectionParameters(s.configName)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"params_id":   paramsID,
		"config_name": s.configName,
		"parameters":  params,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := state.GetProtectionSummary()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	currentCycle, err := state.GetCurrentCycleNumber()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	summary["current_cycle"] = currentCycle
	writeJSON(w, http.StatusOK, summary)
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 500 {
		return fallback
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// responseWriterWrapper captures the status code for request logging.
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriterWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		logRequest(webLogger, r, wrapped.statusCode, time.Since(start))
	})
}

func logRequest(log zerolog.Logger, r *http.Request, status int, elapsed time.Duration) {
	log.Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Dur("elapsed", elapsed).
		Msg("HTTP request handled")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
