// Package server provides the HTTP server for the overlay3d dataset adapter.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/overlay3d/internal/config"
	"github.com/ayusman/overlay3d/internal/server/api"
	"github.com/ayusman/overlay3d/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Dataset   api.Dataset
	Trainer   *config.Config

	// FrameInterval is the delay between preview stream frames.
	FrameInterval time.Duration
}

// Server represents the HTTP server for the overlay3d application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		datasetsHandler := api.NewDatasetsHandler(s.config.Store)
		s.mux.Handle("/api/datasets", datasetsHandler)
		s.mux.Handle("/api/datasets/", datasetsHandler)
	}

	if s.config.Dataset != nil {
		samplesHandler := api.NewSamplesHandler(s.config.Dataset)
		s.mux.Handle("/api/samples", samplesHandler)
		s.mux.Handle("/api/samples/", samplesHandler)

		s.mux.Handle("/api/feed", NewFeedHandler(s.config.Dataset))
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Dataset, s.config.FrameInterval))
	}

	if s.config.Trainer != nil && s.config.Dataset != nil {
		configHandler := api.NewConfigHandler(s.config.Trainer, s.config.Dataset.Classes())
		s.mux.HandleFunc("/api/config", configHandler.Config)
		s.mux.HandleFunc("/api/classes", configHandler.Classes)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Dataset != nil {
		response["samples"] = len(s.config.Dataset.Samples())
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
