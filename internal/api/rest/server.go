// Package rest is the HTTP API: record queries, scrape jobs, health and
// Prometheus metrics.
package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server represents the REST API server
type Server struct {
	port   string
	server *http.Server
	router *mux.Router
}

// NewServer creates a new REST API server
func NewServer(port string, handler *Handler, scrapes *ScrapeHandler, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware(log))
	router.Use(LoggingMiddleware(log))
	router.Use(CORSMiddleware)

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Records
	api.HandleFunc("/records", handler.GetTables).Methods("GET")
	api.HandleFunc("/records/{table}", handler.GetRecords).Methods("GET")

	// Scrape jobs
	if scrapes != nil {
		api.HandleFunc("/scrapes", scrapes.HandleScrapeRequest).Methods("POST")
		api.HandleFunc("/scrapes/status", scrapes.HandleScrapeStatus).Methods("GET")
		api.HandleFunc("/scrapes/jobs", scrapes.HandleJobNames).Methods("GET")
		api.HandleFunc("/scrapes/{jobID}", scrapes.HandleScrapeJob).Methods("GET")
	}

	return &Server{
		port:   port,
		router: router,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
