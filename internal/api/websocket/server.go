// Package websocket streams scrape job progress to browsers at /ws/jobs.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/diamond/internal/batch"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server represents the WebSocket server
type Server struct {
	server *http.Server
	hub    *Hub
	mux    *http.ServeMux
	log    logrus.FieldLogger
}

// NewServer creates a new WebSocket server and starts its hub.
func NewServer(log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		hub: NewHub(),
		mux: http.NewServeMux(),
		log: log.WithField("component", "websocket"),
	}
	s.mux.HandleFunc("/ws/jobs", s.handleJobs)
	s.mux.HandleFunc("/ws/health", s.handleHealth)
	go s.hub.Run()
	return s
}

// Handler exposes the routes, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the WebSocket server
func (s *Server) Start(port string) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Infof("WebSocket server listening on :%s", port)
	return s.server.ListenAndServe()
}

// handleJobs upgrades the connection and subscribes it to job progress.
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("⚠️ failed to upgrade connection")
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// handleHealth returns WebSocket server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "healthy", "clients": %d}`, s.hub.ClientCount())
}

// Notify broadcasts one job progress update. It implements batch.Notifier.
func (s *Server) Notify(p batch.Progress) {
	data, err := json.Marshal(p)
	if err != nil {
		s.log.WithError(err).Error("❌ encoding progress")
		return
	}
	if !s.hub.Broadcast(data) {
		s.log.Warn("⚠️ progress dropped, hub backed up")
	}
}

// ClientCount returns the number of subscribers.
func (s *Server) ClientCount() int {
	return s.hub.ClientCount()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Stop()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
