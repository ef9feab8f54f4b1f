package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fortuna/diamond/internal/batch"
)

// ScrapeService is the part of batch.Service the API drives.
type ScrapeService interface {
	Enqueue(ctx context.Context, req batch.Request) (*batch.Job, error)
	GetStatus(ctx context.Context) (*batch.StatusSummary, error)
	GetJob(ctx context.Context, jobID string) (*batch.Job, []batch.Event, error)
}

// ScrapeHandler proxies API calls to the scrape job service.
type ScrapeHandler struct {
	service ScrapeService
	jobs    []string
}

// NewScrapeHandler wires the REST layer to the job service. jobs are the
// names advertised by GET /scrapes/jobs.
func NewScrapeHandler(service ScrapeService, jobs []string) *ScrapeHandler {
	return &ScrapeHandler{service: service, jobs: jobs}
}

// HandleScrapeRequest handles POST /api/v1/scrapes
func (h *ScrapeHandler) HandleScrapeRequest(w http.ResponseWriter, r *http.Request) {
	var req batch.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Job == "" {
		respondError(w, http.StatusBadRequest, "job is required", nil)
		return
	}

	job, err := h.service.Enqueue(r.Context(), req)
	switch {
	case errors.Is(err, batch.ErrUnknownJob), errors.Is(err, batch.ErrUnknownSubject), errors.Is(err, batch.ErrNoSubjects):
		respondError(w, http.StatusBadRequest, "Failed to enqueue scrape job", err)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "Failed to enqueue scrape job", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{"job": job})
}

// HandleScrapeStatus handles GET /api/v1/scrapes/status
func (h *ScrapeHandler) HandleScrapeStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetStatus(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch status", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"active":      summary.ActiveJob != nil,
		"active_job":  summary.ActiveJob,
		"recent_jobs": summary.History,
	})
}

// HandleScrapeJob handles GET /api/v1/scrapes/{jobID}
func (h *ScrapeHandler) HandleScrapeJob(w http.ResponseWriter, r *http.Request) {
	job, events, err := h.service.GetJob(r.Context(), mux.Vars(r)["jobID"])
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch job", err)
		return
	}
	if job == nil {
		respondError(w, http.StatusNotFound, "Job not found", nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"job": job, "events": events})
}

// HandleJobNames handles GET /api/v1/scrapes/jobs
func (h *ScrapeHandler) HandleJobNames(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"jobs": h.jobs})
}
