package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/fortuna/diamond/internal/service"
	"github.com/fortuna/diamond/internal/store/repository"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	records *service.RecordService
	health  *service.HealthService
}

// NewHandler creates a new handler
func NewHandler(records *service.RecordService, health *service.HealthService) *Handler {
	return &Handler{records: records, health: health}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := h.health.Check(r.Context())
	status := http.StatusOK
	state := "healthy"
	if !report.Healthy {
		status, state = http.StatusServiceUnavailable, "degraded"
	}
	respondJSON(w, status, map[string]interface{}{
		"status":       state,
		"service":      "diamond",
		"dependencies": report.Dependencies,
	})
}

// GetTables lists the record tables.
func (h *Handler) GetTables(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"tables": h.records.Tables()})
}

// GetRecords handles GET /api/v1/records/{table}?subject=&category=&season=&limit=&offset=
func (h *Handler) GetRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := service.RecordQuery{
		Table:    mux.Vars(r)["table"],
		Subject:  q.Get("subject"),
		Category: q.Get("category"),
	}

	for name, dst := range map[string]*int{"season": &query.Season, "limit": &query.Limit, "offset": &query.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid "+name, err)
			return
		}
		*dst = n
	}

	page, err := h.records.ListRecords(r.Context(), query)
	if errors.Is(err, repository.ErrUnknownTable) {
		respondError(w, http.StatusNotFound, "Unknown table", err)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch records", err)
		return
	}

	respondJSON(w, http.StatusOK, page)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
