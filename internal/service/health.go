package service

import (
	"context"
	"time"
)

// Checker is anything with a connectivity probe.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// HealthService probes the datastore and, when configured, Redis.
type HealthService struct {
	checks map[string]Checker
}

// NewHealthService registers the named dependencies. Nil checkers are ignored.
func NewHealthService(checks map[string]Checker) *HealthService {
	h := &HealthService{checks: map[string]Checker{}}
	for name, c := range checks {
		if c != nil {
			h.checks[name] = c
		}
	}
	return h
}

// Report is the outcome of one health check.
type Report struct {
	Healthy      bool              `json:"healthy"`
	Dependencies map[string]string `json:"dependencies"`
}

// Check probes every dependency with a short timeout.
func (h *HealthService) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	report := Report{Healthy: true, Dependencies: map[string]string{}}
	for name, c := range h.checks {
		if err := c.HealthCheck(ctx); err != nil {
			report.Healthy = false
			report.Dependencies[name] = err.Error()
			continue
		}
		report.Dependencies[name] = "ok"
	}
	return report
}
