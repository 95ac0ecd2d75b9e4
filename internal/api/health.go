package api

import (
	"context"
	"net/http"
	"time"
)

// Pinger is anything whose reachability gates readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandlers struct {
	started time.Time
	checks  map[string]Pinger
	timeout time.Duration
}

func NewHealthHandlers(checks map[string]Pinger) *HealthHandlers {
	return &HealthHandlers{started: time.Now(), checks: checks, timeout: 2 * time.Second}
}

type healthPayload struct {
	Status    string            `json:"status"`
	Uptime    string            `json:"uptime"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandlers) live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthPayload{
		Status:    "ok",
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	})
}

func (h *HealthHandlers) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	payload := healthPayload{
		Status:    "ok",
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]string, len(h.checks)),
	}
	status := http.StatusOK
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			payload.Checks[name] = err.Error()
			payload.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		payload.Checks[name] = "ok"
	}
	writeJSON(w, status, payload)
}
