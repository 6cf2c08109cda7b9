package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/moodlens/pkg/observability"
)

// newHealthMux serves liveness from the processor stats and readiness from
// the health registry.
func newHealthMux(stats func() outbox.Stats, health *observability.HealthRegistry) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s := stats()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":            "ok",
			"running":           s.Running,
			"published":         s.PublishedCount,
			"failed":            s.FailedCount,
			"dead":              s.DeadCount,
			"lag_seconds":       s.LagSeconds,
			"last_processed_at": s.LastProcessedAt,
			"last_error_at":     s.LastErrorAt,
			"last_error":        s.LastError,
		})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		report := health.Check(checkCtx)
		status := http.StatusOK
		if report.Status == observability.HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, report)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
