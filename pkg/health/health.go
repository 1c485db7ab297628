// Package health exposes a read-only liveness report of whether the queue,
// telemetry and idempotency store connections are configured.
package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/zoff-tech/go-orderflow/pkg/config"
)

type Checks struct {
	QueueConfigured     bool `json:"queueConfigured"`
	TelemetryConfigured bool `json:"telemetryConfigured"`
	StoreConfigured     bool `json:"storeConfigured"`
}

type Report struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Checks    Checks    `json:"checks"`
}

// FromSettings derives the report from static configuration. The memory
// backends count as configured; they need no connection details.
func FromSettings(cfg *config.Settings) Report {
	checks := Checks{
		QueueConfigured:     cfg.Broker.Type == "memory" || cfg.Broker.URL != "",
		TelemetryConfigured: cfg.Observability.TracingURL != "",
		StoreConfigured:     cfg.Store.Type == "memory" || cfg.Store.DSN != "" || cfg.Store.URI != "" || cfg.Store.URL != "",
	}
	status := "ok"
	if !checks.QueueConfigured || !checks.StoreConfigured {
		status = "degraded"
	}
	return Report{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}
}

// Handler serves the report as JSON.
func Handler(cfg *config.Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := FromSettings(cfg)
		w.Header().Set("Content-Type", "application/json")
		if report.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(report)
	}
}
