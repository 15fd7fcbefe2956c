package handler

import (
	"context"
	"encoding/json"
	"net/http"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusReader supplies the numbers for the service status summary.
type StatusReader interface {
	CountMonitoredProtocols(ctx context.Context) (int, error)
	CountOpenAlerts(ctx context.Context) (int, error)
}

func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

func Ready(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := p.Ping(r.Context()); err != nil {
			http.Error(w, `{"status":"not ready"}`, http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}
}

// Status reports a monitoring summary: how many protocols have data and how
// many alerts are open.
func Status(s StatusReader) http.HandlerFunc {
	type response struct {
		Status             string `json:"status"`
		ProtocolsMonitored int    `json:"protocols_monitored"`
		OpenAlerts         int    `json:"open_alerts"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		protocols, err := s.CountMonitoredProtocols(r.Context())
		if err != nil {
			http.Error(w, `{"error":"failed to read status"}`, http.StatusInternalServerError)
			return
		}
		open, err := s.CountOpenAlerts(r.Context())
		if err != nil {
			http.Error(w, `{"error":"failed to read status"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response{
			Status:             "ok",
			ProtocolsMonitored: protocols,
			OpenAlerts:         open,
		})
	}
}
