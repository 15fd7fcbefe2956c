package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/vaultwatch/defi-monitor/internal/monitor"
	"github.com/vaultwatch/defi-monitor/internal/store"
)

// ProtocolReader is the slice of the store the protocol endpoints read from.
type ProtocolReader interface {
	LatestSample(ctx context.Context, protocol string) (*store.Sample, error)
	SampleHistory(ctx context.Context, protocol string, since time.Time) ([]store.Sample, error)
	OpenAlertsForProtocol(ctx context.Context, protocol string) ([]store.Alert, error)
}

type protocolStatus struct {
	Name        string           `json:"name"`
	Kind        monitor.Kind     `json:"kind"`
	DisplayName string           `json:"display_name"`
	Status      string           `json:"status"`
	TVL         *decimal.Decimal `json:"tvl"`
	APY         *decimal.Decimal `json:"apy"`
	Utilization *decimal.Decimal `json:"utilization"`
	OpenAlerts  int              `json:"open_alerts"`
	UpdatedAt   *time.Time       `json:"updated_at"`
}

// Protocols returns every configured protocol with its latest reading and a
// status derived from open alerts: critical wins over warning, a protocol
// without data is unknown.
func Protocols(protocols []monitor.Protocol, s ProtocolReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := make([]protocolStatus, 0, len(protocols))
		for _, p := range protocols {
			ps := protocolStatus{
				Name:        p.Name,
				Kind:        p.Kind,
				DisplayName: p.DisplayName,
				Status:      "unknown",
			}

			latest, err := s.LatestSample(r.Context(), p.Name)
			if err != nil {
				http.Error(w, `{"error":"failed to read protocols"}`, http.StatusInternalServerError)
				return
			}
			if latest != nil {
				ps.TVL = &latest.TVL
				ps.APY = &latest.APY
				if latest.Utilization.Valid {
					ps.Utilization = &latest.Utilization.Decimal
				}
				ps.UpdatedAt = &latest.Timestamp

				alerts, err := s.OpenAlertsForProtocol(r.Context(), p.Name)
				if err != nil {
					http.Error(w, `{"error":"failed to read protocols"}`, http.StatusInternalServerError)
					return
				}
				ps.OpenAlerts = len(alerts)
				ps.Status = statusFromAlerts(alerts)
			}

			out = append(out, ps)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

// History returns the stored samples for one protocol over the last N days
// (default 30, capped at 365).
func History(protocols []monitor.Protocol, s ProtocolReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if !knownProtocol(protocols, name) {
			http.Error(w, `{"error":"unknown protocol"}`, http.StatusNotFound)
			return
		}

		days := 30
		if v := r.URL.Query().Get("days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 365 {
				http.Error(w, `{"error":"days must be between 1 and 365"}`, http.StatusBadRequest)
				return
			}
			days = n
		}

		since := time.Now().UTC().AddDate(0, 0, -days)
		samples, err := s.SampleHistory(r.Context(), name, since)
		if err != nil {
			http.Error(w, `{"error":"failed to read history"}`, http.StatusInternalServerError)
			return
		}
		if samples == nil {
			samples = []store.Sample{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(samples)
	}
}

func statusFromAlerts(alerts []store.Alert) string {
	status := "healthy"
	for _, a := range alerts {
		if a.Severity == string(monitor.SeverityCritical) {
			return "critical"
		}
		status = "warning"
	}
	return status
}

func knownProtocol(protocols []monitor.Protocol, name string) bool {
	for _, p := range protocols {
		if p.Name == name {
			return true
		}
	}
	return false
}
