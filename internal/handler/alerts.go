package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vaultwatch/defi-monitor/internal/metrics"
	"github.com/vaultwatch/defi-monitor/internal/store"
)

// AlertReader lists stored alerts.
type AlertReader interface {
	ListAlerts(ctx context.Context, status string) ([]store.Alert, error)
}

// AlertResolver performs the one external mutation on alert state.
type AlertResolver interface {
	ResolveAlert(ctx context.Context, id uuid.UUID) (*store.Alert, error)
}

func ListAlerts(s AlertReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")
		switch status {
		case "", store.AlertOpen, store.AlertResolved:
		default:
			http.Error(w, `{"error":"status must be open or resolved"}`, http.StatusBadRequest)
			return
		}

		alerts, err := s.ListAlerts(r.Context(), status)
		if err != nil {
			http.Error(w, `{"error":"failed to list alerts"}`, http.StatusInternalServerError)
			return
		}
		if alerts == nil {
			alerts = []store.Alert{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(alerts)
	}
}

func ResolveAlert(s AlertResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, `{"error":"invalid alert id"}`, http.StatusBadRequest)
			return
		}

		alert, err := s.ResolveAlert(r.Context(), id)
		switch {
		case errors.Is(err, store.ErrAlertNotFound):
			http.Error(w, `{"error":"alert not found"}`, http.StatusNotFound)
			return
		case errors.Is(err, store.ErrAlertResolved):
			http.Error(w, `{"error":"alert already resolved"}`, http.StatusConflict)
			return
		case err != nil:
			http.Error(w, `{"error":"failed to resolve alert"}`, http.StatusInternalServerError)
			return
		}

		metrics.AlertsResolvedTotal.Inc()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(alert)
	}
}
