package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vaultwatch/defi-monitor/internal/monitor"
)

// CycleRunner triggers a collection cycle on demand.
type CycleRunner interface {
	RunCycle(ctx context.Context) monitor.CycleReport
}

// TriggerCycle runs one collection cycle synchronously and returns its
// report. Per-protocol run locks keep it from interleaving with a scheduled
// cycle.
func TriggerCycle(e CycleRunner) http.HandlerFunc {
	type response struct {
		StartedAt    time.Time         `json:"started_at"`
		Elapsed      string            `json:"elapsed"`
		Succeeded    []string          `json:"succeeded"`
		Failed       map[string]string `json:"failed"`
		AlertsOpened int               `json:"alerts_opened"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		report := e.RunCycle(r.Context())

		resp := response{
			StartedAt:    report.StartedAt,
			Elapsed:      report.Elapsed.String(),
			Succeeded:    report.Succeeded,
			Failed:       make(map[string]string, len(report.Failed)),
			AlertsOpened: report.AlertsOpened,
		}
		if resp.Succeeded == nil {
			resp.Succeeded = []string{}
		}
		for name, stageErr := range report.Failed {
			resp.Failed[name] = stageErr.Error()
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
