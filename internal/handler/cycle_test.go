package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/vaultwatch/defi-monitor/internal/monitor"
)

type fakeCycleRunner struct {
	report monitor.CycleReport
	runs   int
}

func (f *fakeCycleRunner) RunCycle(ctx context.Context) monitor.CycleReport {
	f.runs++
	return f.report
}

func TestTriggerCycle(t *testing.T) {
	runner := &fakeCycleRunner{
		report: monitor.CycleReport{
			StartedAt: time.Now().UTC(),
			Elapsed:   420 * time.Millisecond,
			Succeeded: []string{"hlp"},
			Failed: map[string]*monitor.StageError{
				"felix": {Stage: monitor.StageFetch, Err: errors.New("dial tcp: timeout")},
			},
			AlertsOpened: 1,
		},
	}

	r := testRouter(newFakeStore())
	r.Post("/api/cycle", TriggerCycle(runner))

	rec := doRequest(t, r, http.MethodPost, "/api/cycle")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if runner.runs != 1 {
		t.Errorf("cycle ran %d times, want 1", runner.runs)
	}

	var got struct {
		Elapsed      string            `json:"elapsed"`
		Succeeded    []string          `json:"succeeded"`
		Failed       map[string]string `json:"failed"`
		AlertsOpened int               `json:"alerts_opened"`
	}
	decodeJSON(t, rec, &got)
	if got.Elapsed != "420ms" {
		t.Errorf("elapsed = %q, want 420ms", got.Elapsed)
	}
	if len(got.Succeeded) != 1 || got.Succeeded[0] != "hlp" {
		t.Errorf("succeeded = %v, want [hlp]", got.Succeeded)
	}
	if got.Failed["felix"] != "fetch: dial tcp: timeout" {
		t.Errorf("failed[felix] = %q", got.Failed["felix"])
	}
	if got.AlertsOpened != 1 {
		t.Errorf("alerts_opened = %d, want 1", got.AlertsOpened)
	}
}

func TestTriggerCycleEmptyReport(t *testing.T) {
	r := testRouter(newFakeStore())
	r.Post("/api/cycle", TriggerCycle(&fakeCycleRunner{}))

	rec := doRequest(t, r, http.MethodPost, "/api/cycle")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got struct {
		Succeeded []string          `json:"succeeded"`
		Failed    map[string]string `json:"failed"`
	}
	decodeJSON(t, rec, &got)
	if got.Succeeded == nil {
		t.Error("succeeded serialized as null, want []")
	}
	if len(got.Failed) != 0 {
		t.Errorf("failed = %v, want empty", got.Failed)
	}
}
