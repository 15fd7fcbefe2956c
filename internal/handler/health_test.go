package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/vaultwatch/defi-monitor/internal/store"
)

func TestHealth(t *testing.T) {
	rec := doRequest(t, testRouter(newFakeStore()), http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestReady(t *testing.T) {
	f := newFakeStore()
	rec := doRequest(t, testRouter(f), http.MethodGet, "/readyz")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	f.pingErr = errors.New("connection refused")
	rec = doRequest(t, testRouter(f), http.MethodGet, "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status with failing ping = %d, want 503", rec.Code)
	}
}

func TestStatus(t *testing.T) {
	f := newFakeStore()
	felix := sampleAt("felix", time.Now().UTC(), 90_000_000, 8)
	f.latest["felix"] = &felix
	f.open["felix"] = []store.Alert{
		openAlert("felix", "apy_low", "warning"),
		openAlert("felix", "utilization_high", "warning"),
	}

	rec := doRequest(t, testRouter(f), http.MethodGet, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got struct {
		Status             string `json:"status"`
		ProtocolsMonitored int    `json:"protocols_monitored"`
		OpenAlerts         int    `json:"open_alerts"`
	}
	decodeJSON(t, rec, &got)
	if got.Status != "ok" {
		t.Errorf("status field = %q, want ok", got.Status)
	}
	if got.ProtocolsMonitored != 1 {
		t.Errorf("protocols_monitored = %d, want 1", got.ProtocolsMonitored)
	}
	if got.OpenAlerts != 2 {
		t.Errorf("open_alerts = %d, want 2", got.OpenAlerts)
	}
}
