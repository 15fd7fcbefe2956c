package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vaultwatch/defi-monitor/internal/monitor"
	"github.com/vaultwatch/defi-monitor/internal/store"
)

var testProtocols = []monitor.Protocol{
	{Name: "felix", Kind: monitor.KindLending, DisplayName: "Felix Protocol"},
	{Name: "hlp", Kind: monitor.KindVault, DisplayName: "Hyperliquid HLP"},
}

// fakeStore backs every handler interface from plain maps.
type fakeStore struct {
	latest  map[string]*store.Sample
	history map[string][]store.Sample
	open    map[string][]store.Alert
	alerts  []store.Alert

	resolveResult *store.Alert
	resolveErr    error
	listErr       error
	pingErr       error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		latest:  make(map[string]*store.Sample),
		history: make(map[string][]store.Sample),
		open:    make(map[string][]store.Alert),
	}
}

func (f *fakeStore) LatestSample(ctx context.Context, protocol string) (*store.Sample, error) {
	return f.latest[protocol], nil
}

func (f *fakeStore) SampleHistory(ctx context.Context, protocol string, since time.Time) ([]store.Sample, error) {
	var out []store.Sample
	for _, smp := range f.history[protocol] {
		if !smp.Timestamp.Before(since) {
			out = append(out, smp)
		}
	}
	return out, nil
}

func (f *fakeStore) OpenAlertsForProtocol(ctx context.Context, protocol string) ([]store.Alert, error) {
	return f.open[protocol], nil
}

func (f *fakeStore) ListAlerts(ctx context.Context, status string) ([]store.Alert, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if status == "" {
		return f.alerts, nil
	}
	var out []store.Alert
	for _, a := range f.alerts {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) ResolveAlert(ctx context.Context, id uuid.UUID) (*store.Alert, error) {
	return f.resolveResult, f.resolveErr
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeStore) CountMonitoredProtocols(ctx context.Context) (int, error) {
	return len(f.latest), nil
}

func (f *fakeStore) CountOpenAlerts(ctx context.Context) (int, error) {
	n := 0
	for _, alerts := range f.open {
		n += len(alerts)
	}
	return n, nil
}

func testRouter(f *fakeStore) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/healthz", Health())
	r.Get("/readyz", Ready(f))
	r.Get("/api/status", Status(f))
	r.Get("/api/protocols", Protocols(testProtocols, f))
	r.Get("/api/protocols/{name}/history", History(testProtocols, f))
	r.Get("/api/alerts", ListAlerts(f))
	r.Post("/api/alerts/{id}/resolve", ResolveAlert(f))
	return r
}

func doRequest(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
}

func sampleAt(protocol string, ts time.Time, tvl, apy float64) store.Sample {
	return store.Sample{
		ProtocolName: protocol,
		Timestamp:    ts,
		TVL:          decimal.NewFromFloat(tvl),
		APY:          decimal.NewFromFloat(apy),
	}
}

func openAlert(protocol, rule, severity string) store.Alert {
	return store.Alert{
		ID:           uuid.New(),
		ProtocolName: protocol,
		RuleID:       rule,
		Severity:     severity,
		Status:       store.AlertOpen,
		OpenedAt:     time.Now().UTC(),
	}
}
