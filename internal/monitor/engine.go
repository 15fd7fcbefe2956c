package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/vaultwatch/defi-monitor/internal/metrics"
	"github.com/vaultwatch/defi-monitor/internal/store"
)

// Cycle stages, used to tag where a protocol's processing failed.
const (
	StageLock      = "lock"
	StageFetch     = "fetch"
	StagePersist   = "persist"
	StageDetect    = "detect"
	StageReconcile = "reconcile"
)

// StageError records which stage of the cycle failed for a protocol.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// SampleStore is the persistence surface the pipeline reads and writes
// samples through.
type SampleStore interface {
	AppendSample(ctx context.Context, smp store.Sample) error
	SampleAsOf(ctx context.Context, protocol string, cutoff time.Time) (*store.Sample, error)
}

// Locker serializes cycles per protocol so two cycles never interleave
// writes to the same sample stream.
type Locker interface {
	Acquire(ctx context.Context, name string) (bool, error)
	Release(ctx context.Context, name string) error
}

// CycleReport summarizes one collection cycle.
type CycleReport struct {
	StartedAt    time.Time
	Elapsed      time.Duration
	Succeeded    []string
	Failed       map[string]*StageError
	AlertsOpened int
}

// Engine drives the collection cycle across all registered protocol
// fetchers: fetch, persist, detect, reconcile - with failures isolated per
// protocol. The engine itself holds no durable state and can be rebuilt
// from configuration at any time.
type Engine struct {
	samples      SampleStore
	alerts       *AlertManager
	locks        Locker
	thresholds   Thresholds
	fetchTimeout time.Duration
	logger       *slog.Logger

	fetchers []Fetcher

	mu         sync.RWMutex
	lastReport *CycleReport
}

func NewEngine(samples SampleStore, alerts *AlertManager, locks Locker, th Thresholds, logger *slog.Logger) *Engine {
	return &Engine{
		samples:      samples,
		alerts:       alerts,
		locks:        locks,
		thresholds:   th,
		fetchTimeout: 15 * time.Second,
		logger:       logger,
	}
}

// SetFetchTimeout overrides the per-protocol fetch deadline.
func (e *Engine) SetFetchTimeout(d time.Duration) { e.fetchTimeout = d }

// Register adds a protocol fetcher. Registration order is cycle order.
func (e *Engine) Register(f Fetcher) {
	e.fetchers = append(e.fetchers, f)
	e.logger.Info("registered protocol",
		"protocol", f.Protocol().Name, "kind", f.Protocol().Kind)
}

// Protocols returns the configured protocols in registration order.
func (e *Engine) Protocols() []Protocol {
	out := make([]Protocol, 0, len(e.fetchers))
	for _, f := range e.fetchers {
		out = append(out, f.Protocol())
	}
	return out
}

// LastReport returns the most recent cycle report, or nil before the first
// cycle has finished.
func (e *Engine) LastReport() *CycleReport {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastReport
}

// Run executes an immediate cycle and then follows the cron schedule until
// the context is cancelled.
func (e *Engine) Run(ctx context.Context, schedule string) error {
	e.RunCycle(ctx)

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { e.RunCycle(ctx) }); err != nil {
		return fmt.Errorf("cron schedule %q: %w", schedule, err)
	}
	c.Start()
	<-ctx.Done()
	stop := c.Stop()
	<-stop.Done()
	return nil
}

// RunCycle processes every registered protocol once. A failing protocol is
// recorded in the report and never aborts the others.
func (e *Engine) RunCycle(ctx context.Context) CycleReport {
	report := CycleReport{
		StartedAt: time.Now().UTC(),
		Failed:    make(map[string]*StageError),
	}
	metrics.CyclesTotal.Inc()

	for _, f := range e.fetchers {
		name := f.Protocol().Name
		opened, stageErr := e.processProtocol(ctx, f, report.StartedAt)
		if stageErr != nil {
			report.Failed[name] = stageErr
			metrics.CycleFailuresTotal.WithLabelValues(name, stageErr.Stage).Inc()
			e.logger.Error("protocol cycle failed",
				"protocol", name, "stage", stageErr.Stage, "error", stageErr.Err)
			continue
		}
		report.Succeeded = append(report.Succeeded, name)
		report.AlertsOpened += opened
	}

	report.Elapsed = time.Since(report.StartedAt)
	metrics.CycleDuration.Observe(report.Elapsed.Seconds())
	e.logger.Info("cycle complete",
		"succeeded", len(report.Succeeded),
		"failed", len(report.Failed),
		"alerts_opened", report.AlertsOpened,
		"elapsed", report.Elapsed.String(),
	)

	e.mu.Lock()
	e.lastReport = &report
	e.mu.Unlock()
	return report
}

func (e *Engine) processProtocol(ctx context.Context, f Fetcher, ts time.Time) (int, *StageError) {
	p := f.Protocol()

	ok, err := e.locks.Acquire(ctx, p.Name)
	if err != nil {
		return 0, &StageError{Stage: StageLock, Err: err}
	}
	if !ok {
		return 0, &StageError{Stage: StageLock, Err: fmt.Errorf("another cycle holds the run lock")}
	}
	defer func() {
		if err := e.locks.Release(context.WithoutCancel(ctx), p.Name); err != nil {
			e.logger.Warn("release run lock failed", "protocol", p.Name, "error", err)
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	start := time.Now()
	reading, err := f.Fetch(fetchCtx)
	cancel()
	metrics.FetchDuration.WithLabelValues(p.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FetchTotal.WithLabelValues(p.Name, "error").Inc()
		return 0, &StageError{Stage: StageFetch, Err: err}
	}
	metrics.FetchTotal.WithLabelValues(p.Name, "ok").Inc()

	smp := store.Sample{
		ProtocolName: p.Name,
		Timestamp:    ts,
		TVL:          reading.TVL,
		APY:          reading.APY,
		Utilization:  reading.Utilization,
	}
	if err := e.samples.AppendSample(ctx, smp); err != nil {
		return 0, &StageError{Stage: StagePersist, Err: err}
	}
	metrics.LastSampleTimestamp.WithLabelValues(p.Name).Set(float64(ts.Unix()))
	metrics.ProtocolTVL.WithLabelValues(p.Name).Set(reading.TVL.InexactFloat64())
	metrics.ProtocolAPY.WithLabelValues(p.Name).Set(reading.APY.InexactFloat64())

	baseline, err := e.samples.SampleAsOf(ctx, p.Name, ts.Add(-e.thresholds.TVLLookback))
	if err != nil {
		return 0, &StageError{Stage: StageDetect, Err: err}
	}

	findings := Evaluate(p, smp, baseline, e.thresholds)

	opened, err := e.alerts.Reconcile(ctx, p, findings)
	if err != nil {
		return 0, &StageError{Stage: StageReconcile, Err: err}
	}
	return len(opened), nil
}
