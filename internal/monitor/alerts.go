package monitor

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/vaultwatch/defi-monitor/internal/metrics"
	"github.com/vaultwatch/defi-monitor/internal/store"
)

// AlertStore is the persistence surface the alert manager writes through.
type AlertStore interface {
	// OpenAlert creates an open alert unless one already exists for the
	// (protocol, rule) pair; in that case it returns nil without writing.
	OpenAlert(ctx context.Context, a store.Alert) (*store.Alert, error)
}

// AlertManager reconciles a cycle's findings against the open alerts.
// It only ever opens alerts: a condition that clears does not auto-resolve
// its alert, an operator has to acknowledge it explicitly.
type AlertManager struct {
	alerts AlertStore
	logger *slog.Logger
}

func NewAlertManager(alerts AlertStore, logger *slog.Logger) *AlertManager {
	return &AlertManager{alerts: alerts, logger: logger}
}

// Reconcile opens an alert for every finding that has no matching open alert
// and returns the newly opened ones. Findings matching an existing open alert
// are dropped without updating it.
func (m *AlertManager) Reconcile(ctx context.Context, p Protocol, findings []Finding) ([]store.Alert, error) {
	var opened []store.Alert
	for _, f := range findings {
		a, err := m.alerts.OpenAlert(ctx, store.Alert{
			ProtocolName: f.ProtocolName,
			RuleID:       f.RuleID,
			Severity:     string(f.Severity),
			Message:      f.Message,
			Observed:     decimal.NullDecimal{Decimal: f.Observed, Valid: true},
			Threshold:    decimal.NullDecimal{Decimal: f.Threshold, Valid: true},
		})
		if err != nil {
			return opened, err
		}
		if a == nil {
			m.logger.Debug("alert already open", "protocol", f.ProtocolName, "rule", f.RuleID)
			continue
		}

		metrics.AlertsOpenedTotal.WithLabelValues(f.ProtocolName, f.RuleID).Inc()
		m.logger.Warn("alert opened",
			"protocol", f.ProtocolName,
			"rule", f.RuleID,
			"severity", f.Severity,
			"message", f.Message,
		)
		opened = append(opened, *a)
	}
	return opened, nil
}
